package ranking

import "time"

// Variant selects the ranking strategy. One pipeline serves all three;
// the variant only changes which stages run.
type Variant string

const (
	// VariantTiered is the default two-stage flow: deterministic pre-rank
	// skims clearly-allocated candidates, the rest go to the reasoner.
	VariantTiered Variant = "tiered"
	// VariantSinglePass sends every candidate to the reasoner.
	VariantSinglePass Variant = "single-pass"
	// VariantCriteria ranks everything with the closed-form rules and
	// never calls the reasoner.
	VariantCriteria Variant = "criteria-based"
)

// Band bounds the score range of one tier.
type Band struct {
	Min float64
	Max float64
}

// Policy is the configurable pre-ranking and batching policy table. The
// occupancy thresholds and score bands are reproduced operational
// defaults, applied uniformly here; treat them as tuning knobs, not
// verified business rules.
type Policy struct {
	// ExternalOccupancyThreshold is the aggregate external occupancy (in
	// percent) at or above which a candidate skips the reasoner.
	ExternalOccupancyThreshold float64

	// MaxConcurrentExternal skips candidates juggling this many active
	// external engagements.
	MaxConcurrentExternal int

	// ShadowOccupancyThreshold skips candidates with a shadow engagement
	// at or above this occupancy.
	ShadowOccupancyThreshold float64

	// Bands maps each tier to its score range. Reasoner scores outside
	// the band of their tier are clamped into it.
	Bands map[int]Band

	// BatchSize bounds candidates per reasoning call.
	BatchSize int

	// MaxInFlightBatches bounds concurrent reasoning calls.
	MaxInFlightBatches int64

	// ResultTTL is the ranked-result cache lifetime.
	ResultTTL time.Duration

	Variant Variant
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		ExternalOccupancyThreshold: 80,
		MaxConcurrentExternal:      3,
		ShadowOccupancyThreshold:   50,
		Bands: map[int]Band{
			1: {Min: 75, Max: 100},
			2: {Min: 50, Max: 75},
			3: {Min: 25, Max: 50},
			4: {Min: 0, Max: 25},
		},
		BatchSize:          20,
		MaxInFlightBatches: 2,
		ResultTTL:          5 * time.Minute,
		Variant:            VariantTiered,
	}
}

func (p Policy) band(tier int) Band {
	if b, ok := p.Bands[tier]; ok {
		return b
	}
	return Band{Min: 0, Max: 100}
}

func clampToBand(score float64, b Band) float64 {
	if score < b.Min {
		return b.Min
	}
	if score > b.Max {
		return b.Max
	}
	return score
}
