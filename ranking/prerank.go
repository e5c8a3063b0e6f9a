// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ranking

import (
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/talentmatch/core"
)

// occupancyProfile is the deterministic allocation summary the pre-rank
// rules run on.
type occupancyProfile struct {
	external      float64 // Aggregate external occupancy, percent
	concurrent    int     // Active external engagements
	highOccShadow bool
	skillRatio    float64
	senior        bool
}

// PreRank deterministically tags candidates whose allocation already rules
// out top tiers and assigns them a tier and score without a reasoning
// call. Everyone else passes through for reason-ranking.
func (p *Pipeline) PreRank(filters *core.ParsedFilters, profiles []*core.CompressedProfile) (ranked []core.RankedCandidate, rest []*core.CompressedProfile) {
	for _, profile := range profiles {
		occ := p.occupancy(profile, filters)

		if !p.skipsReasoner(occ) {
			rest = append(rest, profile)
			continue
		}
		ranked = append(ranked, p.ruleBasedCandidate(profile, occ, false))
	}
	return ranked, rest
}

// ForceRank assigns every profile a rule-based tier and score, top tier
// permitted. Used by the criteria-based variant and as the fallback when
// the reasoning collaborator fails.
func (p *Pipeline) ForceRank(filters *core.ParsedFilters, profiles []*core.CompressedProfile) []core.RankedCandidate {
	out := make([]core.RankedCandidate, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, p.ruleBasedCandidate(profile, p.occupancy(profile, filters), true))
	}
	return out
}

func (p *Pipeline) skipsReasoner(occ occupancyProfile) bool {
	return occ.external >= p.policy.ExternalOccupancyThreshold ||
		occ.concurrent >= p.policy.MaxConcurrentExternal ||
		occ.highOccShadow
}

func (p *Pipeline) occupancy(profile *core.CompressedProfile, filters *core.ParsedFilters) occupancyProfile {
	var occ occupancyProfile
	occ.senior = isSenior(profile.Designation)
	occ.skillRatio = skillRatio(profile, filters)

	for i, eng := range profile.Engagements {
		if i >= len(profile.EngagementCodes) {
			break
		}
		code := profile.EngagementCodes[i]

		if code == core.DeployShadow && eng.Occupancy >= p.policy.ShadowOccupancyThreshold {
			occ.highOccShadow = true
		}
		if code.IsExternal() && eng.Occupancy > 0 {
			occ.external += eng.Occupancy
			occ.concurrent++
		}
	}
	return occ
}

// ruleBasedCandidate applies the closed-form tier rules. With topTier
// false (the pre-rank path) the best reachable tier is 2: a candidate
// skimmed for heavy allocation never outranks reason-ranked peers.
func (p *Pipeline) ruleBasedCandidate(profile *core.CompressedProfile, occ occupancyProfile, topTier bool) core.RankedCandidate {
	tier := p.ruleTier(occ, topTier)
	band := p.policy.band(tier)

	// Position inside the band follows skill fit and remaining capacity.
	capacity := 1 - math.Min(occ.external, 100)/100
	fit := 0.6*occ.skillRatio + 0.4*capacity
	score := math.Round((band.Min+fit*(band.Max-band.Min))*10) / 10

	return core.RankedCandidate{
		Profile: profile,
		Tier:    tier,
		Score:   score,
		SubScores: map[string]float64{
			"skills":    occ.skillRatio,
			"occupancy": math.Min(occ.external, 100) / 100,
		},
		Justification: ruleJustification(occ),
		Method:        core.MethodRuleBased,
	}
}

func (p *Pipeline) ruleTier(occ occupancyProfile, topTier bool) int {
	if topTier && occ.skillRatio >= 0.5 && occ.external < p.policy.ExternalOccupancyThreshold {
		return 1
	}
	if occ.senior && occ.skillRatio >= 0.5 && occ.external < 100 {
		return 2
	}
	if occ.skillRatio > 0 || occ.external < 100 {
		return 3
	}
	return 4
}

func ruleJustification(occ occupancyProfile) string {
	switch {
	case occ.highOccShadow:
		return "high-occupancy shadow engagement"
	case occ.concurrent >= 3:
		return fmt.Sprintf("%d concurrent external engagements", occ.concurrent)
	case occ.external > 0:
		return fmt.Sprintf("external occupancy %.0f%%", occ.external)
	default:
		return "rule-based ranking"
	}
}

// skillRatio is the coarse requested-skill overlap against the profile's
// normalized variants.
func skillRatio(profile *core.CompressedProfile, filters *core.ParsedFilters) float64 {
	if filters == nil || len(filters.Skills) == 0 {
		return 0.5
	}

	have := make(map[string]bool, len(profile.SkillVariants))
	for _, v := range profile.SkillVariants {
		have[v] = true
	}

	matched := 0
	for _, skill := range filters.Skills {
		if have[strings.ToLower(strings.TrimSpace(skill))] {
			matched++
		}
	}
	return float64(matched) / float64(len(filters.Skills))
}

// isSenior flags title keywords that mark a senior profile.
func isSenior(designation string) bool {
	d := strings.ToLower(designation)
	for _, kw := range []string{"senior", "lead", "principal", "architect", "manager", "director"} {
		if strings.Contains(d, kw) {
			return true
		}
	}
	return false
}
