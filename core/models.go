package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Employee IDs come from the system of record; derived entities use
// content-based hashing so identical content produces identical IDs.
type ID int64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Engagement is a single allocation of an employee to a project or activity.
// Records are owned by the system of record and read-only to this module.
type Engagement struct {
	StatusLabel string  // Raw status label as entered upstream
	Occupancy   float64 // Percent allocation, 0-100
	Client      string  // Counterparty name, may be an org-internal marker
	Project     string
	StartDate   time.Time
	EndDate     time.Time
}

// Employee is a candidate record as read from the system of record.
type Employee struct {
	ID                 ID
	Name               string
	Department         string
	Designation        string
	Location           string
	Skills             string // Free-text skill list
	TotalExperience    string // Raw duration, e.g. "5Y 3M" or "4"
	RelevantExperience string // Secondary duration, preferred when the primary is blank
	Engagements        []Engagement
}

// CompressedProfile is the compact fixed-field encoding of an employee.
// It is regenerated lazily or in bulk and is idempotent for unchanged inputs.
type CompressedProfile struct {
	EmployeeID        ID
	Name              string
	Line              string   // Pipe-delimited compact encoding
	SkillVariants     []string // Normalized, deduplicated skill variants
	DepartmentCode    string
	DesignationCode   string
	LocationCode      string
	Location          string // Raw location, kept for preference scoring
	Designation       string // Raw designation, kept for seniority scoring
	ProjectCodes      []string
	EngagementCodes   []DeploymentCode // One code per engagement, classification order
	Engagements       []Engagement     // Source engagements, occupancy scoring
	DeploymentSummary string           // Single code, dash-joined pair, or "mixed"
	ExperienceYears   float64
	GeneratedAt       time.Time
}

// Codebooks holds the four generation-scoped raw-value -> short-code maps.
// A rebuild replaces all four maps wholesale; codes from different
// generations must never be mixed.
type Codebooks struct {
	Departments  map[string]string
	Designations map[string]string
	Locations    map[string]string
	Projects     map[string]string
	Generation   time.Time
}

// EmptyCodebooks returns a Codebooks value with four empty maps.
func EmptyCodebooks() *Codebooks {
	return &Codebooks{
		Departments:  map[string]string{},
		Designations: map[string]string{},
		Locations:    map[string]string{},
		Projects:     map[string]string{},
	}
}

// RankingMethod identifies how a candidate was ranked.
type RankingMethod string

const (
	// MethodRuleBased marks candidates ranked by the deterministic pre-ranker.
	MethodRuleBased RankingMethod = "rule-based"
	// MethodReasoning marks candidates ranked by the reasoning collaborator.
	MethodReasoning RankingMethod = "reasoning-based"
)

// RankedCandidate is a compressed profile with its ranking outcome attached.
// Every candidate entering the pipeline receives exactly one tier.
type RankedCandidate struct {
	Profile       *CompressedProfile
	Tier          int // 1 best - 4 worst
	Score         float64
	SubScores     map[string]float64
	Justification string
	Method        RankingMethod
}

// RetrievedCandidate is an employee surfaced by one of the retrieval
// strategies, carrying the strategy that produced it and its raw score.
type RetrievedCandidate struct {
	Employee *Employee
	Source   RetrievalSource
	Score    float64 // Similarity or match score, strategy-scoped
}

// RetrievalSource identifies which retrieval strategy produced a candidate.
type RetrievalSource int

const (
	// SourceStructured is the structured-filter query over the system of record.
	SourceStructured RetrievalSource = iota + 1
	// SourceVector is the similarity query over cached embeddings.
	SourceVector
	// SourceKeyword is the substring fallback query.
	SourceKeyword
)
