package core

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ExperienceUnset marks an absent experience bound in ParsedFilters.
const ExperienceUnset = -1

// ParsedFilters is the structured filter set produced by the NL->filter
// collaborator after validation. The zero value (with experience bounds
// set via NewParsedFilters) means "no filters".
type ParsedFilters struct {
	Skills        []string
	Context       string // Domain or tech context, e.g. "banking", "ml"
	ExperienceMin float64
	ExperienceMax float64
	Deployment    string // Member of the controlled deployment set, or empty
	Location      string
	Department    string
	Designation   string
	Project       string
	EmployeeName  string
}

// NewParsedFilters returns an empty filter set with unset experience bounds.
func NewParsedFilters() *ParsedFilters {
	return &ParsedFilters{
		ExperienceMin: ExperienceUnset,
		ExperienceMax: ExperienceUnset,
	}
}

// Normalize lowercases and trims every textual field and sorts skills so
// that equivalent filter sets compare and fingerprint identically.
func (f *ParsedFilters) Normalize() {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

	for i, s := range f.Skills {
		f.Skills[i] = norm(s)
	}
	sort.Strings(f.Skills)
	// Drop empty skill entries left by trimming
	cleaned := f.Skills[:0]
	for _, s := range f.Skills {
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	f.Skills = cleaned

	f.Context = norm(f.Context)
	f.Deployment = norm(f.Deployment)
	f.Location = norm(f.Location)
	f.Department = norm(f.Department)
	f.Designation = norm(f.Designation)
	f.Project = norm(f.Project)
	f.EmployeeName = norm(f.EmployeeName)
}

// Empty reports whether no filter field is set.
func (f *ParsedFilters) Empty() bool {
	return len(f.Skills) == 0 && f.Context == "" &&
		f.ExperienceMin == ExperienceUnset && f.ExperienceMax == ExperienceUnset &&
		f.Deployment == "" && f.Location == "" && f.Department == "" &&
		f.Designation == "" && f.Project == "" && f.EmployeeName == ""
}

// Strict reports whether the filter set is precise enough that only the
// structured retrieval strategy is needed: an explicit deployment status,
// an explicit project reference, or a skill combined with a minimum
// experience bound.
func (f *ParsedFilters) Strict() bool {
	if f.Deployment != "" || f.Project != "" {
		return true
	}
	return len(f.Skills) > 0 && f.ExperienceMin != ExperienceUnset
}

// Fingerprint returns a canonical, order-independent hash of the
// normalized filter set, used as the ranked-result cache key.
func (f *ParsedFilters) Fingerprint() string {
	g := *f
	g.Skills = append([]string(nil), f.Skills...)
	g.Normalize()

	canonical := strings.Join([]string{
		strings.Join(g.Skills, ","),
		g.Context,
		fmt.Sprintf("%.1f", g.ExperienceMin),
		fmt.Sprintf("%.1f", g.ExperienceMax),
		g.Deployment,
		g.Location,
		g.Department,
		g.Designation,
		g.Project,
		g.EmployeeName,
	}, "|")

	h, _ := blake2b.New(16, nil)
	h.Write([]byte(canonical))
	return hex.EncodeToString(h.Sum(nil))
}
