package store

import (
	"context"

	"github.com/poiesic/talentmatch/core"
)

// Dimension names a categorical employee attribute with its own codebook.
type Dimension string

const (
	// DimensionDepartment is the employee department attribute.
	DimensionDepartment Dimension = "department"
	// DimensionDesignation is the employee designation attribute.
	DimensionDesignation Dimension = "designation"
	// DimensionLocation is the employee location attribute.
	DimensionLocation Dimension = "location"
	// DimensionProject is the engagement project attribute.
	DimensionProject Dimension = "project"
)

// Dimensions lists every codebook dimension.
var Dimensions = []Dimension{
	DimensionDepartment, DimensionDesignation, DimensionLocation, DimensionProject,
}

// Filter is the structured query contract over the employee and engagement
// tables: equality and substring predicates plus the engagement join.
// Zero-valued fields are not applied. Deployment and experience refinement
// happen above the store, in the retrieval engine.
type Filter struct {
	Department      string   // Equality, case-insensitive
	Designation     string   // Substring, case-insensitive
	Location        string   // Equality, case-insensitive
	NameContains    string   // Substring over employee name
	ProjectContains string   // Substring over engagement project (join)
	SkillsAny       []string // Substring OR over the skills text
}

// Empty reports whether no predicate is set.
func (f Filter) Empty() bool {
	return f.Department == "" && f.Designation == "" && f.Location == "" &&
		f.NameContains == "" && f.ProjectContains == "" && len(f.SkillsAny) == 0
}

// Reader provides read access to the system of record. The pool is owned
// upstream; this module never writes employee or engagement rows.
// Implementations must be safe for concurrent use.
type Reader interface {
	// GetEmployee retrieves a single employee with engagements.
	// Returns ErrNotFound if the employee doesn't exist.
	GetEmployee(ctx context.Context, id core.ID) (*core.Employee, error)

	// GetEmployees retrieves multiple employees by ID.
	// Missing IDs are skipped, not errors.
	GetEmployees(ctx context.Context, ids ...core.ID) ([]*core.Employee, error)

	// AllEmployeeIDs returns every employee ID.
	AllEmployeeIDs(ctx context.Context) ([]core.ID, error)

	// AllEmployees returns every employee with engagements.
	AllEmployees(ctx context.Context) ([]*core.Employee, error)

	// DistinctValues returns the distinct non-empty raw values of a
	// categorical dimension, for codebook rebuilds.
	DistinctValues(ctx context.Context, dim Dimension) ([]string, error)

	// QueryEmployees runs the structured-filter query.
	QueryEmployees(ctx context.Context, f Filter) ([]*core.Employee, error)

	// SearchKeyword returns employees whose skills, designation or
	// department contain any of the given terms.
	SearchKeyword(ctx context.Context, terms []string) ([]*core.Employee, error)

	// Close releases the underlying connection resources.
	Close() error
}
