// Package memory provides an in-process store.Reader backed by a map,
// used by tests and the seeder.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store"
)

// Store is an in-memory store.Reader. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	employees map[core.ID]*core.Employee
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{employees: make(map[core.ID]*core.Employee)}
}

var _ store.Reader = (*Store)(nil)

// Add inserts or replaces employees. Not part of store.Reader: the system
// of record is read-only to the matching core, but tests and the seeder
// need a way in.
func (s *Store) Add(employees ...*core.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, emp := range employees {
		if err := core.ValidateEmployee(emp); err != nil {
			return err
		}
		s.employees[emp.ID] = emp
	}
	return nil
}

// GetEmployee retrieves a single employee.
func (s *Store) GetEmployee(_ context.Context, id core.ID) (*core.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", store.ErrNotFound, id)
	}
	return emp, nil
}

// GetEmployees retrieves multiple employees, skipping missing IDs.
func (s *Store) GetEmployees(_ context.Context, ids ...core.ID) ([]*core.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Employee, 0, len(ids))
	for _, id := range ids {
		if emp, ok := s.employees[id]; ok {
			out = append(out, emp)
		}
	}
	return out, nil
}

// AllEmployeeIDs returns every ID in ascending order.
func (s *Store) AllEmployeeIDs(_ context.Context) ([]core.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]core.ID, 0, len(s.employees))
	for id := range s.employees {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// AllEmployees returns every employee in ID order.
func (s *Store) AllEmployees(ctx context.Context) ([]*core.Employee, error) {
	ids, _ := s.AllEmployeeIDs(ctx)
	return s.GetEmployees(ctx, ids...)
}

// DistinctValues returns the distinct non-empty raw values of a dimension.
func (s *Store) DistinctValues(_ context.Context, dim store.Dimension) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	for _, emp := range s.employees {
		switch dim {
		case store.DimensionDepartment:
			seen[emp.Department] = true
		case store.DimensionDesignation:
			seen[emp.Designation] = true
		case store.DimensionLocation:
			seen[emp.Location] = true
		case store.DimensionProject:
			for _, e := range emp.Engagements {
				seen[e.Project] = true
			}
		default:
			return nil, fmt.Errorf("%w: %q", store.ErrInvalidDimension, dim)
		}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		if v != "" {
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values, nil
}

// QueryEmployees runs the structured-filter query.
func (s *Store) QueryEmployees(_ context.Context, f store.Filter) ([]*core.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*core.Employee
	for _, emp := range s.employees {
		if matches(emp, f) {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SearchKeyword returns employees whose skills, designation or department
// contain any term.
func (s *Store) SearchKeyword(_ context.Context, terms []string) ([]*core.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*core.Employee
	for _, emp := range s.employees {
		haystack := strings.ToLower(emp.Skills + " " + emp.Designation + " " + emp.Department)
		for _, term := range terms {
			if term != "" && strings.Contains(haystack, strings.ToLower(term)) {
				out = append(out, emp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func matches(emp *core.Employee, f store.Filter) bool {
	eq := func(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }
	contains := func(haystack, needle string) bool {
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}

	if f.Department != "" && !eq(emp.Department, f.Department) {
		return false
	}
	if f.Designation != "" && !contains(emp.Designation, f.Designation) {
		return false
	}
	if f.Location != "" && !eq(emp.Location, f.Location) {
		return false
	}
	if f.NameContains != "" && !contains(emp.Name, f.NameContains) {
		return false
	}
	if f.ProjectContains != "" {
		found := false
		for _, e := range emp.Engagements {
			if contains(e.Project, f.ProjectContains) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.SkillsAny) > 0 {
		found := false
		for _, skill := range f.SkillsAny {
			if skill != "" && contains(emp.Skills, skill) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
