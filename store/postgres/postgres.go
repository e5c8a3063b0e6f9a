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


// Package postgres implements store.Reader over the upstream employee and
// engagement tables.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store"
)

// Store reads the system of record through a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to the system of record. The pool is verified with a ping
// so unreachable databases fail at startup, not on first query.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	return &Store{
		pool:   pool,
		logger: slog.Default().With("component", "postgres-store"),
	}, nil
}

var _ store.Reader = (*Store)(nil)

const employeeColumns = `e.id, e.name, e.department, e.designation, e.location,
	e.skills, e.total_experience, e.relevant_experience`

// GetEmployee retrieves a single employee with engagements.
func (s *Store) GetEmployee(ctx context.Context, id core.ID) (*core.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees e WHERE e.id = $1`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	employees, err := scanEmployees(rows)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, fmt.Errorf("%w: id %d", store.ErrNotFound, id)
	}
	if err := s.attachEngagements(ctx, employees); err != nil {
		return nil, err
	}
	return employees[0], nil
}

// GetEmployees retrieves multiple employees, skipping missing IDs.
func (s *Store) GetEmployees(ctx context.Context, ids ...core.ID) ([]*core.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees e WHERE e.id = ANY($1)`, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	employees, err := scanEmployees(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachEngagements(ctx, employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// AllEmployeeIDs returns every employee ID.
func (s *Store) AllEmployeeIDs(ctx context.Context) ([]core.ID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	defer rows.Close()

	var ids []core.ID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, core.ID(id))
	}
	return ids, rows.Err()
}

// AllEmployees returns every employee with engagements.
func (s *Store) AllEmployees(ctx context.Context) ([]*core.Employee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+employeeColumns+` FROM employees e ORDER BY e.id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	employees, err := scanEmployees(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachEngagements(ctx, employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// DistinctValues returns distinct non-empty raw values for a dimension.
func (s *Store) DistinctValues(ctx context.Context, dim store.Dimension) ([]string, error) {
	var query string
	switch dim {
	case store.DimensionDepartment:
		query = `SELECT DISTINCT department FROM employees WHERE department <> '' ORDER BY department`
	case store.DimensionDesignation:
		query = `SELECT DISTINCT designation FROM employees WHERE designation <> '' ORDER BY designation`
	case store.DimensionLocation:
		query = `SELECT DISTINCT location FROM employees WHERE location <> '' ORDER BY location`
	case store.DimensionProject:
		query = `SELECT DISTINCT project FROM engagements WHERE project <> '' ORDER BY project`
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidDimension, dim)
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// QueryEmployees runs the structured-filter query, joining engagements
// when a project predicate is present.
func (s *Store) QueryEmployees(ctx context.Context, f store.Filter) ([]*core.Employee, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Department != "" {
		conds = append(conds, `LOWER(e.department) = LOWER(`+arg(f.Department)+`)`)
	}
	if f.Designation != "" {
		conds = append(conds, `e.designation ILIKE `+arg("%"+f.Designation+"%"))
	}
	if f.Location != "" {
		conds = append(conds, `LOWER(e.location) = LOWER(`+arg(f.Location)+`)`)
	}
	if f.NameContains != "" {
		conds = append(conds, `e.name ILIKE `+arg("%"+f.NameContains+"%"))
	}
	if len(f.SkillsAny) > 0 {
		var ors []string
		for _, skill := range f.SkillsAny {
			if skill == "" {
				continue
			}
			ors = append(ors, `e.skills ILIKE `+arg("%"+skill+"%"))
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	query := `SELECT DISTINCT ` + employeeColumns + ` FROM employees e`
	if f.ProjectContains != "" {
		query += ` JOIN engagements g ON g.employee_id = e.id`
		conds = append(conds, `g.project ILIKE `+arg("%"+f.ProjectContains+"%"))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY e.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	employees, err := scanEmployees(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachEngagements(ctx, employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// SearchKeyword returns employees whose skills, designation or department
// contain any term.
func (s *Store) SearchKeyword(ctx context.Context, terms []string) ([]*core.Employee, error) {
	var (
		ors  []string
		args []any
	)
	for _, term := range terms {
		if term == "" {
			continue
		}
		args = append(args, "%"+term+"%")
		n := fmt.Sprintf("$%d", len(args))
		ors = append(ors, fmt.Sprintf("e.skills ILIKE %s OR e.designation ILIKE %s OR e.department ILIKE %s", n, n, n))
	}
	if len(ors) == 0 {
		return nil, nil
	}

	query := `SELECT ` + employeeColumns + ` FROM employees e WHERE ` +
		strings.Join(ors, " OR ") + ` ORDER BY e.id`
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	employees, err := scanEmployees(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachEngagements(ctx, employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanEmployees(rows pgx.Rows) ([]*core.Employee, error) {
	defer rows.Close()
	var employees []*core.Employee
	for rows.Next() {
		var emp core.Employee
		var id int64
		if err := rows.Scan(&id, &emp.Name, &emp.Department, &emp.Designation,
			&emp.Location, &emp.Skills, &emp.TotalExperience, &emp.RelevantExperience); err != nil {
			return nil, err
		}
		emp.ID = core.ID(id)
		employees = append(employees, &emp)
	}
	return employees, rows.Err()
}

// attachEngagements loads engagement rows for the given employees in one
// query and distributes them by employee ID.
func (s *Store) attachEngagements(ctx context.Context, employees []*core.Employee) error {
	if len(employees) == 0 {
		return nil
	}
	byID := make(map[core.ID]*core.Employee, len(employees))
	ids := make([]int64, len(employees))
	for i, emp := range employees {
		byID[emp.ID] = emp
		ids[i] = int64(emp.ID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT employee_id, status_label, occupancy, client, project, start_date, end_date
		 FROM engagements WHERE employee_id = ANY($1) ORDER BY employee_id, start_date`, ids)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			employeeID int64
			eng        core.Engagement
		)
		if err := rows.Scan(&employeeID, &eng.StatusLabel, &eng.Occupancy,
			&eng.Client, &eng.Project, &eng.StartDate, &eng.EndDate); err != nil {
			return err
		}
		if emp, ok := byID[core.ID(employeeID)]; ok {
			emp.Engagements = append(emp.Engagements, eng)
		}
	}
	return rows.Err()
}
