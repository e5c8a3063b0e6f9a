package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/poiesic/talentmatch/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id                  BIGINT PRIMARY KEY,
	name                TEXT NOT NULL,
	department          TEXT NOT NULL DEFAULT '',
	designation         TEXT NOT NULL DEFAULT '',
	location            TEXT NOT NULL DEFAULT '',
	skills              TEXT NOT NULL DEFAULT '',
	total_experience    TEXT NOT NULL DEFAULT '',
	relevant_experience TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS engagements (
	id           BIGSERIAL PRIMARY KEY,
	employee_id  BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
	status_label TEXT NOT NULL DEFAULT '',
	occupancy    DOUBLE PRECISION NOT NULL DEFAULT 0,
	client       TEXT NOT NULL DEFAULT '',
	project      TEXT NOT NULL DEFAULT '',
	start_date   TIMESTAMPTZ NOT NULL DEFAULT now(),
	end_date     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS engagements_employee_id_idx ON engagements (employee_id);
`

// EnsureSchema creates the employee and engagement tables if they do not
// exist. Intended for the seeder and local development, not migrations.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	return nil
}

// Seed upserts the given employees and replaces their engagements. Runs in
// a single transaction so a failed seed leaves the tables untouched.
func (s *Store) Seed(ctx context.Context, employees []*core.Employee) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, emp := range employees {
		if err := core.ValidateEmployee(emp); err != nil {
			return 0, fmt.Errorf("employee %d: %w", emp.ID, err)
		}
		batch.Queue(
			`INSERT INTO employees (id, name, department, designation, location, skills, total_experience, relevant_experience)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				department = EXCLUDED.department,
				designation = EXCLUDED.designation,
				location = EXCLUDED.location,
				skills = EXCLUDED.skills,
				total_experience = EXCLUDED.total_experience,
				relevant_experience = EXCLUDED.relevant_experience`,
			int64(emp.ID), emp.Name, emp.Department, emp.Designation,
			emp.Location, emp.Skills, emp.TotalExperience, emp.RelevantExperience)
		batch.Queue(`DELETE FROM engagements WHERE employee_id = $1`, int64(emp.ID))
		for _, eng := range emp.Engagements {
			batch.Queue(
				`INSERT INTO engagements (employee_id, status_label, occupancy, client, project, start_date, end_date)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				int64(emp.ID), eng.StatusLabel, eng.Occupancy, eng.Client,
				eng.Project, eng.StartDate, eng.EndDate)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}

	s.logger.Info("seeded employees", "count", len(employees))
	return len(employees), nil
}
