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


// Package compress produces compact fixed-field encodings of employee
// records for low-footprint transmission to the reasoning ranker.
// Generation is idempotent: an unchanged employee under unchanged
// codebooks compresses to an identical line.
package compress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/codebook"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store"
)

const (
	// ProfilePrefix scopes compact profile keys so rebuilds can clear them
	// without flushing unrelated cache entries.
	ProfilePrefix = "profile:"

	// IDSetKey is the introspection marker listing every compressed ID.
	IDSetKey = "profiles:ids"

	profileTTL = 24 * time.Hour
)

var (
	ErrStoreRequired    = errors.New("store is required")
	ErrCacheRequired    = errors.New("cache manager is required")
	ErrCodebookRequired = errors.New("codebook service is required")
)

// Service generates and caches compressed profiles.
type Service struct {
	store  store.Reader
	cache  *cache.Manager
	books  *codebook.Service
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a compression service.
func NewService(st store.Reader, cm *cache.Manager, books *codebook.Service, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, ErrStoreRequired
	}
	if cm == nil {
		return nil, ErrCacheRequired
	}
	if books == nil {
		return nil, ErrCodebookRequired
	}

	s := &Service{
		store:  st,
		cache:  cm,
		books:  books,
		logger: slog.Default().With("component", "compress"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ProfileKey returns the cache key for one employee's compact profile.
func ProfileKey(id core.ID) string {
	return ProfilePrefix + strconv.FormatInt(int64(id), 10)
}

// Generate compresses a single employee under the current codebooks. It does
// not touch the cache; BatchGet and RebuildAll own persistence.
func (s *Service) Generate(ctx context.Context, emp *core.Employee) (*core.CompressedProfile, error) {
	if err := core.ValidateEmployee(emp); err != nil {
		return nil, err
	}

	books := s.books.Get(ctx)

	codes := make([]core.DeploymentCode, 0, len(emp.Engagements))
	projects := make([]string, 0, len(emp.Engagements))
	for _, e := range emp.Engagements {
		codes = append(codes, core.ClassifyStatus(e.StatusLabel, e.Client))
		if p := strings.TrimSpace(e.Project); p != "" {
			projects = append(projects, lookupCode(books.Projects, p))
		}
	}

	profile := &core.CompressedProfile{
		EmployeeID:        emp.ID,
		Name:              emp.Name,
		SkillVariants:     NormalizeSkills(emp.Skills),
		DepartmentCode:    lookupCode(books.Departments, emp.Department),
		DesignationCode:   lookupCode(books.Designations, emp.Designation),
		LocationCode:      lookupCode(books.Locations, emp.Location),
		Location:          emp.Location,
		Designation:       emp.Designation,
		ProjectCodes:      projects,
		EngagementCodes:   codes,
		Engagements:       emp.Engagements,
		DeploymentSummary: summarizeCodes(codes),
		ExperienceYears:   ParseExperienceYears(emp.TotalExperience, emp.RelevantExperience),
		GeneratedAt:       time.Now().UTC(),
	}
	profile.Line = encodeLine(profile)
	return profile, nil
}

// BatchGet returns compact profiles for the given IDs, reading the cache
// first and generating misses from the store on the fly. Missing employees
// are skipped. Concurrent duplicate generation is harmless.
func (s *Service) BatchGet(ctx context.Context, ids []core.ID) ([]*core.CompressedProfile, error) {
	out := make([]*core.CompressedProfile, 0, len(ids))
	var misses []core.ID

	for _, id := range ids {
		var profile core.CompressedProfile
		if s.cache.Get(ctx, ProfileKey(id), &profile) {
			out = append(out, &profile)
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) == 0 {
		return out, nil
	}

	employees, err := s.store.GetEmployees(ctx, misses...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %d employees: %w", core.ErrUpstreamUnavailable, len(misses), err)
	}

	for _, emp := range employees {
		profile, err := s.Generate(ctx, emp)
		if err != nil {
			s.logger.Warn("skipping employee that failed compression", "id", emp.ID, "err", err)
			continue
		}
		s.cache.Set(ctx, ProfileKey(emp.ID), profile, profileTTL)
		s.cache.AddToSet(ctx, IDSetKey, strconv.FormatInt(int64(emp.ID), 10))
		out = append(out, profile)
	}

	s.logger.Debug("batch get", "requested", len(ids), "cached", len(ids)-len(misses), "generated", len(employees))
	return out, nil
}

// Invalidate drops every cached profile and the id-set marker. Profiles
// regenerate lazily on the next BatchGet, so this is the cheap way to
// retire a codebook generation without an eager rebuild.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.DeletePrefix(ctx, ProfilePrefix)
	s.cache.Delete(ctx, IDSetKey)
}

// RebuildAll rebuilds the codebooks, clears every prior compact profile via
// a scoped prefix delete, regenerates all employees, and republishes the
// id-set marker.
func (s *Service) RebuildAll(ctx context.Context) (int, error) {
	if _, err := s.books.Rebuild(ctx); err != nil {
		return 0, fmt.Errorf("codebook rebuild: %w", err)
	}

	s.Invalidate(ctx)

	employees, err := s.store.AllEmployees(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: loading all employees: %w", core.ErrUpstreamUnavailable, err)
	}

	count := 0
	for _, emp := range employees {
		profile, err := s.Generate(ctx, emp)
		if err != nil {
			s.logger.Warn("skipping employee that failed compression", "id", emp.ID, "err", err)
			continue
		}
		s.cache.Set(ctx, ProfileKey(emp.ID), profile, profileTTL)
		s.cache.AddToSet(ctx, IDSetKey, strconv.FormatInt(int64(emp.ID), 10))
		count++
	}

	s.logger.Info("compressed profiles rebuilt", "count", count)
	return count, nil
}

// lookupCode resolves a raw value through a codebook map, deriving a code
// for values the current generation has not seen.
func lookupCode(book map[string]string, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if code, ok := book[raw]; ok {
		return code
	}
	return codebook.Acronym(raw, codebook.DefaultMaxCodeLen)
}

// summarizeCodes aggregates per-engagement codes: one distinct value stands
// alone, two are dash-joined, more collapse to "mixed".
func summarizeCodes(codes []core.DeploymentCode) string {
	var distinct []string
	seen := map[core.DeploymentCode]bool{}
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			distinct = append(distinct, string(c))
		}
	}

	switch len(distinct) {
	case 0:
		return string(core.DeployFree)
	case 1:
		return distinct[0]
	case 2:
		return distinct[0] + "-" + distinct[1]
	default:
		return "mixed"
	}
}

// encodeLine emits the pipe-delimited compact string. Field order is part
// of the reasoning-ranker contract; do not reorder.
func encodeLine(p *core.CompressedProfile) string {
	fields := []string{
		strconv.FormatInt(int64(p.EmployeeID), 10),
		scrub(p.Name),
		p.DesignationCode,
		p.DepartmentCode,
		p.LocationCode,
		strconv.FormatFloat(p.ExperienceYears, 'f', 1, 64),
		strings.Join(p.SkillVariants, ","),
		p.DeploymentSummary,
		strings.Join(p.ProjectCodes, ","),
	}
	return strings.Join(fields, "|")
}

// scrub keeps free text from breaking the pipe-delimited encoding.
func scrub(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "|", "/"))
}
