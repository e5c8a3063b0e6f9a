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


package core

import "errors"

// Failure taxonomy shared across packages. Component-local failures are
// downgraded to empty or neutral results wherever a useful degraded
// response exists; only ErrNotFound and startup configuration errors
// surface to callers.
var (
	// ErrValidation indicates malformed output from an external collaborator.
	ErrValidation = errors.New("collaborator output failed validation")

	// ErrUpstreamUnavailable indicates the system of record or cache is unreachable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrRankingDegraded indicates the reasoning collaborator failed or timed
	// out. Non-fatal: results fall back to deterministic pre-ranking.
	ErrRankingDegraded = errors.New("reasoning ranking degraded")

	// ErrNotFound indicates no candidates matched the query.
	ErrNotFound = errors.New("no candidates matched")
)

// Domain validation errors
var (
	// ErrInvalidEmployee indicates an Employee failed validation.
	ErrInvalidEmployee = errors.New("invalid employee record")

	// ErrInvalidEngagement indicates an Engagement failed validation.
	ErrInvalidEngagement = errors.New("invalid engagement")

	// ErrInvalidOccupancy indicates an occupancy outside the 0-100 range.
	ErrInvalidOccupancy = errors.New("occupancy must be between 0 and 100")

	// ErrEmptyEmployeeID indicates a missing employee ID.
	ErrEmptyEmployeeID = errors.New("employee id is required")
)
