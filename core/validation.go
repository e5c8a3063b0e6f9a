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

import (
	"fmt"
)

// ValidateEmployee validates an Employee according to domain rules.
//
// Validation rules:
//   - ID must be set
//   - every Engagement must validate
//
// NOT validated (owned by the system of record):
//   - free-text fields (Skills, experience strings) which may be blank
func ValidateEmployee(emp *Employee) error {
	if emp == nil {
		return fmt.Errorf("%w: employee is nil", ErrInvalidEmployee)
	}

	if emp.ID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmployee, ErrEmptyEmployeeID)
	}

	for i := range emp.Engagements {
		if err := ValidateEngagement(&emp.Engagements[i]); err != nil {
			return fmt.Errorf("%w: engagement %d: %w", ErrInvalidEmployee, i, err)
		}
	}

	return nil
}

// ValidateEngagement validates an Engagement according to domain rules.
//
// Validation rules:
//   - Occupancy must be within 0-100
//
// The status label is not validated: classification is total, unknown
// labels derive a short code instead of failing.
func ValidateEngagement(e *Engagement) error {
	if e == nil {
		return fmt.Errorf("%w: engagement is nil", ErrInvalidEngagement)
	}

	if e.Occupancy < 0 || e.Occupancy > 100 {
		return fmt.Errorf("%w: %w (got %.1f)", ErrInvalidEngagement, ErrInvalidOccupancy, e.Occupancy)
	}

	return nil
}
