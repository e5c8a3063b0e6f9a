package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmployee(t *testing.T) {
	t.Run("valid employee", func(t *testing.T) {
		emp := &Employee{
			ID:   42,
			Name: "A. Tester",
			Engagements: []Engagement{
				{StatusLabel: "Billable", Occupancy: 80, Client: "Globex"},
			},
		}
		require.NoError(t, ValidateEmployee(emp))
	})

	t.Run("nil employee", func(t *testing.T) {
		err := ValidateEmployee(nil)
		assert.ErrorIs(t, err, ErrInvalidEmployee)
	})

	t.Run("missing id", func(t *testing.T) {
		err := ValidateEmployee(&Employee{Name: "No ID"})
		assert.ErrorIs(t, err, ErrEmptyEmployeeID)
	})

	t.Run("invalid engagement propagates", func(t *testing.T) {
		emp := &Employee{
			ID:          7,
			Engagements: []Engagement{{StatusLabel: "Billable", Occupancy: 150}},
		}
		err := ValidateEmployee(emp)
		assert.ErrorIs(t, err, ErrInvalidOccupancy)
	})
}

func TestValidateEngagement(t *testing.T) {
	t.Run("occupancy bounds", func(t *testing.T) {
		assert.NoError(t, ValidateEngagement(&Engagement{Occupancy: 0}))
		assert.NoError(t, ValidateEngagement(&Engagement{Occupancy: 100}))
		assert.ErrorIs(t, ValidateEngagement(&Engagement{Occupancy: -1}), ErrInvalidOccupancy)
		assert.ErrorIs(t, ValidateEngagement(&Engagement{Occupancy: 101}), ErrInvalidOccupancy)
	})

	t.Run("nil engagement", func(t *testing.T) {
		assert.ErrorIs(t, ValidateEngagement(nil), ErrInvalidEngagement)
	})
}

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, IDFromContent("same input"), IDFromContent("same input"))
	})

	t.Run("distinct inputs differ", func(t *testing.T) {
		assert.NotEqual(t, IDFromContent("a"), IDFromContent("b"))
	})
}
