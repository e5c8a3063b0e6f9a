package memory

import (
	"context"
	"testing"

	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Add(
		&core.Employee{
			ID: 1, Name: "Asha Rao", Department: "Engineering", Designation: "Senior Engineer",
			Location: "Pune", Skills: "Python, Django, AWS",
			Engagements: []core.Engagement{
				{StatusLabel: "Billable", Occupancy: 80, Client: "Globex", Project: "Apollo"},
			},
		},
		&core.Employee{
			ID: 2, Name: "Ben Kim", Department: "Engineering", Designation: "Engineer",
			Location: "Bangalore", Skills: "Java, Spring",
		},
		&core.Employee{
			ID: 3, Name: "Cara Diaz", Department: "Data", Designation: "Data Scientist",
			Location: "Pune", Skills: "Python, ML, TensorFlow",
		},
	))
	return s
}

func TestStore_GetEmployee(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	emp, err := s.GetEmployee(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", emp.Name)

	_, err = s.GetEmployee(ctx, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_GetEmployees_SkipsMissing(t *testing.T) {
	s := seed(t)
	employees, err := s.GetEmployees(context.Background(), 1, 99, 3)
	require.NoError(t, err)
	assert.Len(t, employees, 2)
}

func TestStore_DistinctValues(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	departments, err := s.DistinctValues(ctx, store.DimensionDepartment)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Engineering"}, departments)

	projects, err := s.DistinctValues(ctx, store.DimensionProject)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apollo"}, projects)

	_, err = s.DistinctValues(ctx, "bogus")
	assert.ErrorIs(t, err, store.ErrInvalidDimension)
}

func TestStore_QueryEmployees(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	t.Run("department equality", func(t *testing.T) {
		got, err := s.QueryEmployees(ctx, store.Filter{Department: "engineering"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("skills substring or", func(t *testing.T) {
		got, err := s.QueryEmployees(ctx, store.Filter{SkillsAny: []string{"python"}})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("project join", func(t *testing.T) {
		got, err := s.QueryEmployees(ctx, store.Filter{ProjectContains: "apollo"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, core.ID(1), got[0].ID)
	})

	t.Run("conjunction narrows", func(t *testing.T) {
		got, err := s.QueryEmployees(ctx, store.Filter{Department: "Engineering", Location: "Bangalore"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, core.ID(2), got[0].ID)
	})

	t.Run("empty filter returns all", func(t *testing.T) {
		got, err := s.QueryEmployees(ctx, store.Filter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestStore_SearchKeyword(t *testing.T) {
	s := seed(t)
	got, err := s.SearchKeyword(context.Background(), []string{"tensorflow", "spring"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
