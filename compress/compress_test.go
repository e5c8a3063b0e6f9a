package compress

import (
	"context"
	"testing"

	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/codebook"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *cache.Manager) {
	t.Helper()

	st := memory.NewStore()
	cm, err := cache.NewManager(cache.NewLocalBackend())
	require.NoError(t, err)
	t.Cleanup(func() { cm.Close() })

	books, err := codebook.NewService(st, cm)
	require.NoError(t, err)

	svc, err := NewService(st, cm, books)
	require.NoError(t, err)
	return svc, st, cm
}

func sampleEmployee() *core.Employee {
	return &core.Employee{
		ID:                 101,
		Name:               "Asha Rao",
		Department:         "Data Engineering",
		Designation:        "Senior Engineer",
		Location:           "Pune",
		Skills:             "Python, Machine Learning, node.js",
		TotalExperience:    "",
		RelevantExperience: "3Y 6M",
		Engagements: []core.Engagement{
			{StatusLabel: "Billable", Occupancy: 80, Client: "Acme", Project: "Apollo"},
			{StatusLabel: "Shadow resource", Occupancy: 20, Client: "Acme", Project: "Apollo"},
		},
	}
}

func TestGenerate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	profile, err := svc.Generate(ctx, sampleEmployee())
	require.NoError(t, err)

	t.Run("experience prefers secondary when primary blank", func(t *testing.T) {
		assert.Equal(t, 3.5, profile.ExperienceYears)
	})

	t.Run("engagements classified", func(t *testing.T) {
		assert.Equal(t, []core.DeploymentCode{core.DeployClient, core.DeployShadow}, profile.EngagementCodes)
		assert.Equal(t, "client-shadow", profile.DeploymentSummary)
	})

	t.Run("skills normalized", func(t *testing.T) {
		assert.Contains(t, profile.SkillVariants, "python")
		assert.Contains(t, profile.SkillVariants, "machine learning")
		assert.Contains(t, profile.SkillVariants, "machinelearning")
		assert.Contains(t, profile.SkillVariants, "nodejs")
	})

	t.Run("line carries the experience field", func(t *testing.T) {
		assert.Contains(t, profile.Line, "|3.5|")
	})
}

func TestGenerateIdempotent(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	emp := sampleEmployee()
	require.NoError(t, st.Add(emp))
	_, err := svc.Generate(ctx, emp)
	require.NoError(t, err)

	first, err := svc.Generate(ctx, emp)
	require.NoError(t, err)
	second, err := svc.Generate(ctx, emp)
	require.NoError(t, err)

	assert.Equal(t, first.Line, second.Line)
	assert.Equal(t, first.SkillVariants, second.SkillVariants)
}

func TestGenerateRejectsInvalid(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Generate(context.Background(), &core.Employee{Name: "no id"})
	assert.Error(t, err)
}

func TestBatchGet(t *testing.T) {
	svc, st, cm := newTestService(t)
	ctx := context.Background()

	emp := sampleEmployee()
	require.NoError(t, st.Add(emp))

	t.Run("generates misses from the store", func(t *testing.T) {
		profiles, err := svc.BatchGet(ctx, []core.ID{101, 999})
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, core.ID(101), profiles[0].EmployeeID)
	})

	t.Run("second read hits the cache", func(t *testing.T) {
		var cached core.CompressedProfile
		require.True(t, cm.Get(ctx, ProfileKey(101), &cached))

		profiles, err := svc.BatchGet(ctx, []core.ID{101})
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, cached.Line, profiles[0].Line)
	})

	t.Run("id marker published", func(t *testing.T) {
		members := cm.SetMembers(ctx, IDSetKey)
		assert.Contains(t, members, "101")
	})
}

func TestRebuildAll(t *testing.T) {
	svc, st, cm := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.Add(sampleEmployee()))
	require.NoError(t, st.Add(&core.Employee{
		ID: 102, Name: "Ben Kim", Department: "Data Engineering",
		Designation: "Engineer", Location: "Bangalore", Skills: "Java",
	}))

	// Plant a stale profile that the rebuild must clear
	cm.Set(ctx, ProfileKey(777), &core.CompressedProfile{EmployeeID: 777}, 0)

	count, err := svc.RebuildAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var stale core.CompressedProfile
	assert.False(t, cm.Get(ctx, ProfileKey(777), &stale))

	var rebuilt core.CompressedProfile
	require.True(t, cm.Get(ctx, ProfileKey(101), &rebuilt))
	// Codebooks were rebuilt first, so codes come from the new generation
	assert.Equal(t, "DE", rebuilt.DepartmentCode)
}

func TestInvalidateDropsEveryProfile(t *testing.T) {
	svc, st, cm := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.Add(sampleEmployee()))

	profiles, err := svc.BatchGet(ctx, []core.ID{101})
	require.NoError(t, err)
	require.Len(t, profiles, 1)

	svc.Invalidate(ctx)

	var cached core.CompressedProfile
	assert.False(t, cm.Get(ctx, ProfileKey(101), &cached))
	assert.Empty(t, cm.SetMembers(ctx, IDSetKey))

	// Regeneration picks up whatever codebooks are current
	profiles, err = svc.BatchGet(ctx, []core.ID{101})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
}

func TestSummarizeCodes(t *testing.T) {
	tests := []struct {
		name  string
		codes []core.DeploymentCode
		want  string
	}{
		{"no engagements", nil, "free"},
		{"single", []core.DeploymentCode{core.DeployClient}, "client"},
		{"repeated single", []core.DeploymentCode{core.DeployClient, core.DeployClient}, "client"},
		{"two", []core.DeploymentCode{core.DeployClient, core.DeployShadow}, "client-shadow"},
		{"three", []core.DeploymentCode{core.DeployClient, core.DeployShadow, core.DeployFree}, "mixed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summarizeCodes(tt.codes))
		})
	}
}
