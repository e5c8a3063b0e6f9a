package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/talentmatch/ai/mock"
	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/embedcache"
	"github.com/poiesic/talentmatch/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	engine   *Engine
	store    *memory.Store
	cache    *cache.Manager
	embedder *mock.MockEmbedder
	parser   *mock.MockFilterParser
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := memory.NewStore()
	cm, err := cache.NewManager(cache.NewLocalBackend())
	require.NoError(t, err)
	t.Cleanup(func() { cm.Close() })

	embedder := mock.NewMockEmbedder()
	embeds, err := embedcache.NewService(st, cm, embedder)
	require.NoError(t, err)

	parser := mock.NewMockFilterParser()
	engine, err := NewEngine(st, parser, embeds, cm)
	require.NoError(t, err)

	return &testEnv{engine: engine, store: st, cache: cm, embedder: embedder, parser: parser}
}

func seedPool(t *testing.T, env *testEnv) {
	t.Helper()
	require.NoError(t, env.store.Add(
		&core.Employee{
			ID: 1, Name: "Asha Rao", Department: "Data Engineering",
			Designation: "Senior Engineer", Location: "Pune",
			Skills: "Python, Django, AWS", TotalExperience: "5Y",
			Engagements: []core.Engagement{{StatusLabel: "bench", Occupancy: 0}},
		},
		&core.Employee{
			ID: 2, Name: "Ben Kim", Department: "Platform",
			Designation: "Engineer", Location: "Bangalore",
			Skills: "Java, Spring", TotalExperience: "3Y",
			Engagements: []core.Engagement{{StatusLabel: "billable", Occupancy: 100, Client: "Acme", Project: "Apollo"}},
		},
		&core.Employee{
			ID: 3, Name: "Cara Diaz", Department: "Data Engineering",
			Designation: "Engineer", Location: "Pune",
			Skills: "Python, Machine Learning, TensorFlow", TotalExperience: "2Y",
		},
	))
}

func TestRetrieveStrictRunsStructuredOnly(t *testing.T) {
	env := newTestEnv(t)
	seedPool(t, env)
	ctx := context.Background()

	filters := core.NewParsedFilters()
	filters.Deployment = string(core.DeployFree)

	candidates, err := env.engine.Retrieve(ctx, "free people", filters)
	require.NoError(t, err)

	for _, c := range candidates {
		assert.Equal(t, core.SourceStructured, c.Source)
	}
	assert.Zero(t, env.embedder.CallCount(), "vector arm must not run for strict filters")

	t.Run("zero matches stay structured-only", func(t *testing.T) {
		f := core.NewParsedFilters()
		f.Deployment = string(core.DeployTraining)

		candidates, err := env.engine.Retrieve(ctx, "people in training", f)
		require.NoError(t, err)
		assert.Empty(t, candidates)
		assert.Zero(t, env.embedder.CallCount())
	})
}

func TestRetrieveHybridFanOut(t *testing.T) {
	env := newTestEnv(t)
	seedPool(t, env)
	ctx := context.Background()

	_, err := env.engine.embeds.PrecomputeAll(ctx)
	require.NoError(t, err)

	filters := core.NewParsedFilters()
	filters.Skills = []string{"python"}

	candidates, err := env.engine.Retrieve(ctx, "python developers", filters)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Positive(t, env.embedder.CallCount(), "vector arm should run for loose filters")

	seen := map[core.ID]bool{}
	for _, c := range candidates {
		assert.False(t, seen[c.Employee.ID], "duplicate id %d", c.Employee.ID)
		seen[c.Employee.ID] = true
	}
}

func TestRetrieveExperienceBounds(t *testing.T) {
	env := newTestEnv(t)
	seedPool(t, env)
	ctx := context.Background()

	filters := core.NewParsedFilters()
	filters.Skills = []string{"python"}
	filters.ExperienceMin = 4

	candidates, err := env.engine.Retrieve(ctx, "experienced python", filters)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, core.ID(1), candidates[0].Employee.ID)
}

func TestMerge(t *testing.T) {
	env := newTestEnv(t)

	emp := func(id core.ID, location string) *core.Employee {
		return &core.Employee{ID: id, Name: "E", Location: location}
	}

	t.Run("dedupes with structured priority", func(t *testing.T) {
		structured := []core.RetrievedCandidate{{Employee: emp(1, "Pune"), Source: core.SourceStructured}}
		vector := []core.RetrievedCandidate{
			{Employee: emp(1, "Pune"), Source: core.SourceVector, Score: 0.9},
			{Employee: emp(2, "Pune"), Source: core.SourceVector, Score: 0.8},
		}
		keyword := []core.RetrievedCandidate{
			{Employee: emp(2, "Pune"), Source: core.SourceKeyword},
			{Employee: emp(3, "Pune"), Source: core.SourceKeyword},
		}

		merged := env.engine.Merge(structured, vector, keyword, nil)
		require.Len(t, merged, 3)
		assert.Equal(t, core.SourceStructured, merged[0].Source)
		assert.Equal(t, core.SourceVector, merged[1].Source)
		assert.Equal(t, core.SourceKeyword, merged[2].Source)
	})

	t.Run("location post-filter applies to vector and keyword arms", func(t *testing.T) {
		filters := core.NewParsedFilters()
		filters.Location = "Pune"

		structured := []core.RetrievedCandidate{{Employee: emp(1, "Bangalore"), Source: core.SourceStructured}}
		vector := []core.RetrievedCandidate{{Employee: emp(2, "Bangalore"), Source: core.SourceVector}}
		keyword := []core.RetrievedCandidate{{Employee: emp(3, "Pune"), Source: core.SourceKeyword}}

		merged := env.engine.Merge(structured, vector, keyword, filters)
		require.Len(t, merged, 2)
		assert.Equal(t, core.ID(1), merged[0].Employee.ID)
		assert.Equal(t, core.ID(3), merged[1].Employee.ID)
	})
}

func TestParse(t *testing.T) {
	env := newTestEnv(t)
	seedPool(t, env)
	ctx := context.Background()

	t.Run("parser failure degrades to empty filters", func(t *testing.T) {
		env.parser.ParseQueryFunc = func(ctx context.Context, query string) (*core.ParsedFilters, error) {
			return nil, errors.New("parser down")
		}
		defer env.parser.Reset()

		result := env.engine.Parse(ctx, "python developers")
		assert.True(t, result.Degraded())
		require.NotNil(t, result.Filters)
		assert.True(t, result.Filters.Empty())
	})

	t.Run("invalid deployment cleared", func(t *testing.T) {
		env.parser.ParseQueryFunc = func(ctx context.Context, query string) (*core.ParsedFilters, error) {
			f := core.NewParsedFilters()
			f.Deployment = "on-vacation"
			return f, nil
		}
		defer env.parser.Reset()

		result := env.engine.Parse(ctx, "anyone on vacation")
		assert.False(t, result.Degraded())
		assert.Empty(t, result.Filters.Deployment)
	})

	t.Run("unknown location dropped via gazetteer", func(t *testing.T) {
		env.parser.ParseQueryFunc = func(ctx context.Context, query string) (*core.ParsedFilters, error) {
			f := core.NewParsedFilters()
			f.Location = "Kubernetes"
			return f, nil
		}
		defer env.parser.Reset()

		result := env.engine.Parse(ctx, "kubernetes people")
		assert.Empty(t, result.Filters.Location)
	})

	t.Run("known location kept", func(t *testing.T) {
		env.parser.ParseQueryFunc = func(ctx context.Context, query string) (*core.ParsedFilters, error) {
			f := core.NewParsedFilters()
			f.Location = "Pune"
			return f, nil
		}
		defer env.parser.Reset()

		result := env.engine.Parse(ctx, "people in pune")
		assert.Equal(t, "pune", result.Filters.Location)
	})
}
