package embedcache

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/talentmatch/ai/mock"
	"github.com/poiesic/talentmatch/cache"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *memory.Store, *cache.Manager, *mock.MockEmbedder) {
	t.Helper()

	st := memory.NewStore()
	cm, err := cache.NewManager(cache.NewLocalBackend())
	require.NoError(t, err)
	t.Cleanup(func() { cm.Close() })

	embedder := mock.NewMockEmbedder()
	svc, err := NewService(st, cm, embedder)
	require.NoError(t, err)
	return svc, st, cm, embedder
}

func seed(t *testing.T, st *memory.Store, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		require.NoError(t, st.Add(&core.Employee{
			ID: core.ID(i), Name: "Emp", Department: "Eng",
			Designation: "Engineer", Location: "Pune", Skills: "Python",
		}))
	}
}

func TestPrecomputeAll(t *testing.T) {
	svc, st, cm, _ := newTestService(t)
	ctx := context.Background()
	seed(t, st, 7)

	count, err := svc.PrecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	t.Run("vectors stored", func(t *testing.T) {
		var entry EntityEmbedding
		require.True(t, cm.Get(ctx, EntityKey(1), &entry))
		assert.Equal(t, core.ID(1), entry.EmployeeID)
		assert.NotEmpty(t, entry.Vector)
		assert.NotEmpty(t, entry.Snapshot)
	})

	t.Run("metadata recorded", func(t *testing.T) {
		meta, ok := svc.Metadata(ctx)
		require.True(t, ok)
		assert.Equal(t, 7, meta.Count)
		assert.Equal(t, 384, meta.Dimensions)
	})

	t.Run("marker cleared", func(t *testing.T) {
		var marker bool
		assert.False(t, cm.Get(ctx, RebuildMarkerKey, &marker))
	})
}

func TestPrecomputeAllClearsMarkerOnFailure(t *testing.T) {
	svc, st, cm, embedder := newTestService(t)
	ctx := context.Background()
	seed(t, st, 3)

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedder down")
	}

	_, err := svc.PrecomputeAll(ctx)
	require.Error(t, err)

	var marker bool
	assert.False(t, cm.Get(ctx, RebuildMarkerKey, &marker))
}

func TestQueryEmbedding(t *testing.T) {
	svc, _, cm, embedder := newTestService(t)
	ctx := context.Background()

	t.Run("computes and caches", func(t *testing.T) {
		first, ok, err := svc.QueryEmbedding(ctx, "python developers in Pune")
		require.NoError(t, err)
		require.True(t, ok)
		require.NotEmpty(t, first)

		calls := embedder.CallCount()
		second, ok, err := svc.QueryEmbedding(ctx, "  Python   developers in pune ")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first, second)
		assert.Equal(t, calls, embedder.CallCount(), "normalized repeat must hit the cache")
	})

	t.Run("miss during rebuild returns none immediately", func(t *testing.T) {
		cm.Set(ctx, RebuildMarkerKey, true, 0)
		defer cm.Delete(ctx, RebuildMarkerKey)

		vec, ok, err := svc.QueryEmbedding(ctx, "a query never seen before")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, vec)
	})

	t.Run("embedder failure surfaces", func(t *testing.T) {
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedder down")
		}
		defer func() { embedder.EmbedTextFunc = nil }()

		_, ok, err := svc.QueryEmbedding(ctx, "another unseen query")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestAllEntityEmbeddings(t *testing.T) {
	svc, st, cm, _ := newTestService(t)
	ctx := context.Background()
	seed(t, st, 4)

	_, err := svc.PrecomputeAll(ctx)
	require.NoError(t, err)

	t.Run("returns every vector", func(t *testing.T) {
		entries, err := svc.AllEntityEmbeddings(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 4)
	})

	t.Run("skips corrupt entries", func(t *testing.T) {
		// Overwrite one entry with a shape that fails to decode
		cm.Set(ctx, EntityKey(2), "not an embedding", 0)

		entries, err := svc.AllEntityEmbeddings(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
}

func TestInvalidate(t *testing.T) {
	svc, st, cm, _ := newTestService(t)
	ctx := context.Background()
	seed(t, st, 2)

	_, err := svc.PrecomputeAll(ctx)
	require.NoError(t, err)

	svc.Invalidate(ctx)

	var entry EntityEmbedding
	assert.False(t, cm.Get(ctx, EntityKey(1), &entry))
	_, ok := svc.Metadata(ctx)
	assert.False(t, ok)

	entries, err := svc.AllEntityEmbeddings(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
