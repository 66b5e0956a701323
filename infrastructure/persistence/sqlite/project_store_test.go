package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ideagraph/application/ports"
	"ideagraph/domain/core/aggregates"
	"ideagraph/domain/core/entities"
	"ideagraph/domain/core/valueobjects"
	pkgerrors "ideagraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *ProjectStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ideagraph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewProjectStore(db, zap.NewNop())
}

func newProject(t *testing.T, owner, name string) *aggregates.Project {
	t.Helper()
	p, err := aggregates.NewProject(owner, name,
		[]entities.Node{{ID: "root", Label: "Idea", Position: valueobjects.Position{X: 10, Y: 20}}},
		[]entities.Edge{},
	)
	require.NoError(t, err)
	return p
}

func TestProjectStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := newProject(t, "alice", "sqlite")
	p.SetOpportunity(valueobjects.Opportunity{Market: "Retail", Type: "SaaS", Competitors: []string{"Shopify"}, Trend: "AI"})

	require.NoError(t, store.Create(ctx, p))

	loaded, err := store.Get(ctx, p.ID(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", loaded.Name())
	assert.Equal(t, 1, loaded.Version())
	assert.Equal(t, p.Nodes(), loaded.Nodes())
	assert.Equal(t, p.Opportunity(), loaded.Opportunity())

	assert.True(t, pkgerrors.IsConflict(store.Create(ctx, p)))

	_, err = store.Get(ctx, p.ID(), "mallory")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProjectStore_SaveVersionCheck(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := newProject(t, "alice", "versions")
	require.NoError(t, store.Create(ctx, p))

	a, err := store.Get(ctx, p.ID(), "alice")
	require.NoError(t, err)
	b, err := store.Get(ctx, p.ID(), "alice")
	require.NoError(t, err)

	_, err = a.AddChild("root", entities.Node{ID: "a", Label: "A"})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, a))
	assert.Equal(t, 2, a.Version())

	_, err = b.AddChild("root", entities.Node{ID: "b", Label: "B"})
	require.NoError(t, err)
	assert.ErrorIs(t, store.Save(ctx, b), ports.ErrVersionConflict)

	missing := newProject(t, "alice", "never stored")
	assert.True(t, pkgerrors.IsNotFound(store.Save(ctx, missing)))
}

func TestProjectStore_ConcurrentSavesOneWins(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := newProject(t, "alice", "race")
	require.NoError(t, store.Create(ctx, p))

	const writers = 4
	copies := make([]*aggregates.Project, writers)
	for i := range copies {
		c, err := store.Get(ctx, p.ID(), "alice")
		require.NoError(t, err)
		_, err = c.AddChild("root", entities.Node{ID: string(rune('a' + i)), Label: "child"})
		require.NoError(t, err)
		copies[i] = c
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range copies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Save(ctx, copies[i])
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ports.ErrVersionConflict)
	}
	assert.Equal(t, 1, wins)
}

func TestProjectStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	older := newProject(t, "alice", "older")
	require.NoError(t, store.Create(ctx, older))
	time.Sleep(2 * time.Millisecond)
	newer := newProject(t, "alice", "newer")
	require.NoError(t, store.Create(ctx, newer))
	require.NoError(t, store.Create(ctx, newProject(t, "bob", "not mine")))

	list, err := store.List(ctx, "alice")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name())
	assert.Equal(t, "older", list[1].Name())
}
