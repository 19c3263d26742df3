package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerRepo "folio/internal/domain/repositories/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
)

// stubFolders serves GetByID from a fixed map, for shapes the real stores
// refuse to hold (dangling parents, cycles).
type stubFolders struct {
	explorerRepo.FolderRepository
	byID map[string]models.Folder
}

func (s *stubFolders) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	f, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

type countingFolders struct {
	explorerRepo.FolderRepository
	lists atomic.Int32
	fail  error
}

func (c *countingFolders) ListChildren(ctx context.Context, scope models.Scope, o models.Ordering) ([]models.Folder, error) {
	c.lists.Add(1)
	if c.fail != nil {
		return nil, c.fail
	}
	return c.FolderRepository.ListChildren(ctx, scope, o)
}

func names(folders []models.Folder) []string {
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		out = append(out, f.Name)
	}
	return out
}

func TestResolvePath_LengthEqualsDepth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var parent *string
	var want []string
	for depth := 1; depth <= 5; depth++ {
		name := fmt.Sprintf("level-%d", depth)
		f := h.mkdir(t, parent, name)
		want = append(want, name)

		path, err := h.tree.ResolvePath(ctx, f.ID)
		require.NoError(t, err)
		assert.Len(t, path, depth)
		assert.Equal(t, want, names(path), "path is root first")
		assert.Equal(t, f.ID, path[len(path)-1].ID, "path ends at the folder itself")

		parent = &f.ID
	}
}

func TestResolvePath_TruncatesAtMissingAncestor(t *testing.T) {
	repo := &stubFolders{byID: map[string]models.Folder{
		"c": {ID: "c", Name: "c", ParentID: ptr("b")},
		"b": {ID: "b", Name: "b", ParentID: ptr("gone")},
	}}
	tree := NewTreeService(repo, nil, nil, testLogger())

	path, err := tree.ResolvePath(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(path))

	path, err = tree.ResolvePath(context.Background(), "gone")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestResolvePath_StopsOnCycle(t *testing.T) {
	repo := &stubFolders{byID: map[string]models.Folder{
		"a": {ID: "a", Name: "a", ParentID: ptr("b")},
		"b": {ID: "b", Name: "b", ParentID: ptr("a")},
	}}
	tree := NewTreeService(repo, nil, nil, testLogger())

	path, err := tree.ResolvePath(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, path, 2)
}

func TestLocate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	loc, err := h.tree.Locate(ctx, models.RootScope())
	require.NoError(t, err)
	assert.Nil(t, loc.FolderID)
	assert.Empty(t, loc.Path)

	a := h.mkdir(t, nil, "a")
	b := h.mkdir(t, &a.ID, "b")
	loc, err = h.tree.Locate(ctx, models.FolderScope(b.ID))
	require.NoError(t, err)
	require.NotNil(t, loc.FolderID)
	assert.Equal(t, b.ID, *loc.FolderID)
	assert.Equal(t, []string{"a", "b"}, names(loc.Path))

	_, err = h.tree.Locate(ctx, models.FolderScope("missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveChildren_ScopesAreDisjoint(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	docs := h.mkdir(t, nil, "Docs")
	h.mkdir(t, &docs.ID, "Inner")
	h.put(t, nil, "root.txt", "text/plain", "r")
	h.put(t, &docs.ID, "inner.txt", "text/plain", "i")

	root, err := h.tree.ResolveChildren(ctx, models.RootScope(), models.DefaultOrdering())
	require.NoError(t, err)
	assert.Equal(t, []string{"Docs"}, names(root.Folders))
	require.Len(t, root.Files, 1)
	assert.Equal(t, "root.txt", root.Files[0].Name)

	inside, err := h.tree.ResolveChildren(ctx, models.FolderScope(docs.ID), models.DefaultOrdering())
	require.NoError(t, err)
	assert.Equal(t, []string{"Inner"}, names(inside.Folders))
	require.Len(t, inside.Files, 1)
	assert.Equal(t, "inner.txt", inside.Files[0].Name)
}

func TestResolveChildren_Ordering(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, n := range []string{"beta", "Alpha", "alpha"} {
		h.mkdir(t, nil, n)
	}

	asc, err := h.tree.ResolveChildren(ctx, models.RootScope(), models.Ordering{Key: models.SortByName, Direction: models.SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "alpha", "beta"}, names(asc.Folders), "byte-wise collation")

	desc, err := h.tree.ResolveChildren(ctx, models.RootScope(), models.Ordering{Key: models.SortByName, Direction: models.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "alpha", "Alpha"}, names(desc.Folders))
}

func TestResolveChildren_CachedUntilInvalidated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mkdir(t, nil, "one")

	folders := &countingFolders{FolderRepository: h.store.Folders()}
	tree := NewTreeService(folders, h.store.Files(), h.cache, testLogger())

	_, err := tree.ResolveChildren(ctx, models.RootScope(), models.DefaultOrdering())
	require.NoError(t, err)
	_, err = tree.ResolveChildren(ctx, models.RootScope(), models.DefaultOrdering())
	require.NoError(t, err)
	assert.Equal(t, int32(1), folders.lists.Load())

	tree.Invalidate(models.RootScope())
	_, err = tree.ResolveChildren(ctx, models.RootScope(), models.DefaultOrdering())
	require.NoError(t, err)
	assert.Equal(t, int32(2), folders.lists.Load())
}

func TestResolveChildren_BackendFailure(t *testing.T) {
	h := newHarness(t)
	folders := &countingFolders{FolderRepository: h.store.Folders(), fail: errors.New("connection reset")}
	tree := NewTreeService(folders, h.store.Files(), nil, testLogger())

	_, err := tree.ResolveChildren(context.Background(), models.RootScope(), models.DefaultOrdering())
	assert.ErrorIs(t, err, domain.ErrBackend)
}

func TestScopeCache_DiscardsStaleFill(t *testing.T) {
	cache, err := NewScopeCache(time.Minute, nil)
	require.NoError(t, err)
	defer cache.Close()

	scope := models.FolderScope("f")
	order := models.DefaultOrdering()

	gen := cache.Generation(scope)
	cache.Invalidate(scope)
	cache.Set(scope, order, gen, &explorerSvc.Children{Scope: scope})

	_, ok := cache.Get(scope, order)
	assert.False(t, ok, "fill started before invalidation must not be served")

	cache.Set(scope, order, cache.Generation(scope), &explorerSvc.Children{Scope: scope})
	_, ok = cache.Get(scope, order)
	assert.True(t, ok)
}

func TestScopeCache_Disabled(t *testing.T) {
	cache, err := NewScopeCache(0, nil)
	require.NoError(t, err)

	cache.Set(models.RootScope(), models.DefaultOrdering(), 0, &explorerSvc.Children{})
	_, ok := cache.Get(models.RootScope(), models.DefaultOrdering())
	assert.False(t, ok)
}

func TestBrowse_ProjectsQuery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.mkdir(t, nil, "Reports")
	h.mkdir(t, nil, "Photos")
	h.put(t, nil, "report.txt", "text/plain", "x")

	view, err := models.ParseViewState("REPORT", "", "", "list")
	require.NoError(t, err)

	listing, err := Browse(ctx, h.tree, models.RootScope(), view)
	require.NoError(t, err)
	assert.Equal(t, 3, listing.Total)
	require.Len(t, listing.Entries, 2)
	assert.Equal(t, models.KindFolder, listing.Entries[0].Kind())
	assert.Equal(t, models.KindFile, listing.Entries[1].Kind())
}
