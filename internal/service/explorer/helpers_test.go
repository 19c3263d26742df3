package explorer

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"folio/internal/config"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/domain/storage"
	"folio/internal/repository/memory"
	serviceAuth "folio/internal/service/auth"
	"folio/internal/session"
	memstorage "folio/internal/storage/memory"
)

type recordingNotifier struct {
	mu     sync.Mutex
	scopes [][]models.Scope
}

func (n *recordingNotifier) ScopesInvalidated(scopes []models.Scope) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scopes = append(n.scopes, scopes)
}

func (n *recordingNotifier) last() []models.Scope {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.scopes) == 0 {
		return nil
	}
	return n.scopes[len(n.scopes)-1]
}

type harness struct {
	store    *memory.Store
	blobs    *memstorage.BlobStore
	cache    *ScopeCache
	notifier *recordingNotifier
	deps     Dependencies

	tree    explorerSvc.TreeResolver
	mut     explorerSvc.MutationCoordinator
	upload  explorerSvc.UploadPipeline
	preview explorerSvc.PreviewService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	policy, err := config.LoadUploadPolicy()
	require.NoError(t, err)

	cache, err := NewScopeCache(time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	h := &harness{
		store:    memory.NewStore(),
		blobs:    memstorage.NewBlobStore(),
		cache:    cache,
		notifier: &recordingNotifier{},
	}
	h.tree = NewTreeService(h.store.Folders(), h.store.Files(), cache, testLogger())
	h.deps = Dependencies{
		Folders:      h.store.Folders(),
		Files:        h.store.Files(),
		Blobs:        h.blobs,
		Bucket:       storage.NewLazyBucket(h.blobs, storage.BucketSpec{Name: config.DefaultBucket, Public: true}),
		TxManager:    h.store,
		Authorizer:   serviceAuth.NewSessionAuthorizer(nil),
		Tree:         h.tree,
		Notifier:     h.notifier,
		Policy:       policy,
		SignedURLTTL: time.Minute,
		Logger:       testLogger(),
	}
	h.mut = NewMutationService(h.deps)
	h.upload = NewUploadService(h.deps)
	h.preview = NewPreviewService(h.deps)
	return h
}

func adminCtx() context.Context {
	return session.WithSession(context.Background(), &session.Session{
		User:  &session.User{ID: "admin-1", Email: "admin@example.com"},
		Admin: true,
	})
}

func ptr(s string) *string { return &s }

func (h *harness) mkdir(t *testing.T, parentID *string, name string) *models.Folder {
	t.Helper()
	f, err := h.mut.CreateFolder(adminCtx(), &explorerSvc.CreateFolderRequest{ParentID: parentID, Name: name})
	require.NoError(t, err)
	return f
}

func (h *harness) put(t *testing.T, folderID *string, name, mimeType, body string) *models.File {
	t.Helper()
	f, err := h.upload.Upload(adminCtx(), textUpload(folderID, name, mimeType, body))
	require.NoError(t, err)
	return f
}
