package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/app"
	"folio/internal/config"
	models "folio/internal/domain/models/explorer"
	"folio/internal/session"
)

func memoryApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &config.Config{
		Environment:     "test",
		MetadataBackend: "memory",
		StorageBackend:  "memory",
		Storage:         config.StorageConfig{Bucket: config.DefaultBucket, SignedURLTTL: time.Minute},
	}
	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestSeedFolders_Repeatable(t *testing.T) {
	a := memoryApp(t)
	ctx := session.WithSession(context.Background(), &session.Session{User: &session.User{ID: "seed"}, Admin: true})

	created, err := seedFolders(ctx, a.Mutations, nil, demoTree)
	require.NoError(t, err)
	assert.Equal(t, 7, created)

	created, err = seedFolders(ctx, a.Mutations, nil, demoTree)
	require.NoError(t, err)
	assert.Zero(t, created, "second run reuses existing folders")

	root, err := a.Tree.ResolveChildren(context.Background(), models.RootScope(), models.DefaultOrdering())
	require.NoError(t, err)
	assert.Len(t, root.Folders, 3)
}

func TestSeedFolders_NeedsAdmin(t *testing.T) {
	a := memoryApp(t)

	_, err := seedFolders(context.Background(), a.Mutations, nil, demoTree)
	assert.Error(t, err)
}

func TestBreadcrumb(t *testing.T) {
	assert.Equal(t, "/", breadcrumb(&models.Location{}))
	assert.Equal(t, "/Reports/2024", breadcrumb(&models.Location{Path: []models.Folder{{Name: "Reports"}, {Name: "2024"}}}))
}
