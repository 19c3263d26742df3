package explorer

import (
	"context"

	"folio/internal/domain/models/explorer"
)

// TreeResolver answers navigation queries.
type TreeResolver interface {
	// ResolveChildren lists the folders and files directly inside scope
	ResolveChildren(ctx context.Context, scope explorer.Scope, ordering explorer.Ordering) (*Children, error)

	// ResolvePath returns the root-first ancestor chain ending in folderID.
	// A missing ancestor truncates the chain instead of failing.
	ResolvePath(ctx context.Context, folderID string) ([]explorer.Folder, error)

	// Locate resolves the Location for a scope
	Locate(ctx context.Context, scope explorer.Scope) (*explorer.Location, error)

	// Invalidate drops cached listings for the given scopes
	Invalidate(scopes ...explorer.Scope)
}

// Children is one resolved scope.
type Children struct {
	Scope   explorer.Scope    `json:"-"`
	Folders []explorer.Folder `json:"folders"`
	Files   []explorer.File   `json:"files"`
}

// ScopeNotifier is told about every scope a mutation changed.
type ScopeNotifier interface {
	ScopesInvalidated(scopes []explorer.Scope)
}
