package explorer

import (
	"context"

	"folio/internal/domain/models/explorer"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create inserts a folder and fills ID and timestamps.
	// Returns a *domain.ConflictError when a sibling already has the name.
	Create(ctx context.Context, folder *explorer.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id string) (*explorer.Folder, error)

	// Update writes name, description, icon and parent_id
	Update(ctx context.Context, folder *explorer.Folder) error

	// Delete deletes a single folder record
	Delete(ctx context.Context, id string) error

	// ListChildren lists the folders directly inside scope
	ListChildren(ctx context.Context, scope explorer.Scope, ordering explorer.Ordering) ([]explorer.Folder, error)
}
