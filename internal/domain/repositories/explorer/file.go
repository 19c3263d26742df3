package explorer

import (
	"context"

	"folio/internal/domain/models/explorer"
)

// FileRepository defines data access operations for file metadata
type FileRepository interface {
	// Create inserts a file record and fills ID and timestamps
	Create(ctx context.Context, file *explorer.File) error

	// GetByID retrieves a file by ID
	GetByID(ctx context.Context, id string) (*explorer.File, error)

	// Update writes name, description and folder_id. FilePath is never updated.
	Update(ctx context.Context, file *explorer.File) error

	// Delete deletes a single file record
	Delete(ctx context.Context, id string) error

	// ListByFolder lists the files directly inside scope
	ListByFolder(ctx context.Context, scope explorer.Scope, ordering explorer.Ordering) ([]explorer.File, error)
}
