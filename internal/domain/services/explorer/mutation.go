package explorer

import (
	"context"

	"folio/internal/domain/models/explorer"
)

// MutationCoordinator applies changes to the tree.
// Every method requires an admin session and runs to completion once started.
type MutationCoordinator interface {
	// CreateFolder creates a folder inside req.ParentID (nil = root)
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*explorer.Folder, error)

	// GetFolder retrieves a folder by ID
	GetFolder(ctx context.Context, id string) (*explorer.Folder, error)

	// GetFile retrieves file metadata by ID
	GetFile(ctx context.Context, id string) (*explorer.File, error)

	// RenameOrDescribe updates name, description or icon of a folder or file
	RenameOrDescribe(ctx context.Context, kind explorer.EntryKind, id string, fields *EntryFields) (explorer.Entry, error)

	// UpdateFolder applies fields and an optional move (parent) in one change.
	// Nothing is written when any present field is invalid.
	UpdateFolder(ctx context.Context, id string, fields *EntryFields, parent explorer.OptionalText) (*explorer.Folder, error)

	// UpdateFile applies fields and an optional move (folder) in one change
	UpdateFile(ctx context.Context, id string, fields *EntryFields, folder explorer.OptionalText) (*explorer.File, error)

	// MoveFile reassigns the owning folder. The storage path is unchanged.
	MoveFile(ctx context.Context, fileID string, destinationFolderID *string) (*explorer.File, error)

	// MoveFolder reassigns the parent folder, rejecting cycles
	MoveFolder(ctx context.Context, folderID string, destinationParentID *string) (*explorer.Folder, error)

	// DeleteFolder deletes a folder with all descendant folders and files
	DeleteFolder(ctx context.Context, id string) error

	// DeleteFile removes the blob, then the metadata record
	DeleteFile(ctx context.Context, id string) error
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	ParentID    *string `json:"parent_id,omitempty"` // nil for root
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// EntryFields is a partial update. Absent fields are left alone; a null
// description or icon clears it. Name cannot be cleared.
type EntryFields struct {
	Name        explorer.OptionalText
	Description explorer.OptionalText
	Icon        explorer.OptionalText // folders only
}

// IsEmpty reports whether no field is present.
func (f *EntryFields) IsEmpty() bool {
	return !f.Name.Present && !f.Description.Present && !f.Icon.Present
}
