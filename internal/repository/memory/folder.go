package memory

import (
	"context"
	"fmt"
	"time"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"

	"github.com/google/uuid"
)

// FolderRepository implements FolderRepository on a Store
type FolderRepository struct {
	store *Store
}

// Create creates a new folder
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkParentLocked(folder.ParentID); err != nil {
		return err
	}
	if err := s.checkSiblingNameLocked("", folder.ParentID, folder.Name); err != nil {
		return err
	}

	now := s.now()
	folder.ID = uuid.NewString()
	folder.CreatedAt = now
	folder.UpdatedAt = now
	journalLocked(ctx, s, s.folders, folder.ID)
	s.folders[folder.ID] = cloneFolder(*folder)
	return nil
}

// GetByID retrieves a folder by ID
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	folder, ok := s.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	out := cloneFolder(folder)
	return &out, nil
}

// Update updates a folder
func (r *FolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.folders[folder.ID]
	if !ok {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}
	if err := s.checkParentLocked(folder.ParentID); err != nil {
		return err
	}
	if err := s.checkSiblingNameLocked(folder.ID, folder.ParentID, folder.Name); err != nil {
		return err
	}

	folder.CreatedAt = existing.CreatedAt
	folder.UpdatedAt = s.now()
	journalLocked(ctx, s, s.folders, folder.ID)
	s.folders[folder.ID] = cloneFolder(*folder)
	return nil
}

// Delete deletes a folder and, like ON DELETE CASCADE, everything below it
func (r *FolderRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[id]; !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	s.cascadeDeleteLocked(ctx, id)
	return nil
}

// ListChildren lists immediate child folders of scope
func (r *FolderRepository) ListChildren(ctx context.Context, scope models.Scope, ordering models.Ordering) ([]models.Folder, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	folders := []models.Folder{}
	for _, f := range s.folders {
		if models.ScopeOf(f.ParentID) == scope {
			folders = append(folders, cloneFolder(f))
		}
	}
	sortRecords(folders, ordering,
		func(f models.Folder) string { return f.Name },
		func(f models.Folder) time.Time { return f.CreatedAt },
		func(f models.Folder) string { return f.ID },
	)
	return folders, nil
}

func (s *Store) checkParentLocked(parentID *string) error {
	if parentID == nil {
		return nil
	}
	if _, ok := s.folders[*parentID]; !ok {
		return fmt.Errorf("parent folder %s: %w", *parentID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) checkSiblingNameLocked(selfID string, parentID *string, name string) error {
	for _, f := range s.folders {
		if f.ID != selfID && f.Name == name && sameParent(f.ParentID, parentID) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder '%s' already exists in this location", name),
				ResourceType: "folder",
				ResourceID:   f.ID,
			}
		}
	}
	return nil
}

func (s *Store) cascadeDeleteLocked(ctx context.Context, id string) {
	for childID, child := range s.folders {
		if child.ParentID != nil && *child.ParentID == id {
			s.cascadeDeleteLocked(ctx, childID)
		}
	}
	for fileID, file := range s.files {
		if file.FolderID != nil && *file.FolderID == id {
			journalLocked(ctx, s, s.files, fileID)
			delete(s.files, fileID)
		}
	}
	journalLocked(ctx, s, s.folders, id)
	delete(s.folders, id)
}

func cloneFolder(f models.Folder) models.Folder {
	f.Description = copyString(f.Description)
	f.ParentID = copyString(f.ParentID)
	f.Icon = copyString(f.Icon)
	return f
}
