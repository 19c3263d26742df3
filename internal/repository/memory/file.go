package memory

import (
	"context"
	"fmt"
	"time"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"

	"github.com/google/uuid"
)

// FileRepository implements FileRepository on a Store
type FileRepository struct {
	store *Store
}

// Create inserts file metadata
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkParentLocked(file.FolderID); err != nil {
		return err
	}
	for _, f := range s.files {
		if f.FilePath == file.FilePath {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("storage path '%s' is already in use", file.FilePath),
				ResourceType: "file",
				ResourceID:   f.ID,
			}
		}
	}

	now := s.now()
	file.ID = uuid.NewString()
	file.CreatedAt = now
	file.UpdatedAt = now
	journalLocked(ctx, s, s.files, file.ID)
	s.files[file.ID] = cloneFile(*file)
	return nil
}

// GetByID retrieves file metadata by ID
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	out := cloneFile(file)
	return &out, nil
}

// Update writes name, description and folder_id. The stored path is kept.
func (r *FileRepository) Update(ctx context.Context, file *models.File) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.files[file.ID]
	if !ok {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
	}
	if err := s.checkParentLocked(file.FolderID); err != nil {
		return err
	}

	existing.Name = file.Name
	existing.Description = copyString(file.Description)
	existing.FolderID = copyString(file.FolderID)
	existing.UpdatedAt = s.now()
	journalLocked(ctx, s, s.files, file.ID)
	s.files[file.ID] = existing

	*file = cloneFile(existing)
	return nil
}

// Delete deletes a file record
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	journalLocked(ctx, s, s.files, id)
	delete(s.files, id)
	return nil
}

// ListByFolder lists files directly inside scope
func (r *FileRepository) ListByFolder(ctx context.Context, scope models.Scope, ordering models.Ordering) ([]models.File, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := []models.File{}
	for _, f := range s.files {
		if models.ScopeOf(f.FolderID) == scope {
			files = append(files, cloneFile(f))
		}
	}
	sortRecords(files, ordering,
		func(f models.File) string { return f.Name },
		func(f models.File) time.Time { return f.CreatedAt },
		func(f models.File) string { return f.ID },
	)
	return files, nil
}

func cloneFile(f models.File) models.File {
	f.Description = copyString(f.Description)
	f.FolderID = copyString(f.FolderID)
	f.MimeType = copyString(f.MimeType)
	return f
}
