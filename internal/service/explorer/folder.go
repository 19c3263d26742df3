package explorer

import (
	"context"
	"errors"
	"fmt"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// CreateFolder creates a folder under req.ParentID (nil or "" for root).
func (s *mutationService) CreateFolder(ctx context.Context, req *explorerSvc.CreateFolderRequest) (*models.Folder, error) {
	name := SanitizeText(req.Name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	desc := sanitizeOptional(req.Description)
	if err := ValidateDescription(desc); err != nil {
		return nil, err
	}
	icon := normalizeIcon(req.Icon)
	if err := validateIcon(s.Policy, icon); err != nil {
		return nil, err
	}
	parentID := normalizeParent(req.ParentID)

	folder := &models.Folder{
		Name:        name,
		Description: desc,
		ParentID:    parentID,
		Icon:        icon,
	}

	err := s.mutate(ctx, opCreateFolder, func(ctx context.Context) ([]models.Scope, error) {
		if parentID != nil {
			if _, err := s.requireFolder(ctx, *parentID, "parent folder"); err != nil {
				return nil, err
			}
		}
		if err := s.Folders.Create(ctx, folder); err != nil {
			return nil, backendError("create folder", err)
		}

		s.Logger.Info("folder created",
			"id", folder.ID,
			"name", folder.Name,
			"parent_id", folder.ParentID,
		)
		return []models.Scope{folder.Scope()}, nil
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// GetFolder retrieves a folder by ID. Visitors may read.
func (s *mutationService) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	return s.requireFolder(ctx, id, "folder")
}

// UpdateFolder applies fields and an optional reparent as one change.
// Every present field is validated before anything is written.
func (s *mutationService) UpdateFolder(ctx context.Context, id string, fields *explorerSvc.EntryFields, parent models.OptionalText) (*models.Folder, error) {
	return s.updateFolder(ctx, opUpdateFolder, id, fields, parent)
}

// MoveFolder reparents a folder. Moving a folder into itself or one of its
// descendants is rejected.
func (s *mutationService) MoveFolder(ctx context.Context, folderID string, destinationParentID *string) (*models.Folder, error) {
	return s.updateFolder(ctx, opMoveFolder, folderID, nil, models.OptionalText{Present: true, Value: destinationParentID})
}

func (s *mutationService) updateFolder(ctx context.Context, op, id string, fields *explorerSvc.EntryFields, parent models.OptionalText) (*models.Folder, error) {
	if fields == nil {
		fields = &explorerSvc.EntryFields{}
	}
	if fields.IsEmpty() && !parent.Present {
		return nil, domain.NewValidationError(msgNoFields)
	}
	name, desc, err := s.validateFields(models.KindFolder, fields)
	if err != nil {
		return nil, err
	}
	dest := normalizeParent(parent.Value)
	if parent.Present && dest != nil && *dest == id {
		return nil, domain.NewValidationError("cannot move a folder into itself")
	}

	var updated *models.Folder
	err = s.mutate(ctx, op, func(ctx context.Context) ([]models.Scope, error) {
		var source models.Scope
		err := s.TxManager.ExecTx(ctx, func(ctx context.Context) error {
			folder, err := s.requireFolder(ctx, id, "folder")
			if err != nil {
				return err
			}
			source = folder.Scope()

			if parent.Present {
				if dest != nil {
					if _, err := s.requireFolder(ctx, *dest, "destination folder"); err != nil {
						return err
					}
					if err := s.validateNoCircularReference(ctx, id, *dest); err != nil {
						return err
					}
				}
				folder.ParentID = dest
			}
			if name != nil {
				folder.Name = *name
			}
			if fields.Description.Present {
				folder.Description = desc
			}
			if fields.Icon.Present {
				folder.Icon = normalizeIcon(fields.Icon.Value)
			}

			updated = folder
			if fields.IsEmpty() && folder.Scope() == source {
				return nil
			}
			if err := s.Folders.Update(ctx, folder); err != nil {
				return backendError("update folder", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		target := updated.Scope()
		s.Logger.Info("folder updated",
			"id", id,
			"name", updated.Name,
			"from", source.Key(),
			"to", target.Key(),
		)
		if target == source {
			return []models.Scope{source}, nil
		}
		return []models.Scope{source, target}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// validateNoCircularReference walks up from newParentID and fails if it
// reaches folderID.
func (s *mutationService) validateNoCircularReference(ctx context.Context, folderID, newParentID string) error {
	visited := make(map[string]bool)
	current := newParentID
	for current != "" && !visited[current] {
		if current == folderID {
			return domain.NewValidationError("cannot move a folder into one of its descendants")
		}
		visited[current] = true

		parent, err := s.Folders.GetByID(ctx, current)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return backendError("check folder ancestry", err)
		}
		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return nil
}

// DeleteFolder deletes a folder and everything below it.
//
// Files are removed deepest folder first, blobs before records. The first
// blob failure stops the delete; whatever was removed up to that point
// stays removed and the folder records are kept.
func (s *mutationService) DeleteFolder(ctx context.Context, id string) error {
	return s.mutate(ctx, opDeleteFolder, func(ctx context.Context) ([]models.Scope, error) {
		folder, err := s.requireFolder(ctx, id, "folder")
		if err != nil {
			return nil, err
		}

		levels, err := s.collectSubtree(ctx, folder)
		if err != nil {
			return nil, err
		}

		scopes := []models.Scope{folder.Scope()}
		for i := len(levels) - 1; i >= 0; i-- {
			for _, f := range levels[i] {
				removed, err := s.deleteFolderFiles(ctx, f.ID)
				if removed > 0 {
					scopes = append(scopes, models.FolderScope(f.ID))
				}
				if err != nil {
					return scopes, err
				}
			}
		}

		err = s.TxManager.ExecTx(ctx, func(ctx context.Context) error {
			for i := len(levels) - 1; i >= 0; i-- {
				for _, f := range levels[i] {
					if err := s.Folders.Delete(ctx, f.ID); err != nil && !isNotFound(err) {
						return backendError("delete folder", err)
					}
				}
			}
			return nil
		})
		if err != nil {
			return scopes, err
		}

		count := 0
		for _, level := range levels {
			for _, f := range level {
				scopes = append(scopes, models.FolderScope(f.ID))
				count++
			}
		}

		s.Logger.Info("folder deleted",
			"id", folder.ID,
			"name", folder.Name,
			"folders_removed", count,
		)
		return scopes, nil
	})
}

// collectSubtree returns the folder and its descendants by depth:
// levels[0] holds the folder itself.
func (s *mutationService) collectSubtree(ctx context.Context, root *models.Folder) ([][]models.Folder, error) {
	levels := [][]models.Folder{{*root}}
	visited := map[string]bool{root.ID: true}

	for {
		var next []models.Folder
		for _, parent := range levels[len(levels)-1] {
			children, err := s.Folders.ListChildren(ctx, models.FolderScope(parent.ID), models.DefaultOrdering())
			if err != nil {
				return nil, backendError("list folders", err)
			}
			for _, child := range children {
				if visited[child.ID] {
					continue
				}
				visited[child.ID] = true
				next = append(next, child)
			}
		}
		if len(next) == 0 {
			return levels, nil
		}
		levels = append(levels, next)
	}
}

// deleteFolderFiles removes the blobs of every file directly in folderID,
// then their records. It returns how many records were deleted.
func (s *mutationService) deleteFolderFiles(ctx context.Context, folderID string) (int, error) {
	files, err := s.Files.ListByFolder(ctx, models.FolderScope(folderID), models.DefaultOrdering())
	if err != nil {
		return 0, backendError("list files", err)
	}
	if len(files) == 0 {
		return 0, nil
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.FilePath)
	}
	if err := s.Blobs.Remove(ctx, paths); err != nil {
		return 0, &domain.BackendError{Op: fmt.Sprintf("remove blobs of folder %s", folderID), Err: err}
	}

	for i, f := range files {
		if err := s.Files.Delete(ctx, f.ID); err != nil && !isNotFound(err) {
			return i, backendError("delete file", err)
		}
	}
	return len(files), nil
}
