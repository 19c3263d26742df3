package explorer

import (
	"context"
	"fmt"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
)

func (s *mutationService) requireFile(ctx context.Context, id string) (*models.File, error) {
	file, err := s.Files.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("file %s not found", id)}
		}
		return nil, backendError("get file", err)
	}
	return file, nil
}

// GetFile retrieves file metadata by ID. Visitors may read.
func (s *mutationService) GetFile(ctx context.Context, id string) (*models.File, error) {
	return s.requireFile(ctx, id)
}

// UpdateFile applies fields and an optional move as one change. Every
// present field is validated before anything is written.
func (s *mutationService) UpdateFile(ctx context.Context, id string, fields *explorerSvc.EntryFields, folder models.OptionalText) (*models.File, error) {
	return s.updateFile(ctx, opUpdateFile, id, fields, folder)
}

// MoveFile changes the owning folder. FilePath stays the same.
func (s *mutationService) MoveFile(ctx context.Context, fileID string, destinationFolderID *string) (*models.File, error) {
	return s.updateFile(ctx, opMoveFile, fileID, nil, models.OptionalText{Present: true, Value: destinationFolderID})
}

func (s *mutationService) updateFile(ctx context.Context, op, id string, fields *explorerSvc.EntryFields, folder models.OptionalText) (*models.File, error) {
	if fields == nil {
		fields = &explorerSvc.EntryFields{}
	}
	if fields.IsEmpty() && !folder.Present {
		return nil, domain.NewValidationError(msgNoFields)
	}
	name, desc, err := s.validateFields(models.KindFile, fields)
	if err != nil {
		return nil, err
	}
	dest := normalizeParent(folder.Value)

	var updated *models.File
	err = s.mutate(ctx, op, func(ctx context.Context) ([]models.Scope, error) {
		var source models.Scope
		err := s.TxManager.ExecTx(ctx, func(ctx context.Context) error {
			file, err := s.requireFile(ctx, id)
			if err != nil {
				return err
			}
			source = file.Scope()

			if folder.Present {
				if dest != nil {
					if _, err := s.requireFolder(ctx, *dest, "destination folder"); err != nil {
						return err
					}
				}
				file.FolderID = dest
			}
			if name != nil {
				file.Name = *name
			}
			if fields.Description.Present {
				file.Description = desc
			}

			updated = file
			if fields.IsEmpty() && file.Scope() == source {
				return nil
			}
			if err := s.Files.Update(ctx, file); err != nil {
				return backendError("update file", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		target := updated.Scope()
		s.Logger.Info("file updated",
			"id", id,
			"name", updated.Name,
			"from", source.Key(),
			"to", target.Key(),
			"file_path", updated.FilePath,
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

// DeleteFile removes the blob, then the record. A failed blob removal
// leaves the record in place.
func (s *mutationService) DeleteFile(ctx context.Context, id string) error {
	return s.mutate(ctx, opDeleteFile, func(ctx context.Context) ([]models.Scope, error) {
		file, err := s.requireFile(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := s.Blobs.Remove(ctx, []string{file.FilePath}); err != nil {
			s.Logger.Error("blob removal failed, keeping file record",
				"id", file.ID,
				"file_path", file.FilePath,
				"error", err,
			)
			return nil, &domain.BackendError{Op: "remove blob", Err: err}
		}

		if err := s.Files.Delete(ctx, file.ID); err != nil {
			return nil, backendError("delete file", err)
		}

		s.Logger.Info("file deleted", "id", file.ID, "name", file.Name, "file_path", file.FilePath)
		return []models.Scope{file.Scope()}, nil
	})
}
