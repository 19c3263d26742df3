package explorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
)

// Mutation operation labels used in logs and metrics.
const (
	opCreateFolder = "create_folder"
	opUpdateFolder = "update_folder"
	opUpdateFile   = "update_file"
	opMoveFolder   = "move_folder"
	opMoveFile     = "move_file"
	opDeleteFolder = "delete_folder"
	opDeleteFile   = "delete_file"
)

type mutationService struct {
	Dependencies
}

// NewMutationService creates the mutation coordinator. deps.Tree and
// deps.Notifier receive every changed scope.
func NewMutationService(deps Dependencies) explorerSvc.MutationCoordinator {
	return &mutationService{Dependencies: deps}
}

// mutate runs fn as one admin mutation. fn is detached from the caller's
// cancellation so a started change always completes. The scopes fn
// reports are invalidated even when it fails part way.
func (s *mutationService) mutate(ctx context.Context, op string, fn func(ctx context.Context) ([]models.Scope, error)) error {
	if err := s.Authorizer.RequireAdmin(ctx); err != nil {
		return err
	}

	started := time.Now()
	scopes, err := fn(context.WithoutCancel(ctx))
	s.Metrics.RecordMutation(op, started, err)
	s.invalidate(scopes...)
	return err
}

// normalizeParent maps "" to nil (root).
func normalizeParent(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}

// normalizeIcon trims the icon; blank means no icon.
func normalizeIcon(icon *string) *string {
	if icon == nil {
		return nil
	}
	v := strings.TrimSpace(*icon)
	if v == "" {
		return nil
	}
	return &v
}

// requireFolder loads a destination folder, reporting a miss as NotFoundError.
func (s *mutationService) requireFolder(ctx context.Context, id string, role string) (*models.Folder, error) {
	folder, err := s.Folders.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("%s %s not found", role, id)}
		}
		return nil, backendError("get folder", err)
	}
	return folder, nil
}

// RenameOrDescribe applies a partial update to a folder or file.
func (s *mutationService) RenameOrDescribe(ctx context.Context, kind models.EntryKind, id string, fields *explorerSvc.EntryFields) (models.Entry, error) {
	if fields == nil || fields.IsEmpty() {
		return nil, domain.NewValidationError(msgNoFields)
	}

	switch kind {
	case models.KindFolder:
		folder, err := s.updateFolder(ctx, opUpdateFolder, id, fields, models.OptionalText{})
		if err != nil {
			return nil, err
		}
		return models.FolderEntry{Folder: *folder}, nil
	case models.KindFile:
		file, err := s.updateFile(ctx, opUpdateFile, id, fields, models.OptionalText{})
		if err != nil {
			return nil, err
		}
		return models.NewFileEntry(*file), nil
	default:
		return nil, domain.NewValidationError("unknown entry kind %q", kind)
	}
}

// validateFields sanitizes and validates the present fields. It returns
// the clean name (nil when absent) and description.
func (s *mutationService) validateFields(kind models.EntryKind, fields *explorerSvc.EntryFields) (*string, *string, error) {
	if kind != models.KindFolder && kind != models.KindFile {
		return nil, nil, domain.NewValidationError("unknown entry kind %q", kind)
	}

	var name *string
	if fields.Name.Present {
		if fields.Name.Value == nil {
			return nil, nil, domain.NewValidationError(msgNameEmpty)
		}
		clean := SanitizeText(*fields.Name.Value)
		if err := ValidateName(clean); err != nil {
			return nil, nil, err
		}
		name = &clean
	}

	var desc *string
	if fields.Description.Present {
		desc = sanitizeOptional(fields.Description.Value)
		if err := ValidateDescription(desc); err != nil {
			return nil, nil, err
		}
	}

	if fields.Icon.Present {
		if kind == models.KindFile {
			return nil, nil, domain.NewValidationError("files do not have an icon")
		}
		if err := validateIcon(s.Policy, normalizeIcon(fields.Icon.Value)); err != nil {
			return nil, nil, err
		}
	}

	return name, desc, nil
}
