package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerRepo "folio/internal/domain/repositories/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
)

type treeService struct {
	folderRepo explorerRepo.FolderRepository
	fileRepo   explorerRepo.FileRepository
	cache      *ScopeCache
	logger     *slog.Logger
}

// NewTreeService creates the tree resolver. cache may be nil.
func NewTreeService(
	folderRepo explorerRepo.FolderRepository,
	fileRepo explorerRepo.FileRepository,
	cache *ScopeCache,
	logger *slog.Logger,
) explorerSvc.TreeResolver {
	return &treeService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		cache:      cache,
		logger:     logger,
	}
}

// ResolveChildren lists folders and files of scope. The two lookups are
// independent and run concurrently.
func (s *treeService) ResolveChildren(ctx context.Context, scope models.Scope, ordering models.Ordering) (*explorerSvc.Children, error) {
	if cached, ok := s.cache.Get(scope, ordering); ok {
		return cached, nil
	}
	generation := s.cache.Generation(scope)

	var (
		folders []models.Folder
		files   []models.File
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		folders, err = s.folderRepo.ListChildren(gctx, scope, ordering)
		if err != nil {
			return backendError("list folders", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		files, err = s.fileRepo.ListByFolder(gctx, scope, ordering)
		if err != nil {
			return backendError("list files", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	children := &explorerSvc.Children{
		Scope:   scope,
		Folders: folders,
		Files:   files,
	}
	s.cache.Set(scope, ordering, generation, children)

	return &explorerSvc.Children{
		Scope:   scope,
		Folders: slices.Clone(folders),
		Files:   slices.Clone(files),
	}, nil
}

// ResolvePath walks parent pointers from folderID up to the root and
// returns the chain root first. A missing ancestor ends the walk early;
// the partial chain is returned without error.
func (s *treeService) ResolvePath(ctx context.Context, folderID string) ([]models.Folder, error) {
	path := []models.Folder{}
	visited := make(map[string]bool)

	current := folderID
	for current != "" {
		if visited[current] {
			s.logger.Warn("cycle in folder ancestry", "folder_id", folderID, "revisited", current)
			break
		}
		visited[current] = true

		folder, err := s.folderRepo.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Debug("ancestor missing, truncating path", "folder_id", folderID, "missing", current)
				break
			}
			return nil, backendError("resolve path", err)
		}

		path = append(path, *folder)
		if folder.ParentID == nil {
			break
		}
		current = *folder.ParentID
	}

	slices.Reverse(path)
	return path, nil
}

// Locate resolves the Location of scope. A folder scope whose folder no
// longer exists is a NotFoundError.
func (s *treeService) Locate(ctx context.Context, scope models.Scope) (*models.Location, error) {
	if scope.IsRoot() {
		return &models.Location{Path: []models.Folder{}}, nil
	}

	path, err := s.ResolvePath(ctx, scope.FolderID())
	if err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", scope.FolderID())}
	}

	return &models.Location{FolderID: scope.ParentPtr(), Path: path}, nil
}

func (s *treeService) Invalidate(scopes ...models.Scope) {
	s.cache.Invalidate(scopes...)
}

// Browse resolves scope and applies the view: the ordering goes to the
// store, the query filters the result.
func Browse(ctx context.Context, tree explorerSvc.TreeResolver, scope models.Scope, view models.ViewState) (*Listing, error) {
	location, err := tree.Locate(ctx, scope)
	if err != nil {
		return nil, err
	}

	children, err := tree.ResolveChildren(ctx, scope, view.Ordering)
	if err != nil {
		return nil, err
	}

	folders, files := Project(children.Folders, children.Files, view.Query)
	return &Listing{
		Location: location,
		View:     view,
		Entries:  Entries(folders, files),
		Total:    len(children.Folders) + len(children.Files),
	}, nil
}

// backendError wraps unexpected store failures. Domain errors (not found,
// conflict, validation) pass through unchanged.
func backendError(op string, err error) error {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrValidation) {
		return err
	}
	return &domain.BackendError{Op: op, Err: err}
}
