package explorer

import (
	"context"
	"fmt"
	"log/slog"

	"folio/internal/domain"
	models "folio/internal/domain/models/explorer"
	explorerRepo "folio/internal/domain/repositories/explorer"
	"folio/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) explorerRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const folderColumns = "id, name, description, parent_id, icon, created_at, updated_at"

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, parent_id, icon)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.Name,
		folder.Description,
		folder.ParentID,
		folder.Icon,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return r.conflict(ctx, folder)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder %s: %w", derefOr(folder.ParentID, "root"), domain.ErrNotFound)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// Update updates a folder
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, icon = $3, parent_id = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.Name,
		folder.Description,
		folder.Icon,
		folder.ParentID,
		folder.ID,
	).Scan(&folder.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
		}
		if postgres.IsPgDuplicateError(err) {
			return r.conflict(ctx, folder)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder %s: %w", derefOr(folder.ParentID, "root"), domain.ErrNotFound)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	return nil
}

// Delete deletes a folder record. Child rows are removed by the service
// beforehand; the ON DELETE CASCADE on the table only catches stragglers.
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListChildren lists immediate child folders of scope
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, scope models.Scope, ordering models.Ordering) ([]models.Folder, error) {
	predicate, args := scopePredicate("parent_id", scope, nil)
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		%s
	`, folderColumns, r.tables.Folders, predicate, orderClause(ordering))

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// conflict builds a ConflictError pointing at the sibling holding the name.
// The lookup goes through the pool: after a unique violation the caller's
// transaction, if any, accepts no further statements.
func (r *PostgresFolderRepository) conflict(ctx context.Context, folder *models.Folder) error {
	predicate, args := scopePredicate("parent_id", folder.Scope(), []any{folder.Name})
	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE name = $1 AND %s
	`, r.tables.Folders, predicate)

	var existingID string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&existingID); err != nil {
		r.logger.Debug("conflicting folder lookup failed", "name", folder.Name, "error", err)
	}

	return &domain.ConflictError{
		Message:      fmt.Sprintf("folder '%s' already exists in this location", folder.Name),
		ResourceType: "folder",
		ResourceID:   existingID,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.Description,
		&folder.ParentID,
		&folder.Icon,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
