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

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *postgres.RepositoryConfig) explorerRepo.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const fileColumns = "id, name, description, file_type, file_size, file_path, folder_id, mime_type, created_at, updated_at"

// Create inserts file metadata after its blob has been stored
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, description, file_type, file_size, file_path, folder_id, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		file.Name,
		file.Description,
		file.FileType,
		file.FileSize,
		file.FilePath,
		file.FolderID,
		file.MimeType,
	).Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("storage path '%s' is already in use", file.FilePath),
				ResourceType: "file",
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", derefOr(file.FolderID, "root"), domain.ErrNotFound)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves file metadata by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, fileColumns, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return file, nil
}

// Update writes name, description and folder_id. file_path is not part of
// the statement; a trigger rejects any other attempt to change it.
func (r *PostgresFileRepository) Update(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, description = $2, folder_id = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		file.Name,
		file.Description,
		file.FolderID,
		file.ID,
	).Scan(&file.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", derefOr(file.FolderID, "root"), domain.ErrNotFound)
		}
		return fmt.Errorf("update file: %w", err)
	}

	return nil
}

// Delete deletes a file record
func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByFolder lists files directly inside scope
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, scope models.Scope, ordering models.Ordering) ([]models.File, error) {
	predicate, args := scopePredicate("folder_id", scope, nil)
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		%s
	`, fileColumns, r.tables.Files, predicate, orderClause(ordering))

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files in folder: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

func scanFile(row rowScanner) (*models.File, error) {
	var file models.File
	err := row.Scan(
		&file.ID,
		&file.Name,
		&file.Description,
		&file.FileType,
		&file.FileSize,
		&file.FilePath,
		&file.FolderID,
		&file.MimeType,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}
