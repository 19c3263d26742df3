// Package app wires the explorer services onto the backends selected by
// configuration. Both the server and folioctl build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"folio/internal/config"
	"folio/internal/database/migrations"
	"folio/internal/domain/repositories"
	explorerRepo "folio/internal/domain/repositories/explorer"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/domain/storage"
	"folio/internal/events"
	"folio/internal/metrics"
	memrepo "folio/internal/repository/memory"
	"folio/internal/repository/postgres"
	pgExplorer "folio/internal/repository/postgres/explorer"
	serviceAuth "folio/internal/service/auth"
	"folio/internal/service/explorer"
	memstorage "folio/internal/storage/memory"
	s3store "folio/internal/storage/s3"
	"folio/internal/storage/supabase"
)

// App holds the wired services and the resources they own.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Policy     *config.UploadPolicy
	Registry   *prometheus.Registry
	Metrics    *metrics.Explorer
	Broker     *events.Broker
	Bucket     *storage.LazyBucket
	Authorizer *serviceAuth.SessionAuthorizer

	Tree      explorerSvc.TreeResolver
	Mutations explorerSvc.MutationCoordinator
	Uploads   explorerSvc.UploadPipeline
	Previews  explorerSvc.PreviewService

	closers []func()
}

type metadata struct {
	folders explorerRepo.FolderRepository
	files   explorerRepo.FileRepository
	tx      repositories.TransactionManager
}

// New opens the configured backends and builds the services. Call Close
// when done, also after an error.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	policy, err := config.LoadUploadPolicy()
	if err != nil {
		return a, err
	}
	a.Policy = policy

	a.Registry = metrics.NewRegistry()
	a.Metrics = metrics.New(a.Registry)

	meta, err := a.openMetadata(ctx)
	if err != nil {
		return a, err
	}

	blobs, provisioner, err := a.openBlobs(ctx)
	if err != nil {
		return a, err
	}
	a.Bucket = storage.NewLazyBucket(provisioner, storage.BucketSpec{
		Name:             cfg.Storage.Bucket,
		Public:           true,
		FileSizeLimit:    policy.MaxSizeBytes,
		AllowedMIMETypes: policy.BucketMIMETypes,
	})

	cache, err := explorer.NewScopeCache(cfg.ScopeCacheTTL, a.Metrics)
	if err != nil {
		return a, fmt.Errorf("create scope cache: %w", err)
	}
	a.closers = append(a.closers, cache.Close)

	a.Broker = events.NewBroker(0, logger)
	a.closers = append(a.closers, a.Broker.Close)

	a.Authorizer = serviceAuth.NewSessionAuthorizer(cfg.AdminUserIDs)
	a.Tree = explorer.NewTreeService(meta.folders, meta.files, cache, logger)

	deps := explorer.Dependencies{
		Folders:      meta.folders,
		Files:        meta.files,
		Blobs:        blobs,
		Bucket:       a.Bucket,
		TxManager:    meta.tx,
		Authorizer:   a.Authorizer,
		Tree:         a.Tree,
		Notifier:     a.Broker,
		Policy:       policy,
		Metrics:      a.Metrics,
		SignedURLTTL: cfg.Storage.SignedURLTTL,
		Logger:       logger,
	}
	a.Mutations = explorer.NewMutationService(deps)
	a.Uploads = explorer.NewUploadService(deps)
	a.Previews = explorer.NewPreviewService(deps)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openMetadata(ctx context.Context) (*metadata, error) {
	cfg := a.Config

	switch cfg.MetadataBackend {
	case "memory":
		a.Logger.Warn("using in-memory metadata store, data is lost on exit")
		store := memrepo.NewStore()
		return &metadata{folders: store.Folders(), files: store.Files(), tx: store}, nil

	case "postgres":
		if cfg.SupabaseDBURL == "" {
			return nil, fmt.Errorf("SUPABASE_DB_URL is required for the postgres backend")
		}
		if err := a.checkSchema(); err != nil {
			return nil, err
		}

		pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.Logger.Info("database connected", "table_prefix", cfg.TablePrefix)

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: a.Logger,
		}
		return &metadata{
			folders: pgExplorer.NewFolderRepository(repoConfig),
			files:   pgExplorer.NewFileRepository(repoConfig),
			tx:      postgres.NewTransactionManager(repoConfig),
		}, nil

	default:
		return nil, fmt.Errorf("unknown METADATA_BACKEND %q", cfg.MetadataBackend)
	}
}

// checkSchema migrates when AUTO_MIGRATE is on, otherwise refuses to start
// against an outdated schema.
func (a *App) checkSchema() error {
	db, err := migrations.Open(a.Config.SupabaseDBURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if a.Config.AutoMigrate {
		if err := migrations.MigrateUp(db, a.Config.TablePrefix); err != nil {
			return err
		}
		a.Logger.Info("migrations applied", "table_prefix", a.Config.TablePrefix)
		return nil
	}
	return migrations.CheckDBMigrationStatus(db, a.Config.TablePrefix)
}

func (a *App) openBlobs(ctx context.Context) (storage.BlobStore, storage.BucketProvisioner, error) {
	cfg := a.Config

	switch cfg.StorageBackend {
	case "memory":
		a.Logger.Warn("using in-memory blob store, uploads are lost on exit")
		store := memstorage.NewBlobStore()
		return store, store, nil

	case "s3":
		client, err := s3store.NewClient(ctx, s3store.Config{
			Bucket:          cfg.Storage.Bucket,
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
		})
		if err != nil {
			return nil, nil, err
		}
		store := s3store.NewBlobStore(client, cfg.Storage.Bucket, a.Logger)

		// Supabase buckets carry size and MIME limits that the S3 API
		// cannot set, so provisioning goes through its REST API.
		if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
			return store, supabase.NewBucketProvisioner(cfg.SupabaseURL, cfg.SupabaseKey, a.Logger), nil
		}
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}
