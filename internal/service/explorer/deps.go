// Package explorer implements the file manager core: tree resolution,
// mutations, listing projection, uploads and previews.
package explorer

import (
	"log/slog"
	"time"

	"folio/internal/config"
	models "folio/internal/domain/models/explorer"
	"folio/internal/domain/repositories"
	explorerRepo "folio/internal/domain/repositories/explorer"
	"folio/internal/domain/services"
	explorerSvc "folio/internal/domain/services/explorer"
	"folio/internal/domain/storage"
	"folio/internal/metrics"
)

// Dependencies are shared by the explorer services.
type Dependencies struct {
	Folders      explorerRepo.FolderRepository
	Files        explorerRepo.FileRepository
	Blobs        storage.BlobStore
	Bucket       *storage.LazyBucket
	TxManager    repositories.TransactionManager
	Authorizer   services.AdminAuthorizer
	Tree         explorerSvc.TreeResolver
	Notifier     explorerSvc.ScopeNotifier
	Policy       *config.UploadPolicy
	Metrics      *metrics.Explorer
	SignedURLTTL time.Duration
	Logger       *slog.Logger
}

// invalidate drops cached listings and tells subscribers.
func (d *Dependencies) invalidate(scopes ...models.Scope) {
	if len(scopes) == 0 {
		return
	}
	scopes = uniqueScopes(scopes)
	if d.Tree != nil {
		d.Tree.Invalidate(scopes...)
	}
	if d.Notifier != nil {
		d.Notifier.ScopesInvalidated(scopes)
	}
}

func uniqueScopes(scopes []models.Scope) []models.Scope {
	seen := make(map[models.Scope]bool, len(scopes))
	out := make([]models.Scope, 0, len(scopes))
	for _, s := range scopes {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
