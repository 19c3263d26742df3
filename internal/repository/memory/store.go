package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	models "folio/internal/domain/models/explorer"
	"folio/internal/domain/repositories"
)

// Store holds folder and file records in process memory. It backs
// METADATA_BACKEND=memory and the service tests.
//
// Referential rules match the Postgres schema: parents must exist, sibling
// folder names are unique, and deleting a folder cascades.
type Store struct {
	mu      sync.RWMutex
	folders map[string]models.Folder
	files   map[string]models.File

	// txMu serializes ExecTx callers
	txMu sync.Mutex
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		folders: make(map[string]models.Folder),
		files:   make(map[string]models.File),
		now:     time.Now,
	}
}

type txKey struct{}

// undoLog holds the inverse of every write made inside one ExecTx.
type undoLog struct {
	store *Store
	ops   []func()
}

// ExecTx runs fn and, if it fails, undoes the writes fn made. Writes made
// by other callers meanwhile are kept. A nested call joins the outer one.
func (s *Store) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if log, ok := ctx.Value(txKey{}).(*undoLog); ok && log.store == s {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &undoLog{store: s}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		s.mu.Lock()
		for i := len(log.ops) - 1; i >= 0; i-- {
			log.ops[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// journalLocked records how to restore m[id] should the transaction in ctx
// fail. Outside a transaction it does nothing. Caller holds s.mu.
func journalLocked[V any](ctx context.Context, s *Store, m map[string]V, id string) {
	log, ok := ctx.Value(txKey{}).(*undoLog)
	if !ok || log.store != s {
		return
	}
	prev, existed := m[id]
	log.ops = append(log.ops, func() {
		if existed {
			m[id] = prev
		} else {
			delete(m, id)
		}
	})
}

// Folders returns the folder repository view of the store.
func (s *Store) Folders() *FolderRepository {
	return &FolderRepository{store: s}
}

// Files returns the file repository view of the store.
func (s *Store) Files() *FileRepository {
	return &FileRepository{store: s}
}

// sortRecords orders like the Postgres ORDER BY: byte-wise names or
// creation time, with id as the tiebreak.
func sortRecords[T any](items []T, o models.Ordering, name func(T) string, created func(T) time.Time, id func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int {
		var c int
		if o.Key == models.SortByCreatedAt {
			c = created(a).Compare(created(b))
		} else {
			c = cmp.Compare(name(a), name(b))
		}
		if c == 0 {
			c = cmp.Compare(id(a), id(b))
		}
		if o.Direction == models.SortDesc {
			return -c
		}
		return c
	})
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sameParent(a, b *string) bool {
	return models.ScopeOf(a) == models.ScopeOf(b)
}
