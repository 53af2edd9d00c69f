package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/woosync/backend/internal/domain"
)

// MemoryStore is an in-memory ProductStore used in development and tests.
// Transactions buffer their writes and apply them atomically on Commit, so
// a rolled-back chunk leaves no trace.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]*domain.Product),
	}
}

// Put inserts or replaces a product (test/seeding helper)
func (s *MemoryStore) Put(p *domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// Get returns the stored product by ID, or nil
func (s *MemoryStore) Get(id int64) *domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products[id]
}

// ListEnabled returns copies of all sync-enabled products in stable ID
// order. Copies keep uncommitted engine-side mutations out of the store:
// persisted state only changes through a committed transaction.
func (s *MemoryStore) ListEnabled(ctx context.Context) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.Product
	for _, p := range s.products {
		if p.SyncEnabled {
			result = append(result, clone(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetByIDs returns copies of the known products among ids, in input order
func (s *MemoryStore) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result = append(result, clone(p))
		}
	}
	return result, nil
}

func clone(p *domain.Product) *domain.Product {
	cp := *p
	cp.AttributeLines = append([]domain.AttributeLine(nil), p.AttributeLines...)
	cp.Variants = make([]*domain.Variant, len(p.Variants))
	for i, v := range p.Variants {
		cv := *v
		cv.Attributes = append([]domain.AttributeValue(nil), v.Attributes...)
		cp.Variants[i] = &cv
	}
	return &cp
}

// Begin opens a buffered transaction
func (s *MemoryStore) Begin(ctx context.Context) (domain.ProductTx, error) {
	return &memoryTx{store: s}, nil
}

type memoryTx struct {
	store *MemoryStore
	ops   []func()
	done  bool
}

func (t *memoryTx) variant(id int64) *domain.Variant {
	for _, p := range t.store.products {
		for _, v := range p.Variants {
			if v.ID == id {
				return v
			}
		}
	}
	return nil
}

func (t *memoryTx) SetProductError(ctx context.Context, id int64, msg string) error {
	t.ops = append(t.ops, func() {
		if p := t.store.products[id]; p != nil {
			p.SyncError = msg
		}
	})
	return nil
}

func (t *memoryTx) ClearProductError(ctx context.Context, id int64) error {
	return t.SetProductError(ctx, id, "")
}

func (t *memoryTx) SetProductRemoteID(ctx context.Context, id int64, remoteID int64) error {
	t.ops = append(t.ops, func() {
		if p := t.store.products[id]; p != nil {
			p.RemoteID = remoteID
		}
	})
	return nil
}

func (t *memoryTx) ClearProductRemoteID(ctx context.Context, id int64) error {
	return t.SetProductRemoteID(ctx, id, 0)
}

func (t *memoryTx) MarkProductSynced(ctx context.Context, id int64, remoteID int64, at time.Time) error {
	t.ops = append(t.ops, func() {
		if p := t.store.products[id]; p != nil {
			p.RemoteID = remoteID
			syncedAt := at
			p.LastSyncAt = &syncedAt
			p.SyncError = ""
		}
	})
	return nil
}

func (t *memoryTx) SetVariantError(ctx context.Context, id int64, msg string) error {
	t.ops = append(t.ops, func() {
		if v := t.variant(id); v != nil {
			v.SyncError = msg
		}
	})
	return nil
}

func (t *memoryTx) ClearVariantError(ctx context.Context, id int64) error {
	t.ops = append(t.ops, func() {
		if v := t.variant(id); v != nil {
			v.SyncError = ""
		}
	})
	return nil
}

func (t *memoryTx) SetVariantRemoteID(ctx context.Context, id int64, remoteID int64) error {
	t.ops = append(t.ops, func() {
		if v := t.variant(id); v != nil {
			v.RemoteID = remoteID
		}
	})
	return nil
}

func (t *memoryTx) ClearVariantRemoteID(ctx context.Context, id int64) error {
	return t.SetVariantRemoteID(ctx, id, 0)
}

func (t *memoryTx) MarkVariantSynced(ctx context.Context, id int64, remoteID int64, at time.Time) error {
	t.ops = append(t.ops, func() {
		if v := t.variant(id); v != nil {
			v.RemoteID = remoteID
			syncedAt := at
			v.LastSyncAt = &syncedAt
			v.SyncError = ""
		}
	})
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, op := range t.ops {
		op()
	}
	t.ops = nil
	return nil
}

func (t *memoryTx) Rollback() error {
	t.done = true
	t.ops = nil
	return nil
}
