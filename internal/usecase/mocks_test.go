package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/woosync/backend/internal/domain"
)

// mockCatalog is a mock implementation of domain.CatalogClient
type mockCatalog struct {
	products   map[int64]*domain.RemoteProduct
	bySKU      map[string]*domain.RemoteProduct
	categories []domain.Category
	variations map[int64][]domain.RemoteVariation

	getErr        error
	findErr       error
	createErr     error
	updateErr     error
	categoriesErr error
	variationsErr error
	batchErr      error

	// panicOnCreateSKU simulates a crash mid-chunk
	panicOnCreateSKU string

	createCalls []*domain.ProductPayload
	updateCalls []int64
	batchCalls  []*domain.VariationBatch
	batchResult *domain.VariationBatchResult

	nextID int64
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		products:   make(map[int64]*domain.RemoteProduct),
		bySKU:      make(map[string]*domain.RemoteProduct),
		variations: make(map[int64][]domain.RemoteVariation),
		nextID:     1000,
	}
}

func (m *mockCatalog) GetProduct(ctx context.Context, id int64) (*domain.RemoteProduct, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalog) FindProductBySKU(ctx context.Context, sku string) (*domain.RemoteProduct, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if p, ok := m.bySKU[sku]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalog) CreateProduct(ctx context.Context, payload *domain.ProductPayload) (*domain.RemoteProduct, error) {
	if m.panicOnCreateSKU != "" && payload.SKU == m.panicOnCreateSKU {
		panic(fmt.Sprintf("create exploded for %s", payload.SKU))
	}
	m.createCalls = append(m.createCalls, payload)
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	created := &domain.RemoteProduct{ID: m.nextID, SKU: payload.SKU, Name: payload.Name}
	m.products[created.ID] = created
	m.bySKU[created.SKU] = created
	return created, nil
}

func (m *mockCatalog) UpdateProduct(ctx context.Context, id int64, payload *domain.ProductPayload) (*domain.RemoteProduct, error) {
	m.updateCalls = append(m.updateCalls, id)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &domain.RemoteProduct{ID: id, SKU: payload.SKU, Name: payload.Name}, nil
}

func (m *mockCatalog) ListCategories(ctx context.Context, page, perPage int) ([]domain.Category, error) {
	if m.categoriesErr != nil {
		return nil, m.categoriesErr
	}
	start := (page - 1) * perPage
	if start >= len(m.categories) {
		return nil, nil
	}
	end := start + perPage
	if end > len(m.categories) {
		end = len(m.categories)
	}
	return m.categories[start:end], nil
}

func (m *mockCatalog) ListVariations(ctx context.Context, productID int64, page, perPage int) ([]domain.RemoteVariation, error) {
	if m.variationsErr != nil {
		return nil, m.variationsErr
	}
	all := m.variations[productID]
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// BatchVariations records the batch and, unless a canned result or error is
// set, synthesizes a fully successful response
func (m *mockCatalog) BatchVariations(ctx context.Context, productID int64, batch *domain.VariationBatch) (*domain.VariationBatchResult, error) {
	m.batchCalls = append(m.batchCalls, batch)
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	if m.batchResult != nil {
		return m.batchResult, nil
	}
	result := &domain.VariationBatchResult{}
	for _, vp := range batch.Create {
		m.nextID++
		result.Create = append(result.Create, domain.BatchItem{ID: m.nextID, SKU: vp.SKU})
	}
	for _, vp := range batch.Update {
		result.Update = append(result.Update, domain.BatchItem{ID: vp.ID, SKU: vp.SKU})
	}
	for _, id := range batch.Delete {
		result.Delete = append(result.Delete, domain.BatchItem{ID: id})
	}
	return result, nil
}

// mockSession is a mock implementation of domain.ContentSession
type mockSession struct {
	uploadID    int64
	uploadErr   error
	uploadCalls []string

	terms      []domain.Term
	searchErr  error
	created    []string
	createErr  error
	nextTermID int64
}

func newMockSession() *mockSession {
	return &mockSession{uploadID: 900, nextTermID: 50}
}

func (m *mockSession) UploadMedia(ctx context.Context, filename string, data []byte) (int64, error) {
	m.uploadCalls = append(m.uploadCalls, filename)
	if m.uploadErr != nil {
		return 0, m.uploadErr
	}
	m.uploadID++
	return m.uploadID, nil
}

func (m *mockSession) SearchTerms(ctx context.Context, taxonomy, query string) ([]domain.Term, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.terms, nil
}

func (m *mockSession) CreateTerm(ctx context.Context, taxonomy, name string) (*domain.Term, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, name)
	m.nextTermID++
	return &domain.Term{ID: m.nextTermID, Name: name}, nil
}

// mockEnricher is a mock implementation of domain.Enricher
type mockEnricher struct {
	result *domain.EnrichmentResult
	err    error
	calls  int
}

func (m *mockEnricher) Enrich(ctx context.Context, productName string, allowedCategories []string) (*domain.EnrichmentResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockTx records every linkage write so tests can assert exactly what would
// be persisted
type mockTx struct {
	productErrors  map[int64]string
	productRemotes map[int64]int64
	productSynced  map[int64]time.Time
	variantErrors  map[int64]string
	variantRemotes map[int64]int64
	variantSynced  map[int64]time.Time
	committed      bool
	rolledBack     bool
}

func newMockTx() *mockTx {
	return &mockTx{
		productErrors:  make(map[int64]string),
		productRemotes: make(map[int64]int64),
		productSynced:  make(map[int64]time.Time),
		variantErrors:  make(map[int64]string),
		variantRemotes: make(map[int64]int64),
		variantSynced:  make(map[int64]time.Time),
	}
}

func (t *mockTx) SetProductError(ctx context.Context, id int64, msg string) error {
	t.productErrors[id] = msg
	return nil
}

func (t *mockTx) ClearProductError(ctx context.Context, id int64) error {
	t.productErrors[id] = ""
	return nil
}

func (t *mockTx) SetProductRemoteID(ctx context.Context, id int64, remoteID int64) error {
	t.productRemotes[id] = remoteID
	return nil
}

func (t *mockTx) ClearProductRemoteID(ctx context.Context, id int64) error {
	t.productRemotes[id] = 0
	return nil
}

func (t *mockTx) MarkProductSynced(ctx context.Context, id int64, remoteID int64, at time.Time) error {
	t.productRemotes[id] = remoteID
	t.productSynced[id] = at
	t.productErrors[id] = ""
	return nil
}

func (t *mockTx) SetVariantError(ctx context.Context, id int64, msg string) error {
	t.variantErrors[id] = msg
	return nil
}

func (t *mockTx) ClearVariantError(ctx context.Context, id int64) error {
	t.variantErrors[id] = ""
	return nil
}

func (t *mockTx) SetVariantRemoteID(ctx context.Context, id int64, remoteID int64) error {
	t.variantRemotes[id] = remoteID
	return nil
}

func (t *mockTx) ClearVariantRemoteID(ctx context.Context, id int64) error {
	t.variantRemotes[id] = 0
	return nil
}

func (t *mockTx) MarkVariantSynced(ctx context.Context, id int64, remoteID int64, at time.Time) error {
	t.variantRemotes[id] = remoteID
	t.variantSynced[id] = at
	t.variantErrors[id] = ""
	return nil
}

func (t *mockTx) Commit() error {
	t.committed = true
	return nil
}

func (t *mockTx) Rollback() error {
	t.rolledBack = true
	return nil
}
