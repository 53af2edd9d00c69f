package domain

import (
	"context"
	"time"
)

// CatalogClient is the keyed-auth product/catalog REST API surface the
// engine needs. Implementations classify every transport failure into the
// typed errors of this package and never leak library-specific errors.
type CatalogClient interface {
	GetProduct(ctx context.Context, id int64) (*RemoteProduct, error)
	FindProductBySKU(ctx context.Context, sku string) (*RemoteProduct, error)
	CreateProduct(ctx context.Context, payload *ProductPayload) (*RemoteProduct, error)
	UpdateProduct(ctx context.Context, id int64, payload *ProductPayload) (*RemoteProduct, error)
	ListCategories(ctx context.Context, page, perPage int) ([]Category, error)
	ListVariations(ctx context.Context, productID int64, page, perPage int) ([]RemoteVariation, error)
	BatchVariations(ctx context.Context, productID int64, batch *VariationBatch) (*VariationBatchResult, error)
}

// ContentSession is the session-auth content/media/taxonomy API surface
type ContentSession interface {
	UploadMedia(ctx context.Context, filename string, data []byte) (int64, error)
	SearchTerms(ctx context.Context, taxonomy, query string) ([]Term, error)
	CreateTerm(ctx context.Context, taxonomy, name string) (*Term, error)
}

// Enricher produces best-effort AI metadata for a product name, constrained
// to the permitted category labels. A nil result with nil error means
// "no enrichment"; errors are logged by callers but never abort a sync.
type Enricher interface {
	Enrich(ctx context.Context, productName string, allowedCategories []string) (*EnrichmentResult, error)
}

// ProductStore reads products and opens transactional units of work.
// The external ORM owns the schema; the engine only reads attributes and
// writes the remote-linkage fields.
type ProductStore interface {
	ListEnabled(ctx context.Context) ([]*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*Product, error)
	Begin(ctx context.Context) (ProductTx, error)
}

// ProductTx is one chunk's commit-or-rollback boundary. All remote-linkage
// writes of a chunk go through it; the runner commits even when the chunk
// had per-record errors and rolls back only on a chunk-level crash.
//
// The methods mirror the state-machine operations: a failed attempt only
// sets the error field and never touches the prior successful-state fields.
type ProductTx interface {
	SetProductError(ctx context.Context, id int64, msg string) error
	ClearProductError(ctx context.Context, id int64) error
	SetProductRemoteID(ctx context.Context, id int64, remoteID int64) error
	ClearProductRemoteID(ctx context.Context, id int64) error
	MarkProductSynced(ctx context.Context, id int64, remoteID int64, at time.Time) error

	SetVariantError(ctx context.Context, id int64, msg string) error
	ClearVariantError(ctx context.Context, id int64) error
	SetVariantRemoteID(ctx context.Context, id int64, remoteID int64) error
	ClearVariantRemoteID(ctx context.Context, id int64) error
	MarkVariantSynced(ctx context.Context, id int64, remoteID int64, at time.Time) error

	Commit() error
	Rollback() error
}
