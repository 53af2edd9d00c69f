package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProductKind distinguishes simple products from variable ones
type ProductKind string

const (
	KindSimple   ProductKind = "simple"
	KindVariable ProductKind = "variable"
)

// Product is the template-level catalog entity read from the ERP store
type Product struct {
	ID              int64           `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	SKU             string          `json:"sku" db:"sku"`
	ListPrice       float64         `json:"listPrice" db:"list_price"`
	Description     string          `json:"description" db:"description"`
	SaleDescription string          `json:"saleDescription" db:"sale_description"`
	Image           []byte          `json:"-" db:"image"`
	SyncEnabled     bool            `json:"syncEnabled" db:"sync_enabled"`
	AttributeLines  []AttributeLine `json:"attributeLines"`
	Variants        []*Variant      `json:"variants"`

	// Remote linkage. RemoteID is zero until the first successful create
	// and is only ever cleared by an explicit not-found from the remote.
	RemoteID   int64      `json:"remoteId" db:"remote_id"`
	LastSyncAt *time.Time `json:"lastSyncAt" db:"last_sync_at"`
	SyncError  string     `json:"syncError" db:"sync_error"`
}

// Kind derives the product kind from the variant count
func (p *Product) Kind() ProductKind {
	if len(p.Variants) > 1 {
		return KindVariable
	}
	return KindSimple
}

// EffectiveName returns the trimmed name or a generated placeholder.
// The remote API rejects empty names.
func (p *Product) EffectiveName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Product %d", p.ID)
}

// EffectiveSKU returns the SKU or a deterministic template fallback
func (p *Product) EffectiveSKU() string {
	if p.SKU != "" {
		return p.SKU
	}
	return fmt.Sprintf("tmpl-%d", p.ID)
}

// ImplicitVariant returns the single variant of a simple product, if any
func (p *Product) ImplicitVariant() *Variant {
	if len(p.Variants) == 1 {
		return p.Variants[0]
	}
	return nil
}

// Label identifies the product in logs and error messages
func (p *Product) Label() string {
	sku := p.SKU
	if sku == "" {
		sku = "N/A"
	}
	return fmt.Sprintf("'%s' (ID:%d, SKU:%s)", p.Name, p.ID, sku)
}

// AttributeLine is a named axis on a template with an ordered option set
type AttributeLine struct {
	Name    string   `json:"name" db:"name"`
	Options []string `json:"options"`
}

// AttributeValue is one (attribute, option) selection on a variant
type AttributeValue struct {
	Name   string `json:"name" db:"attribute_name"`
	Option string `json:"option" db:"attribute_option"`
}

// Variant is one sellable configuration of a variable product
type Variant struct {
	ID         int64            `json:"id" db:"id"`
	ProductID  int64            `json:"productId" db:"product_id"`
	SKU        string           `json:"sku" db:"sku"`
	Price      float64          `json:"price" db:"price"`
	StockQty   int              `json:"stockQty" db:"stock_qty"`
	Attributes []AttributeValue `json:"attributes"`
	Image      []byte           `json:"-" db:"image"`

	// Remote linkage, distinct from the parent's fields: a variant's
	// failure must never overwrite the parent's and vice versa.
	RemoteID   int64      `json:"remoteId" db:"remote_id"`
	LastSyncAt *time.Time `json:"lastSyncAt" db:"last_sync_at"`
	SyncError  string     `json:"syncError" db:"sync_error"`
}

// EffectiveSKU returns the SKU or a deterministic per-variant fallback
func (v *Variant) EffectiveSKU() string {
	if v.SKU != "" {
		return v.SKU
	}
	return fmt.Sprintf("var-%d", v.ID)
}

// EnrichmentResult holds best-effort AI suggestions for a single product.
// It is consumed once while building a payload and never persisted.
type EnrichmentResult struct {
	Description string `json:"description"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
}

// CategoryIndex maps lowercased remote category names to their IDs.
// Rebuilt from the live category list on every run, never cached across runs.
type CategoryIndex map[string]int64

// NewCategoryIndex builds an index from a fetched category list
func NewCategoryIndex(categories []Category) CategoryIndex {
	idx := make(CategoryIndex, len(categories))
	for _, c := range categories {
		idx[normalizeKey(c.Name)] = c.ID
	}
	return idx
}

// Resolve looks up a category name case-insensitively
func (idx CategoryIndex) Resolve(name string) (int64, bool) {
	id, ok := idx[normalizeKey(name)]
	return id, ok
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
