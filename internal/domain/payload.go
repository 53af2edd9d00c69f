package domain

// ProductPayload is the typed create-or-update body for a remote product.
// The remote API distinguishes an omitted field from an emptied one, so
// every list-valued field is nil when it carries nothing; Normalize enforces
// that before the payload is serialized.
type ProductPayload struct {
	Name          string             `json:"name"`
	SKU           string             `json:"sku"`
	Type          ProductKind        `json:"type"`
	Status        string             `json:"status"`
	Description   *string            `json:"description,omitempty"`
	RegularPrice  string             `json:"regular_price,omitempty"`
	ManageStock   *bool              `json:"manage_stock,omitempty"`
	StockQuantity *int               `json:"stock_quantity,omitempty"`
	StockStatus   string             `json:"stock_status,omitempty"`
	Images        []ImageRef         `json:"images,omitempty"`
	Attributes    []PayloadAttribute `json:"attributes,omitempty"`
	Categories    []TermRef          `json:"categories,omitempty"`
	Brands        []TermRef          `json:"product_brand,omitempty"`
}

// Normalize drops empty collections so they are omitted from the wire body
// instead of telling the remote to clear existing values
func (p *ProductPayload) Normalize() {
	if len(p.Images) == 0 {
		p.Images = nil
	}
	if len(p.Attributes) == 0 {
		p.Attributes = nil
	}
	if len(p.Categories) == 0 {
		p.Categories = nil
	}
	if len(p.Brands) == 0 {
		p.Brands = nil
	}
}

// VariationPayload is the per-variant body used inside batch calls.
// ID is set only on updates.
type VariationPayload struct {
	ID            int64                `json:"id,omitempty"`
	SKU           string               `json:"sku"`
	RegularPrice  string               `json:"regular_price,omitempty"`
	ManageStock   *bool                `json:"manage_stock,omitempty"`
	StockQuantity *int                 `json:"stock_quantity,omitempty"`
	StockStatus   string               `json:"stock_status,omitempty"`
	Attributes    []VariationAttribute `json:"attributes"`
	Image         *ImageRef            `json:"image,omitempty"`
}

// ImageRef embeds an uploaded media item into a payload
type ImageRef struct {
	ID       int64 `json:"id"`
	Position int   `json:"position"`
}

// PayloadAttribute is one attribute axis on a variable product payload
type PayloadAttribute struct {
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
}

// VariationAttribute is one (name, option) pair on a variation payload
type VariationAttribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// TermRef references a remote taxonomy term by ID
type TermRef struct {
	ID int64 `json:"id"`
}

// RemoteProduct is the subset of a remote product the engine needs
type RemoteProduct struct {
	ID   int64  `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// RemoteVariation is one entry of a remote variation list
type RemoteVariation struct {
	ID  int64  `json:"id"`
	SKU string `json:"sku"`
}

// Category is one entry of the remote category list
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Parent int64  `json:"parent"`
}

// Term is a remote taxonomy term (brand)
type Term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VariationBatch is the three-way diff dispatched in one batch call
type VariationBatch struct {
	Create []*VariationPayload `json:"create,omitempty"`
	Update []*VariationPayload `json:"update,omitempty"`
	Delete []int64             `json:"delete,omitempty"`
}

// Empty reports whether the batch carries no work at all
func (b *VariationBatch) Empty() bool {
	return len(b.Create) == 0 && len(b.Update) == 0 && len(b.Delete) == 0
}

// VariationBatchResult mirrors the batch request shape with one result
// entry per submitted item
type VariationBatchResult struct {
	Create []BatchItem `json:"create"`
	Update []BatchItem `json:"update"`
	Delete []BatchItem `json:"delete"`
}

// BatchItem is a single per-item batch outcome: either an ID on success or
// an error object on failure
type BatchItem struct {
	ID    int64       `json:"id"`
	SKU   string      `json:"sku"`
	Error *BatchError `json:"error,omitempty"`
}

// BatchError is the per-item error object of a batch response
type BatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
