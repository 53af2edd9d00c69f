package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

// PayloadBuilder assembles typed remote payloads from local products.
// Field presence is driven by the per-field sync flags: a disabled field is
// absent from the payload so the remote keeps its current value.
type PayloadBuilder struct {
	images *ImagePipeline
	brands *BrandResolver
	log    *zap.SugaredLogger
}

// NewPayloadBuilder creates a builder around the image pipeline and brand
// resolver
func NewPayloadBuilder(images *ImagePipeline, brands *BrandResolver, log *zap.SugaredLogger) *PayloadBuilder {
	return &PayloadBuilder{images: images, brands: brands, log: log}
}

// Build constructs the product payload and returns it together with the
// names of the attribute axes that participate in variation matching
// (every axis with at least one option). Image upload failures are recorded
// on the owner and leave the images key absent.
func (b *PayloadBuilder) Build(ctx context.Context, p *domain.Product, opts domain.SyncOptions, enrichment *domain.EnrichmentResult, index domain.CategoryIndex, owner Uploadable) (*domain.ProductPayload, []string) {
	kind := p.Kind()
	payload := &domain.ProductPayload{
		Name:   p.EffectiveName(),
		SKU:    p.EffectiveSKU(),
		Type:   kind,
		Status: "publish",
	}

	if opts.Description {
		desc := p.SaleDescription
		if desc == "" {
			desc = p.Description
		}
		if opts.EnrichmentOverride && enrichment != nil && enrichment.Description != "" {
			desc = enrichment.Description
		}
		payload.Description = &desc
	}

	if kind == domain.KindSimple {
		if opts.Price {
			payload.RegularPrice = formatPrice(p.ListPrice)
		}
		if variant := p.ImplicitVariant(); variant != nil && opts.Stock {
			manage := true
			qty := variant.StockQty
			payload.ManageStock = &manage
			payload.StockQuantity = &qty
			payload.StockStatus = stockStatus(qty)
		}
	}

	if opts.Image {
		if mediaID := b.images.Upload(ctx, owner); mediaID > 0 {
			payload.Images = []domain.ImageRef{{ID: mediaID, Position: 0}}
		}
	}

	var variationAttrs []string
	if kind == domain.KindVariable {
		for _, line := range p.AttributeLines {
			if len(line.Options) == 0 {
				continue
			}
			payload.Attributes = append(payload.Attributes, domain.PayloadAttribute{
				Name:      line.Name,
				Options:   line.Options,
				Visible:   true,
				Variation: true,
			})
			variationAttrs = append(variationAttrs, line.Name)
		}
		if len(variationAttrs) == 0 {
			b.log.Warnw("variable product has no variation attributes, variants will not differentiate",
				"product", p.Label())
		}
	}

	if enrichment != nil {
		b.applyEnrichment(ctx, payload, p, enrichment, index)
	}

	payload.Normalize()
	return payload, variationAttrs
}

// applyEnrichment resolves suggested category and brand names into term
// references. Categories must already exist remotely; brands are created on
// first use. Either resolution failing is logged and skipped, never fatal.
func (b *PayloadBuilder) applyEnrichment(ctx context.Context, payload *domain.ProductPayload, p *domain.Product, enrichment *domain.EnrichmentResult, index domain.CategoryIndex) {
	if name := strings.TrimSpace(enrichment.Category); name != "" {
		if id, ok := index.Resolve(name); ok {
			payload.Categories = []domain.TermRef{{ID: id}}
		} else {
			b.log.Infow("suggested category not found remotely, skipping",
				"product", p.Label(), "category", name)
		}
	}

	if name := strings.TrimSpace(enrichment.Brand); name != "" && !strings.EqualFold(name, "unknown") {
		id, err := b.brands.ResolveOrCreate(ctx, name)
		if err != nil {
			b.log.Warnw("brand resolution failed, skipping",
				"product", p.Label(), "brand", name, "error", err)
			return
		}
		payload.Brands = []domain.TermRef{{ID: id}}
	}
}

// formatPrice renders a price without trailing zeros, matching how the
// remote API expects decimal strings
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stockStatus(qty int) string {
	if qty > 0 {
		return "instock"
	}
	return "outofstock"
}
