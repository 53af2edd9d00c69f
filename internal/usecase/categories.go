package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

const categoryPageSize = 100

// brandTaxonomy is the taxonomy slug used by the store's brand plugin
const brandTaxonomy = "product_brand"

// CategoryResolver fetches the live remote category list. The result is
// rebuilt on every run and never cached: the remote list can change between
// runs and a stale index would silently drop valid categories.
type CategoryResolver struct {
	catalog domain.CatalogClient
	log     *zap.SugaredLogger
}

// NewCategoryResolver creates a resolver for the given catalog client
func NewCategoryResolver(catalog domain.CatalogClient, log *zap.SugaredLogger) *CategoryResolver {
	return &CategoryResolver{catalog: catalog, log: log}
}

// FetchAll pages through the category listing until a short page signals
// completion. Failure at any page fails the whole fetch: a partial index is
// worse than none because it drops valid categories during matching.
func (r *CategoryResolver) FetchAll(ctx context.Context) ([]domain.Category, error) {
	var all []domain.Category
	for page := 1; ; page++ {
		categories, err := r.catalog.ListCategories(ctx, page, categoryPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch category page %d: %w", page, err)
		}
		all = append(all, categories...)
		if len(categories) < categoryPageSize {
			break
		}
	}
	r.log.Infow("fetched remote categories", "count", len(all))
	return all, nil
}

// BrandResolver looks up brand terms in the content API's taxonomy,
// creating them on first use. The remote system is authoritative for brand
// IDs; nothing is stored locally.
type BrandResolver struct {
	session domain.ContentSession
	log     *zap.SugaredLogger
}

// NewBrandResolver creates a resolver. A nil session is allowed and makes
// every resolution fail with ErrNotConfigured.
func NewBrandResolver(session domain.ContentSession, log *zap.SugaredLogger) *BrandResolver {
	return &BrandResolver{session: session, log: log}
}

// ResolveOrCreate returns the ID of the brand term with the given name,
// creating it if absent. The server-side search is fuzzy, so only an exact
// case-insensitive name match among the results is accepted. Returns
// exactly one ID or an error, never a partial outcome.
func (r *BrandResolver) ResolveOrCreate(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, &domain.ValidationError{Field: "brand", Message: "name is empty"}
	}
	if r.session == nil {
		return 0, domain.ErrNotConfigured
	}

	terms, err := r.session.SearchTerms(ctx, brandTaxonomy, name)
	if err != nil {
		return 0, fmt.Errorf("brand search failed for %q: %w", name, err)
	}
	for _, term := range terms {
		if strings.EqualFold(term.Name, name) {
			return term.ID, nil
		}
	}

	term, err := r.session.CreateTerm(ctx, brandTaxonomy, name)
	if err != nil {
		return 0, fmt.Errorf("brand creation failed for %q: %w", name, err)
	}
	r.log.Infow("created brand term", "name", name, "id", term.ID)
	return term.ID, nil
}
