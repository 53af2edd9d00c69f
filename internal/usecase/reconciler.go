package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

// RunContext carries the per-run category knowledge: the case-preserving
// name list handed to the enricher and the lookup index used to resolve
// suggestions. Built once per run from the live remote list.
type RunContext struct {
	Index         domain.CategoryIndex
	CategoryNames []string
}

// Reconciler drives one product through the sync state machine: clear,
// enrich, prepare, locate, upsert, persist, cascade. All store writes go
// through the chunk's transaction; the in-memory product is updated in
// lockstep so later steps observe earlier outcomes.
type Reconciler struct {
	catalog  domain.CatalogClient
	enricher domain.Enricher
	builder  *PayloadBuilder
	log      *zap.SugaredLogger
}

// NewReconciler creates a reconciler. enricher may be nil when enrichment
// is disabled.
func NewReconciler(catalog domain.CatalogClient, enricher domain.Enricher, builder *PayloadBuilder, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{catalog: catalog, enricher: enricher, builder: builder, log: log}
}

// SyncProduct reconciles one product against the remote catalog. A non-nil
// error means the product failed and its error field was recorded; variant
// failures during the cascade do not downgrade a successful parent.
func (r *Reconciler) SyncProduct(ctx context.Context, tx domain.ProductTx, p *domain.Product, opts domain.SyncOptions, rc *RunContext) error {
	log := r.log.With("product", p.Label())

	p.SyncError = ""
	if err := tx.ClearProductError(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to clear sync error: %w", err)
	}

	var enrichment *domain.EnrichmentResult
	if r.enricher != nil {
		res, err := r.enricher.Enrich(ctx, p.EffectiveName(), rc.CategoryNames)
		if err != nil {
			log.Warnw("enrichment failed, continuing without it", "error", err)
		} else {
			enrichment = res
		}
	}

	payload, variationAttrs := r.builder.Build(ctx, p, opts, enrichment, rc.Index, productUploadable{ctx: ctx, tx: tx, p: p})
	if strings.TrimSpace(payload.Name) == "" {
		return r.fail(ctx, tx, p, "Cannot sync: product has no name.")
	}

	remoteID, err := r.locate(ctx, tx, p, log)
	if err != nil {
		return err
	}

	var remote *domain.RemoteProduct
	if remoteID != 0 {
		remote, err = r.catalog.UpdateProduct(ctx, remoteID, payload)
	} else {
		remote, err = r.catalog.CreateProduct(ctx, payload)
	}
	if err != nil {
		return r.fail(ctx, tx, p, fmt.Sprintf("Sync failed: %v", err))
	}

	now := time.Now().UTC()
	p.RemoteID = remote.ID
	p.LastSyncAt = &now
	if err := tx.MarkProductSynced(ctx, p.ID, remote.ID, now); err != nil {
		return fmt.Errorf("failed to persist sync state: %w", err)
	}
	if p.SyncError != "" {
		// keep an image-upload failure visible next to the success state
		if err := tx.SetProductError(ctx, p.ID, p.SyncError); err != nil {
			return fmt.Errorf("failed to persist sync error: %w", err)
		}
	}
	log.Infow("product synced", "remote_id", remote.ID)

	if payload.Type == domain.KindVariable {
		if ok := r.syncVariations(ctx, tx, p, remote.ID, variationAttrs, opts); !ok {
			log.Warnw("variation sync completed with errors")
		}
	}
	return nil
}

// locate resolves the remote counterpart ID: verify the stored ID, clear it
// on an explicit not-found, then fall back to a SKU search and adopt a
// match. Returns 0 when no counterpart exists.
func (r *Reconciler) locate(ctx context.Context, tx domain.ProductTx, p *domain.Product, log *zap.SugaredLogger) (int64, error) {
	remoteID := p.RemoteID
	if remoteID != 0 {
		_, err := r.catalog.GetProduct(ctx, remoteID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound):
			log.Infow("stored remote id no longer exists, clearing", "remote_id", remoteID)
			remoteID = 0
			p.RemoteID = 0
			if err := tx.ClearProductRemoteID(ctx, p.ID); err != nil {
				return 0, fmt.Errorf("failed to clear remote id: %w", err)
			}
		default:
			// assume transient and keep the stored id
			log.Warnw("remote id check failed, keeping stored id", "remote_id", remoteID, "error", err)
		}
	}

	if remoteID == 0 && p.SKU != "" {
		found, err := r.catalog.FindProductBySKU(ctx, p.SKU)
		switch {
		case err == nil:
			remoteID = found.ID
			p.RemoteID = found.ID
			if err := tx.SetProductRemoteID(ctx, p.ID, found.ID); err != nil {
				return 0, fmt.Errorf("failed to adopt remote id: %w", err)
			}
			log.Infow("adopted existing remote product by SKU", "remote_id", found.ID)
		case errors.Is(err, domain.ErrNotFound):
		default:
			log.Warnw("SKU lookup failed, will create", "error", err)
		}
	}
	return remoteID, nil
}

func (r *Reconciler) fail(ctx context.Context, tx domain.ProductTx, p *domain.Product, msg string) error {
	p.SyncError = msg
	if err := tx.SetProductError(ctx, p.ID, msg); err != nil {
		r.log.Errorw("failed to record sync error", "product", p.Label(), "error", err)
	}
	return errors.New(msg)
}

// productUploadable routes image failures to a product's error field
type productUploadable struct {
	ctx context.Context
	tx  domain.ProductTx
	p   *domain.Product
}

func (u productUploadable) ImageBytes() []byte { return u.p.Image }
func (u productUploadable) OwnerLabel() string { return fmt.Sprintf("product-%d", u.p.ID) }
func (u productUploadable) RecordError(msg string) {
	u.p.SyncError = msg
	_ = u.tx.SetProductError(u.ctx, u.p.ID, msg)
}

// variantUploadable routes image failures to a variant's error field
type variantUploadable struct {
	ctx context.Context
	tx  domain.ProductTx
	v   *domain.Variant
}

func (u variantUploadable) ImageBytes() []byte { return u.v.Image }
func (u variantUploadable) OwnerLabel() string { return fmt.Sprintf("variant-%d", u.v.ID) }
func (u variantUploadable) RecordError(msg string) {
	u.v.SyncError = msg
	_ = u.tx.SetVariantError(u.ctx, u.v.ID, msg)
}
