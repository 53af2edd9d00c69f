package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/woosync/backend/internal/domain"
)

const variationPageSize = 100

// syncVariations diffs a parent's local variants against the remote
// variation list and applies the result in a single batch call. The remote
// list is the source of truth for membership; SKU is the identity key.
// Returns false when any variant or the fetch/batch step recorded an error.
func (r *Reconciler) syncVariations(ctx context.Context, tx domain.ProductTx, p *domain.Product, parentID int64, variationAttrs []string, opts domain.SyncOptions) bool {
	log := r.log.With("product", p.Label())

	remoteBySKU := make(map[string]domain.RemoteVariation)
	for page := 1; ; page++ {
		remotes, err := r.catalog.ListVariations(ctx, parentID, page, variationPageSize)
		if err != nil {
			msg := fmt.Sprintf("Failed to fetch existing variations: %v", err)
			p.SyncError = msg
			_ = tx.SetProductError(ctx, p.ID, msg)
			return false
		}
		for _, rv := range remotes {
			remoteBySKU[rv.SKU] = rv
		}
		if len(remotes) < variationPageSize {
			break
		}
	}

	eligible := make(map[string]bool, len(variationAttrs))
	for _, name := range variationAttrs {
		eligible[name] = true
	}

	var batch domain.VariationBatch
	localBySKU := make(map[string]*domain.Variant, len(p.Variants))
	anyErr := false
	dupFound := false

	for _, v := range p.Variants {
		v.SyncError = ""
		_ = tx.ClearVariantError(ctx, v.ID)

		sku := v.EffectiveSKU()
		if first, dup := localBySKU[sku]; dup {
			msg := fmt.Sprintf("Duplicate SKU '%s' among variants.", sku)
			v.SyncError = msg
			_ = tx.SetVariantError(ctx, v.ID, msg)
			first.SyncError = msg
			_ = tx.SetVariantError(ctx, first.ID, msg)
			p.SyncError = msg
			_ = tx.SetProductError(ctx, p.ID, msg)
			log.Errorw("duplicate variant SKU, aborting variation batch", "sku", sku)
			dupFound = true
			anyErr = true
			continue
		}

		attrs := make([]domain.VariationAttribute, 0, len(v.Attributes))
		for _, av := range v.Attributes {
			if eligible[av.Name] {
				attrs = append(attrs, domain.VariationAttribute{Name: av.Name, Option: av.Option})
			}
		}
		if len(eligible) > 0 && len(attrs) == 0 {
			msg := "Variant has no matchable variation attributes."
			v.SyncError = msg
			_ = tx.SetVariantError(ctx, v.ID, msg)
			anyErr = true
			continue
		}

		vp := &domain.VariationPayload{SKU: sku, Attributes: attrs}
		if opts.Price {
			vp.RegularPrice = formatPrice(v.Price)
		}
		if opts.Stock {
			manage := true
			qty := v.StockQty
			vp.ManageStock = &manage
			vp.StockQuantity = &qty
			vp.StockStatus = stockStatus(qty)
		}
		if opts.Image {
			if mediaID := r.builder.images.Upload(ctx, variantUploadable{ctx: ctx, tx: tx, v: v}); mediaID > 0 {
				vp.Image = &domain.ImageRef{ID: mediaID}
			}
		}

		localBySKU[sku] = v
		if rv, ok := remoteBySKU[sku]; ok {
			vp.ID = rv.ID
			if v.RemoteID != rv.ID {
				// correct a stale local id before the batch call
				v.RemoteID = rv.ID
				_ = tx.SetVariantRemoteID(ctx, v.ID, rv.ID)
			}
			batch.Update = append(batch.Update, vp)
		} else {
			if v.RemoteID != 0 {
				v.RemoteID = 0
				_ = tx.ClearVariantRemoteID(ctx, v.ID)
			}
			batch.Create = append(batch.Create, vp)
		}
	}

	if dupFound {
		return false
	}

	for sku, rv := range remoteBySKU {
		if _, ok := localBySKU[sku]; !ok {
			batch.Delete = append(batch.Delete, rv.ID)
		}
	}
	sort.Slice(batch.Delete, func(i, j int) bool { return batch.Delete[i] < batch.Delete[j] })

	if batch.Empty() {
		log.Debugw("variations already in sync")
		return !anyErr
	}

	result, err := r.catalog.BatchVariations(ctx, parentID, &batch)
	if err != nil {
		msg := fmt.Sprintf("Variation batch call failed: %v", err)
		p.SyncError = msg
		_ = tx.SetProductError(ctx, p.ID, msg)
		for _, v := range p.Variants {
			if v.SyncError == "" {
				v.SyncError = msg
				_ = tx.SetVariantError(ctx, v.ID, msg)
			}
		}
		return false
	}

	if !r.applyBatchResult(ctx, tx, p, localBySKU, result) {
		anyErr = true
	}
	log.Infow("variations synced",
		"created", len(batch.Create), "updated", len(batch.Update), "deleted", len(batch.Delete))
	return !anyErr
}

// applyBatchResult walks the per-item batch outcomes and persists each one
// onto the matching local variant. Created items match by SKU, updated
// items by remote id with a SKU fallback; an outcome that matches nothing
// is logged and dropped.
func (r *Reconciler) applyBatchResult(ctx context.Context, tx domain.ProductTx, p *domain.Product, localBySKU map[string]*domain.Variant, result *domain.VariationBatchResult) bool {
	log := r.log.With("product", p.Label())
	now := time.Now().UTC()
	ok := true

	localByRemoteID := make(map[int64]*domain.Variant)
	for _, v := range localBySKU {
		if v.RemoteID != 0 {
			localByRemoteID[v.RemoteID] = v
		}
	}

	settle := func(item domain.BatchItem, v *domain.Variant, action string) {
		if v == nil {
			log.Warnw("batch outcome matches no local variant",
				"action", action, "remote_id", item.ID, "sku", item.SKU,
				"error", domain.ErrUnattributable)
			if item.Error != nil {
				ok = false
			}
			return
		}
		if item.Error != nil {
			msg := fmt.Sprintf("Batch %s failed: [%s] %s", action, item.Error.Code, item.Error.Message)
			v.SyncError = msg
			_ = tx.SetVariantError(ctx, v.ID, msg)
			ok = false
			return
		}
		if item.ID == 0 {
			msg := fmt.Sprintf("Unexpected batch %s response without an id.", action)
			v.SyncError = msg
			_ = tx.SetVariantError(ctx, v.ID, msg)
			ok = false
			return
		}
		imageErr := v.SyncError
		v.RemoteID = item.ID
		v.LastSyncAt = &now
		v.SyncError = imageErr
		_ = tx.MarkVariantSynced(ctx, v.ID, item.ID, now)
		if imageErr != "" {
			_ = tx.SetVariantError(ctx, v.ID, imageErr)
		}
	}

	for _, item := range result.Create {
		settle(item, localBySKU[item.SKU], "create")
	}
	for _, item := range result.Update {
		v := localByRemoteID[item.ID]
		if v == nil {
			v = localBySKU[item.SKU]
		}
		settle(item, v, "update")
	}
	for _, item := range result.Delete {
		if item.Error != nil {
			log.Warnw("batch delete failed",
				"remote_id", item.ID, "code", item.Error.Code, "message", item.Error.Message)
			ok = false
			continue
		}
		if v, stale := localByRemoteID[item.ID]; stale {
			v.RemoteID = 0
			_ = tx.ClearVariantRemoteID(ctx, v.ID)
		}
	}
	return ok
}
