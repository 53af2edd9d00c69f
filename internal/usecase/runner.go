package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

// Runner executes batched sync runs. Products are processed in stable ID
// order in fixed-size chunks, each chunk under its own transaction so a
// crash loses at most one chunk of progress. Runs are serialized: a
// scheduled run blocks until a manual one finishes and vice versa.
type Runner struct {
	store      domain.ProductStore
	reconciler *Reconciler
	categories *CategoryResolver
	opts       domain.SyncOptions
	chunkSize  int
	chunkPause time.Duration
	log        *zap.SugaredLogger

	runMu  sync.Mutex
	lastMu sync.RWMutex
	last   *domain.RunSummary
}

// NewRunner creates a runner with the given chunking parameters
func NewRunner(store domain.ProductStore, reconciler *Reconciler, categories *CategoryResolver, opts domain.SyncOptions, chunkSize int, chunkPause time.Duration, log *zap.SugaredLogger) *Runner {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	return &Runner{
		store:      store,
		reconciler: reconciler,
		categories: categories,
		opts:       opts,
		chunkSize:  chunkSize,
		chunkPause: chunkPause,
		log:        log,
	}
}

// RunManual syncs the named products, or every enabled product when ids is
// empty. withImagesOnly drops products without an image before chunking.
// An empty selection is an error for manual runs so the caller learns
// nothing matched.
func (r *Runner) RunManual(ctx context.Context, ids []int64, withImagesOnly bool) (*domain.RunSummary, error) {
	var (
		products []*domain.Product
		err      error
	)
	if len(ids) > 0 {
		products, err = r.store.GetByIDs(ctx, ids)
	} else {
		products, err = r.store.ListEnabled(ctx)
	}
	if err != nil {
		return nil, err
	}
	return r.run(ctx, products, withImagesOnly, true)
}

// RunScheduled syncs every enabled product. An empty selection is a quiet
// no-op: scheduled runs finding nothing is normal.
func (r *Runner) RunScheduled(ctx context.Context) (*domain.RunSummary, error) {
	products, err := r.store.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, products, false, false)
}

// RunPeriodically triggers a scheduled run every interval until the context
// is cancelled. An interval of zero or less disables the loop.
func (r *Runner) RunPeriodically(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunScheduled(ctx); err != nil {
				r.log.Errorw("scheduled sync failed", "error", err)
			}
		}
	}
}

// LastRun returns the summary of the most recently finished run, or nil
// when no run has completed yet
func (r *Runner) LastRun() *domain.RunSummary {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	return r.last
}

func (r *Runner) run(ctx context.Context, products []*domain.Product, withImagesOnly, requireMatch bool) (*domain.RunSummary, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	summary := &domain.RunSummary{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	log := r.log.With("run_id", summary.RunID)

	var eligible []*domain.Product
	for _, p := range products {
		if !p.SyncEnabled || (withImagesOnly && len(p.Image) == 0) {
			summary.Skipped++
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) == 0 {
		if requireMatch {
			return nil, domain.ErrNothingToSync
		}
		summary.FinishedAt = time.Now().UTC()
		r.storeLast(summary)
		log.Infow("nothing to sync", "skipped", summary.Skipped)
		return summary, nil
	}

	rc := r.buildRunContext(ctx, log)

	log.Infow("sync run started", "products", len(eligible), "chunk_size", r.chunkSize)
	for start := 0; start < len(eligible); start += r.chunkSize {
		end := start + r.chunkSize
		if end > len(eligible) {
			end = len(eligible)
		}
		r.syncChunk(ctx, eligible[start:end], rc, summary, log)
		if end < len(eligible) && r.chunkPause > 0 {
			time.Sleep(r.chunkPause)
		}
	}

	summary.FinishedAt = time.Now().UTC()
	r.storeLast(summary)
	log.Infow("sync run finished",
		"attempted", summary.Attempted, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

// buildRunContext fetches the live category list once for the whole run.
// A failed fetch degrades to an empty index rather than aborting: products
// still sync, only enrichment category suggestions stop resolving.
func (r *Runner) buildRunContext(ctx context.Context, log *zap.SugaredLogger) *RunContext {
	categories, err := r.categories.FetchAll(ctx)
	if err != nil {
		log.Warnw("category fetch failed, suggestions will not resolve this run", "error", err)
		return &RunContext{Index: domain.CategoryIndex{}}
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return &RunContext{Index: domain.NewCategoryIndex(categories), CategoryNames: names}
}

// syncChunk processes one chunk inside a single transaction. Per-product
// failures are recorded and committed with the rest of the chunk; only a
// crash rolls the chunk back, and the run continues with the next one.
func (r *Runner) syncChunk(ctx context.Context, chunk []*domain.Product, rc *RunContext, summary *domain.RunSummary, log *zap.SugaredLogger) {
	summary.Attempted += len(chunk)

	tx, err := r.store.Begin(ctx)
	if err != nil {
		log.Errorw("failed to open chunk transaction", "error", err)
		r.failChunk(summary, chunk)
		return
	}

	var (
		succeeded int
		failed    []domain.FailedProduct
	)
	crashed := func() (crashed bool) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Errorw("chunk crashed, rolling back", "panic", rec)
				crashed = true
			}
		}()
		for _, p := range chunk {
			if err := r.reconciler.SyncProduct(ctx, tx, p, r.opts, rc); err != nil {
				log.Warnw("product sync failed", "product", p.Label(), "error", err)
				failed = append(failed, domain.FailedProduct{ID: p.ID, Name: p.EffectiveName()})
				continue
			}
			succeeded++
		}
		return false
	}()
	if crashed {
		if err := tx.Rollback(); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("chunk rollback failed", "error", err)
		}
		r.failChunk(summary, chunk)
		return
	}
	if err := tx.Commit(); err != nil {
		log.Errorw("chunk commit failed", "error", err)
		r.failChunk(summary, chunk)
		return
	}
	summary.Succeeded += succeeded
	summary.Failed += len(failed)
	summary.FailedProducts = append(summary.FailedProducts, failed...)
}

func (r *Runner) failChunk(summary *domain.RunSummary, chunk []*domain.Product) {
	summary.Failed += len(chunk)
	for _, p := range chunk {
		summary.FailedProducts = append(summary.FailedProducts, domain.FailedProduct{ID: p.ID, Name: p.EffectiveName()})
	}
}

func (r *Runner) storeLast(summary *domain.RunSummary) {
	r.lastMu.Lock()
	r.last = summary
	r.lastMu.Unlock()
}
