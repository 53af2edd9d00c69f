package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/woosync/backend/config"
	httpDelivery "github.com/woosync/backend/internal/delivery/http"
	"github.com/woosync/backend/internal/domain"
	"github.com/woosync/backend/internal/infrastructure/openai"
	"github.com/woosync/backend/internal/infrastructure/store"
	"github.com/woosync/backend/internal/infrastructure/woocommerce"
	"github.com/woosync/backend/internal/infrastructure/wordpress"
	"github.com/woosync/backend/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// .env is optional, real deployments set env vars directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("starting woosync backend",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"store", cfg.Store.Type,
		"sync_active", cfg.Sync.Active)

	productStore, err := buildStore(cfg)
	if err != nil {
		sugar.Fatalw("failed to initialize product store", "error", err)
	}

	ctx := context.Background()

	catalog, err := woocommerce.NewClient(cfg.Woo.URL, cfg.Woo.ConsumerKey, cfg.Woo.ConsumerSecret, sugar)
	if err != nil {
		// Keep serving: the connection test endpoint stays useful while
		// the remote store is down or misconfigured.
		sugar.Errorw("catalog API unavailable at startup", "error", err)
	}

	session, err := wordpress.NewSession(cfg.Woo.URL, cfg.WordPress.Username, cfg.WordPress.AppPassword, sugar)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotConfigured):
		sugar.Infow("content API credentials not set, image upload and brands disabled")
		session = nil
	default:
		sugar.Errorw("content API unavailable at startup", "error", err)
		session = nil
	}

	var enricher domain.Enricher
	if cfg.Enrichment.Enabled {
		enricher = openai.NewEnricher(cfg.Enrichment.APIKey, cfg.Enrichment.Model, cfg.Enrichment.BaseURL, sugar)
		sugar.Infow("enrichment enabled", "model", cfg.Enrichment.Model)
	}

	// wordpress.Session is used through the domain port; a typed nil must
	// not leak into the interface values
	var content domain.ContentSession
	var contentPinger httpDelivery.Pinger
	if session != nil {
		content = session
		contentPinger = session
	}
	var catalogPinger httpDelivery.Pinger
	if catalog != nil {
		catalogPinger = catalog
	}

	images := usecase.NewImagePipeline(content, sugar)
	brands := usecase.NewBrandResolver(content, sugar)
	builder := usecase.NewPayloadBuilder(images, brands, sugar)
	reconciler := usecase.NewReconciler(catalog, enricher, builder, sugar)
	categories := usecase.NewCategoryResolver(catalog, sugar)

	opts := domain.SyncOptions{
		Stock:              cfg.Sync.Stock,
		Price:              cfg.Sync.Price,
		Description:        cfg.Sync.Description,
		Image:              cfg.Sync.Image,
		EnrichmentOverride: cfg.Sync.EnrichmentOverride,
	}
	runner := usecase.NewRunner(productStore, reconciler, categories, opts, cfg.Sync.ChunkSize, cfg.Sync.ChunkPause, sugar)

	if cfg.Sync.Active && cfg.Sync.Interval > 0 {
		sugar.Infow("scheduled sync enabled", "interval", cfg.Sync.Interval)
		go runner.RunPeriodically(ctx, cfg.Sync.Interval)
	}

	handler := httpDelivery.NewHandler(runner, catalogPinger, contentPinger, sugar)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	sugar.Infow("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		sugar.Fatalw("server stopped", "error", err)
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func buildStore(cfg *config.Config) (domain.ProductStore, error) {
	switch cfg.Store.Type {
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewPostgresStore(cfg.Store.PostgresURL)
	}
}
