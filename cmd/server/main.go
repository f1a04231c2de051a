package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/toyshelf/backend/config"
	httpDelivery "github.com/toyshelf/backend/internal/delivery/http"
	"github.com/toyshelf/backend/internal/domain"
	"github.com/toyshelf/backend/internal/infrastructure/cache"
	"github.com/toyshelf/backend/internal/infrastructure/memstore"
	"github.com/toyshelf/backend/internal/infrastructure/postgres"
	"github.com/toyshelf/backend/internal/logger"
	"github.com/toyshelf/backend/internal/usecase"
	"go.uber.org/zap"
)

// catalogStore is satisfied by both the postgres and in-memory stores
type catalogStore interface {
	domain.CatalogRepository
	domain.FeaturedRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting ToyShelf backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
	)

	ctx := context.Background()

	store, storeMode, closeStore, err := openCatalog(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open catalog", zap.Error(err))
	}
	defer closeStore()

	resultCache, cacheCloser, err := openCache(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open cache", zap.Error(err))
	}
	defer cacheCloser.Close()

	catalogService := usecase.NewCatalogService(
		store,
		store,
		resultCache,
		log,
		usecase.CatalogServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			DefaultPageSize:    cfg.Search.DefaultPageSize,
			TopCategoriesLimit: cfg.Search.TopCategoriesLimit,
			FallbackLimit:      cfg.Search.FallbackLimit,
		},
	)

	handler := httpDelivery.NewHandler(catalogService, log, storeMode)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server listening", zap.String("addr", addr), zap.String("store", storeMode))
	if err := router.Run(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// openCatalog connects to Postgres when a DSN is configured and otherwise
// serves the in-memory catalog, optionally seeded from a file.
func openCatalog(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogStore, string, func(), error) {
	if cfg.Database.DSN != "" {
		db, err := postgres.Open(ctx, postgres.Options{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, "", nil, err
		}
		if cfg.Database.EnsureSchema {
			if err := postgres.EnsureSchema(ctx, db); err != nil {
				_ = db.Close()
				return nil, "", nil, err
			}
		}
		return postgres.NewCatalogStore(db), "postgres", closeDB(db, log), nil
	}

	if cfg.Catalog.SeedFile != "" {
		store, err := memstore.LoadSeedFile(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, "", nil, err
		}
		n, _ := store.Count(ctx)
		log.Info("loaded catalog seed", zap.String("file", cfg.Catalog.SeedFile), zap.Int("products", n))
		return store, "memory", func() {}, nil
	}

	log.Warn("no database configured, serving an empty in-memory catalog")
	return memstore.New(), "memory", func() {}, nil
}

func closeDB(db *sql.DB, log *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openCache returns the configured search result cache, or nil when caching is disabled
func openCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, io.Closer, error) {
	switch cfg.Cache.Type {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		c := cache.NewRedisCache(client, "toyshelf:")
		return c, c, nil
	case "memory":
		c := cache.NewMemoryCache(0)
		return c, c, nil
	default:
		return nil, nopCloser{}, nil
	}
}
