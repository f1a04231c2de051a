// Command seed loads a JSON catalog seed file into Postgres.
//
//	TOYSHELF_DATABASE_DSN=postgres://... seed -file catalog.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/toyshelf/backend/config"
	"github.com/toyshelf/backend/internal/domain"
	"github.com/toyshelf/backend/internal/infrastructure/memstore"
	"github.com/toyshelf/backend/internal/infrastructure/postgres"
	"github.com/toyshelf/backend/internal/logger"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "path to the catalog seed JSON")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall import timeout")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -file catalog.json")
		os.Exit(2)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, *file, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, path string, log *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed memstore.Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	db, err := postgres.Open(ctx, postgres.Options{DSN: cfg.Database.DSN})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}
	store := postgres.NewCatalogStore(db)

	// seed ids are local to the file; the database assigns its own
	ids := make(map[int64]int64, len(seed.Products))
	existing := 0
	for _, p := range seed.Products {
		id, err := store.FindProductID(ctx, p)
		switch {
		case err == nil:
			existing++
		case errors.Is(err, domain.ErrProductNotFound):
			id, err = store.InsertProduct(ctx, p)
			if err != nil {
				return fmt.Errorf("insert %q: %w", p.Title, err)
			}
		default:
			return err
		}
		if p.ID != 0 {
			ids[p.ID] = id
		}
	}

	skipped := 0
	for _, f := range seed.Featured {
		id, ok := ids[f.ProductID]
		if !ok {
			return fmt.Errorf("featured entry references unknown product %d", f.ProductID)
		}
		f.ProductID = id
		if err := store.AddFeatured(ctx, f); err != nil {
			if errors.Is(err, domain.ErrDuplicateFeatured) {
				skipped++
				continue
			}
			return err
		}
	}

	log.Info("catalog seeded",
		zap.Int("products", len(seed.Products)-existing),
		zap.Int("products_existing", existing),
		zap.Int("featured", len(seed.Featured)-skipped),
		zap.Int("duplicates_skipped", skipped),
	)
	return nil
}
