package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/toyshelf/backend/internal/domain"
)

// Options configures the connection pool
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects through the pgx stdlib driver and pings the server
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("%w: empty dsn", domain.ErrCatalogUnavailable)
	}

	db, err := sql.Open("pgx", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	return db, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS manufacturers (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		email VARCHAR(254) UNIQUE,
		phone VARCHAR(20) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		manufacturer_id BIGINT REFERENCES manufacturers(id) ON DELETE CASCADE,
		product_category VARCHAR(100) NOT NULL DEFAULT '',
		age_group VARCHAR(20) NOT NULL DEFAULT '',
		standardized_age VARCHAR(20) NOT NULL DEFAULT '',
		brand VARCHAR(100) NOT NULL DEFAULT '',
		gender CHAR(1) NOT NULL DEFAULT 'U' CHECK (gender IN ('M', 'F', 'U')),
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(10, 2) NOT NULL DEFAULT 0,
		image_url TEXT,
		video_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS featured_products (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		featured_type VARCHAR(10) NOT NULL CHECK (featured_type IN ('trending', 'top')),
		display_order INTEGER NOT NULL DEFAULT 0 CHECK (display_order >= 0),
		UNIQUE (product_id, featured_type)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (product_category)`,
	`CREATE INDEX IF NOT EXISTS idx_featured_type_order ON featured_products (featured_type, display_order)`,
}

// EnsureSchema creates the catalog tables when they do not exist yet
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
