package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CatalogRepository defines read access to the product catalog.
// Every method returning a list returns products in ascending id order unless stated otherwise.
type CatalogRepository interface {
	// SearchCandidates returns distinct products where any word is a case-insensitive
	// substring of title, description, brand, product_category, age_group or manufacturer name.
	SearchCandidates(ctx context.Context, words []string) ([]Product, error)
	Filter(ctx context.Context, filter FilterQuery) ([]Product, error)
	// TopCategories returns non-empty categories ordered by count desc, then name asc.
	TopCategories(ctx context.Context, limit int) ([]CategoryCount, error)
	// Latest returns up to limit products in descending id order.
	Latest(ctx context.Context, limit int) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, offset, limit int) ([]Product, error)
	Count(ctx context.Context) (int, error)
}

// FeaturedRepository defines access to curated product lists
type FeaturedRepository interface {
	// Featured returns the products tagged with t ordered by display order.
	Featured(ctx context.Context, t FeaturedType) ([]Product, error)
}
