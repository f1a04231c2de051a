package domain

import "errors"

var (
	// ErrInvalidQuery is returned when a free-text query is missing or shorter than MinQueryLength
	ErrInvalidQuery = errors.New("search query must be at least 2 characters")

	// ErrProductNotFound is returned when a product cannot be found in the catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrDuplicateFeatured is returned when a product is featured twice under the same type
	ErrDuplicateFeatured = errors.New("product already featured for this type")

	// ErrInvalidFeaturedType is returned for featured types other than trending and top
	ErrInvalidFeaturedType = errors.New("invalid featured type")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCatalogUnavailable is returned when the catalog store query fails
	ErrCatalogUnavailable = errors.New("catalog store unavailable")
)
