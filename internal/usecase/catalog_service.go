package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toyshelf/backend/internal/domain"
	"github.com/toyshelf/backend/internal/metrics"
	"go.uber.org/zap"
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL           time.Duration
	DefaultPageSize    int
	TopCategoriesLimit int
	FallbackLimit      int
}

// CatalogService answers search, filter and listing requests over the catalog
type CatalogService struct {
	catalog  domain.CatalogRepository
	featured domain.FeaturedRepository
	cache    domain.CacheRepository
	logger   *zap.Logger
	config   CatalogServiceConfig
}

// NewCatalogService creates a catalog service. cache may be nil to disable result caching.
func NewCatalogService(
	catalog domain.CatalogRepository,
	featured domain.FeaturedRepository,
	cache domain.CacheRepository,
	logger *zap.Logger,
	config CatalogServiceConfig,
) *CatalogService {
	if config.CacheTTL == 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = domain.DefaultPageSize
	}
	if config.TopCategoriesLimit <= 0 {
		config.TopCategoriesLimit = 6
	}
	if config.FallbackLimit <= 0 {
		config.FallbackLimit = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CatalogService{
		catalog:  catalog,
		featured: featured,
		cache:    cache,
		logger:   logger.Named("catalog"),
		config:   config,
	}
}

// Search runs a free-text query: any word matching any searchable field makes a
// candidate, titles containing the whole query rank first, then the page is cut.
func (s *CatalogService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	query := strings.TrimSpace(q.Query)
	if len([]rune(query)) < domain.MinQueryLength {
		return nil, domain.ErrInvalidQuery
	}

	page := q.Page
	if page == 0 {
		page = domain.DefaultPage
	}
	pageSize := q.PageSize
	if pageSize == 0 {
		pageSize = s.config.DefaultPageSize
	}
	if page < 1 || pageSize < 1 {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := searchCacheKey(query, page, pageSize)
	if cached, ok := s.cachedSearch(ctx, cacheKey); ok {
		cached.Query = q.Query
		return cached, nil
	}

	candidates, err := s.catalog.SearchCandidates(ctx, splitWords(query))
	if err != nil {
		return nil, err
	}
	metrics.SearchResults.Observe(float64(len(candidates)))

	results, hasMore := paginate(rankByTitle(candidates, query), page, pageSize)
	result := &domain.SearchResult{
		Results:  results,
		Count:    len(candidates),
		HasMore:  hasMore,
		Page:     page,
		PageSize: pageSize,
		Query:    q.Query,
	}

	s.logger.Debug("search",
		zap.String("query", query),
		zap.Int("candidates", result.Count),
		zap.Int("page", page),
		zap.Int("page_size", pageSize),
	)

	s.storeSearch(ctx, cacheKey, result)
	return result, nil
}

// Filter returns products matching every filter that is set
func (s *CatalogService) Filter(ctx context.Context, f domain.FilterQuery) ([]domain.Product, error) {
	return s.catalog.Filter(ctx, domain.FilterQuery{
		Gender:   strings.TrimSpace(f.Gender),
		AgeGroup: strings.TrimSpace(f.AgeGroup),
		Category: strings.TrimSpace(f.Category),
	})
}

// TopCategories returns the most common product categories
func (s *CatalogService) TopCategories(ctx context.Context) ([]string, error) {
	counts, err := s.catalog.TopCategories(ctx, s.config.TopCategoriesLimit)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(counts))
	for _, c := range counts {
		if c.Category == "" {
			continue
		}
		out = append(out, c.Category)
		if len(out) == s.config.TopCategoriesLimit {
			break
		}
	}
	return out, nil
}

// Trending returns curated trending products, or the newest products when none are curated
func (s *CatalogService) Trending(ctx context.Context) ([]domain.Product, error) {
	return s.featuredOrLatest(ctx, domain.FeaturedTrending)
}

// Top returns curated top products, or the newest products when none are curated
func (s *CatalogService) Top(ctx context.Context) ([]domain.Product, error) {
	return s.featuredOrLatest(ctx, domain.FeaturedTop)
}

func (s *CatalogService) featuredOrLatest(ctx context.Context, t domain.FeaturedType) ([]domain.Product, error) {
	curated, err := s.featured.Featured(ctx, t)
	if err != nil {
		return nil, err
	}
	if len(curated) > 0 {
		return curated, nil
	}

	s.logger.Debug("no curated products, falling back to latest", zap.String("featured_type", string(t)))
	return s.catalog.Latest(ctx, s.config.FallbackLimit)
}

// ProductByID returns a single product or domain.ErrProductNotFound
func (s *CatalogService) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrProductNotFound
	}
	return s.catalog.GetByID(ctx, id)
}

// ListProducts pages through the whole catalog in id order
func (s *CatalogService) ListProducts(ctx context.Context, page, pageSize int) (*domain.ProductPage, error) {
	if page < 1 || pageSize < 1 {
		page, pageSize = domain.DefaultPage, domain.DefaultPageSize
	}

	count, err := s.catalog.Count(ctx)
	if err != nil {
		return nil, err
	}
	results := []domain.Product{}
	if offset, ok := pageStart(count, page, pageSize); ok && offset < count {
		results, err = s.catalog.List(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}
	}

	return &domain.ProductPage{
		Results:     results,
		Count:       count,
		TotalPages:  totalPages(count, pageSize),
		CurrentPage: page,
	}, nil
}

// AgeGroups returns the standard age buckets used by Filter
func (s *CatalogService) AgeGroups() []string {
	out := make([]string, len(domain.StandardAgeGroups))
	copy(out, domain.StandardAgeGroups)
	return out
}

// searchCacheKey format: search:"<query>":<page>:<page_size>
func searchCacheKey(query string, page, pageSize int) string {
	return fmt.Sprintf("search:%q:%d:%d", query, page, pageSize)
}

func (s *CatalogService) cachedSearch(ctx context.Context, key string) (*domain.SearchResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			metrics.CacheRequests.WithLabelValues("miss").Inc()
		} else {
			metrics.CacheRequests.WithLabelValues("error").Inc()
			s.logger.Warn("search cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("discarding corrupt search cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}

	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return &result, true
}

func (s *CatalogService) storeSearch(ctx context.Context, key string, result *domain.SearchResult) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("search result not cacheable", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.config.CacheTTL); err != nil {
		s.logger.Warn("search cache write failed", zap.String("key", key), zap.Error(err))
	}
}
