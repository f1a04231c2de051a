package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/toyshelf/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	msgInvalidQuery  = "Please provide a search query with at least 2 characters"
	msgInvalidPaging = "page and page_size must be positive integers"
	msgNotFound      = "Product not found"
	msgUnavailable   = "Catalog temporarily unavailable"
	msgInternal      = "Internal server error"
)

// CatalogUsecase is the catalog behaviour the HTTP layer depends on
type CatalogUsecase interface {
	Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error)
	Filter(ctx context.Context, f domain.FilterQuery) ([]domain.Product, error)
	TopCategories(ctx context.Context) ([]string, error)
	Trending(ctx context.Context) ([]domain.Product, error)
	Top(ctx context.Context) ([]domain.Product, error)
	ProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) (*domain.ProductPage, error)
	AgeGroups() []string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog   CatalogUsecase
	logger    *zap.Logger
	storeMode string
}

// NewHandler creates a new HTTP handler. storeMode is reported by the health check.
func NewHandler(catalog CatalogUsecase, logger *zap.Logger, storeMode string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:   catalog,
		logger:    logger.Named("http"),
		storeMode: storeMode,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "toyshelf-backend",
		"version": "1.0.0",
		"store":   h.storeMode,
	})
}

// SearchProducts handles GET /products/search?q=&page=&page_size=
func (h *Handler) SearchProducts(c *gin.Context) {
	page, okPage := optionalPositiveInt(c.Query("page"))
	pageSize, okSize := optionalPositiveInt(c.Query("page_size"))
	if !okPage || !okSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPaging})
		return
	}

	result, err := h.catalog.Search(c.Request.Context(), domain.SearchQuery{
		Query:    c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// FilterProducts handles GET /products/filter?gender=&age_group=&category=
func (h *Handler) FilterProducts(c *gin.Context) {
	products, err := h.catalog.Filter(c.Request.Context(), domain.FilterQuery{
		Gender:   c.Query("gender"),
		AgeGroup: c.Query("age_group"),
		Category: c.Query("category"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// Categories handles GET /products/categories
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.catalog.TopCategories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// AgeGroups handles GET /products/age-groups
func (h *Handler) AgeGroups(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.AgeGroups())
}

// Trending handles GET /products/trending
func (h *Handler) Trending(c *gin.Context) {
	h.productList(c, h.catalog.Trending)
}

// Top handles GET /products/top
func (h *Handler) Top(c *gin.Context) {
	h.productList(c, h.catalog.Top)
}

func (h *Handler) productList(c *gin.Context, fetch func(context.Context) ([]domain.Product, error)) {
	products, err := fetch(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ProductDetail handles GET /products/:id
func (h *Handler) ProductDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}

	product, err := h.catalog.ProductByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts handles GET /products?page=&page_size=. Unparseable values fall back to the first page.
func (h *Handler) ListProducts(c *gin.Context) {
	page := intOrDefault(c.Query("page"), domain.DefaultPage)
	pageSize := intOrDefault(c.Query("page_size"), domain.DefaultPageSize)

	result, err := h.catalog.ListProducts(c.Request.Context(), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeError maps domain errors to HTTP responses
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidQuery})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPaging})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	case errors.Is(err, domain.ErrCatalogUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("catalog unavailable",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

// optionalPositiveInt parses an optional query value. Empty yields 0 (use default).
func optionalPositiveInt(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// intOrDefault parses s, returning def when empty and 0 when malformed
func intOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
