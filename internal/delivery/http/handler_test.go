package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toyshelf/backend/config"
	"github.com/toyshelf/backend/internal/domain"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubCatalog is a hand-written CatalogUsecase returning canned values
type stubCatalog struct {
	searchResult *domain.SearchResult
	products     []domain.Product
	categories   []string
	page         *domain.ProductPage
	err          error

	gotSearch       domain.SearchQuery
	gotFilter       domain.FilterQuery
	gotPage         int
	gotPageSize     int
	gotID           int64
	searchCalled    bool
	productByIDHits int
}

func (s *stubCatalog) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	s.searchCalled = true
	s.gotSearch = q
	return s.searchResult, s.err
}

func (s *stubCatalog) Filter(ctx context.Context, f domain.FilterQuery) ([]domain.Product, error) {
	s.gotFilter = f
	return s.products, s.err
}

func (s *stubCatalog) TopCategories(ctx context.Context) ([]string, error) {
	return s.categories, s.err
}

func (s *stubCatalog) Trending(ctx context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) Top(ctx context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) ProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	s.productByIDHits++
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return &s.products[0], nil
}

func (s *stubCatalog) ListProducts(ctx context.Context, page, pageSize int) (*domain.ProductPage, error) {
	s.gotPage, s.gotPageSize = page, pageSize
	return s.page, s.err
}

func (s *stubCatalog) AgeGroups() []string {
	return domain.StandardAgeGroups
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"https://*.toyshelf.dev", "http://localhost:3000"},
		},
		Cache: config.CacheConfig{Type: "none"},
	}
}

// setupTestRouter creates a test router around the given catalog
func setupTestRouter(catalog CatalogUsecase) *gin.Engine {
	return SetupRouter(testConfig(), NewHandler(catalog, nil, "memory"), nil)
}

func doGet(router *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		w := doGet(setupTestRouter(&stubCatalog{}), "/health")

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "toyshelf-backend" {
			t.Errorf("service = %v, want toyshelf-backend", response["service"])
		}
		if response["store"] != "memory" {
			t.Errorf("store = %v, want memory", response["store"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(&stubCatalog{})
		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			req := httptest.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestSearchProductsEndpoint(t *testing.T) {
	t.Run("passes query and paging through", func(t *testing.T) {
		stub := &stubCatalog{searchResult: &domain.SearchResult{
			Results:  []domain.Product{{ID: 1, Title: "Robot Kit"}},
			Count:    11,
			HasMore:  true,
			Page:     2,
			PageSize: 5,
			Query:    "robot",
		}}
		w := doGet(setupTestRouter(stub), "/api/v1/products/search?q=robot&page=2&page_size=5")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, domain.SearchQuery{Query: "robot", Page: 2, PageSize: 5}, stub.gotSearch)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(11), body["count"])
		assert.Equal(t, true, body["has_more"])
		assert.Equal(t, float64(2), body["page"])
		assert.Equal(t, float64(5), body["page_size"])
		assert.Equal(t, "robot", body["query"])
		assert.Len(t, body["results"], 1)
	})

	t.Run("missing paging leaves defaults to the service", func(t *testing.T) {
		stub := &stubCatalog{searchResult: &domain.SearchResult{}}
		doGet(setupTestRouter(stub), "/api/v1/products/search?q=robot")
		assert.Equal(t, 0, stub.gotSearch.Page)
		assert.Equal(t, 0, stub.gotSearch.PageSize)
	})

	t.Run("short query is a client error", func(t *testing.T) {
		stub := &stubCatalog{err: domain.ErrInvalidQuery}
		w := doGet(setupTestRouter(stub), "/api/v1/products/search?q=a")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Please provide a search query with at least 2 characters", decodeError(t, w))
	})

	t.Run("malformed paging is rejected before searching", func(t *testing.T) {
		for _, qs := range []string{"page=abc", "page=0", "page_size=-1", "page_size=1.5"} {
			stub := &stubCatalog{}
			w := doGet(setupTestRouter(stub), "/api/v1/products/search?q=robot&"+qs)
			assert.Equal(t, http.StatusBadRequest, w.Code, qs)
			assert.False(t, stub.searchCalled, qs)
		}
	})

	t.Run("store failure is service unavailable", func(t *testing.T) {
		stub := &stubCatalog{err: domain.ErrCatalogUnavailable}
		w := doGet(setupTestRouter(stub), "/api/v1/products/search?q=robot")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("unexpected error is internal", func(t *testing.T) {
		stub := &stubCatalog{err: errors.New("boom")}
		w := doGet(setupTestRouter(stub), "/api/v1/products/search?q=robot")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeError(t, w))
	})
}

func TestFilterProductsEndpoint(t *testing.T) {
	stub := &stubCatalog{products: []domain.Product{}}
	w := doGet(setupTestRouter(stub), "/api/v1/products/filter?gender=M&age_group=3-5+Years&category=Educational")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.FilterQuery{Gender: "M", AgeGroup: "3-5 Years", Category: "Educational"}, stub.gotFilter)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListEndpoints(t *testing.T) {
	stub := &stubCatalog{
		products:   []domain.Product{{ID: 3, Title: "Kite", Gender: "U"}},
		categories: []string{"Educational", "Plush"},
	}
	router := setupTestRouter(stub)

	tests := []struct {
		path     string
		contains string
	}{
		{"/api/v1/products/categories", `["Educational","Plush"]`},
		{"/api/v1/products/age-groups", `"0-18 Months"`},
		{"/api/v1/products/trending", `"title":"Kite"`},
		{"/api/v1/products/top", `"id":3`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doGet(router, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestProductDetailEndpoint(t *testing.T) {
	t.Run("returns product", func(t *testing.T) {
		stub := &stubCatalog{products: []domain.Product{{ID: 42, Title: "Kite"}}}
		w := doGet(setupTestRouter(stub), "/api/v1/products/42")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(42), stub.gotID)
		assert.Contains(t, w.Body.String(), `"manufacturer_name":null`)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		stub := &stubCatalog{err: domain.ErrProductNotFound}
		w := doGet(setupTestRouter(stub), "/api/v1/products/999")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Product not found", decodeError(t, w))
	})

	t.Run("non-numeric id is not found", func(t *testing.T) {
		stub := &stubCatalog{}
		w := doGet(setupTestRouter(stub), "/api/v1/products/robot")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, 0, stub.productByIDHits)
	})
}

func TestListProductsEndpoint(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"defaults", "", 1, 10},
		{"explicit values", "?page=3&page_size=20", 3, 20},
		{"malformed page", "?page=x&page_size=20", 0, 20},
		{"only page given", "?page=2", 2, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCatalog{page: &domain.ProductPage{Results: []domain.Product{}, Count: 0, TotalPages: 0, CurrentPage: 1}}
			w := doGet(setupTestRouter(stub), "/api/v1/products"+tt.query)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantPage, stub.gotPage)
			assert.Equal(t, tt.wantPageSize, stub.gotPageSize)
			assert.JSONEq(t, `{"results":[],"count":0,"total_pages":0,"current_page":1}`, w.Body.String())
		})
	}
}

func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter(&stubCatalog{searchResult: &domain.SearchResult{}})

	if w := doGet(router, "/api/v1/products/search?q=robot"); w.Code != http.StatusOK {
		t.Errorf("v1 Status = %d, want %d", w.Code, http.StatusOK)
	}
	for _, path := range []string{"/api/products/search", "/products/search", "/api/v2/products/search"} {
		if w := doGet(router, path+"?q=robot"); w.Code != http.StatusNotFound {
			t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}
