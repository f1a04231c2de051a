// Package memstore is an in-memory catalog used when no database is configured.
package memstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/toyshelf/backend/internal/domain"
)

// Store keeps products sorted by ascending id
type Store struct {
	mu       sync.RWMutex
	products []domain.Product
	featured []domain.FeaturedProduct
	nextID   int64
}

// New creates an empty store
func New() *Store {
	return &Store{nextID: 1}
}

// Seed is the on-disk layout accepted by LoadSeedFile
type Seed struct {
	Products []domain.Product         `json:"products"`
	Featured []domain.FeaturedProduct `json:"featured"`
}

// LoadSeedFile builds a store from a JSON seed file
func LoadSeedFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}

	s := New()
	for _, p := range seed.Products {
		if _, err := s.AddProduct(p); err != nil {
			return nil, err
		}
	}
	for _, f := range seed.Featured {
		if err := s.Feature(f); err != nil {
			return nil, fmt.Errorf("featured product %d: %w", f.ProductID, err)
		}
	}
	return s, nil
}

// AddProduct inserts p, assigning the next id when p.ID is zero
func (s *Store) AddProduct(p domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.nextID
	}
	idx, found := s.search(p.ID)
	if found {
		return domain.Product{}, fmt.Errorf("product %d already exists", p.ID)
	}

	s.products = slices.Insert(s.products, idx, p)
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	return p, nil
}

// Feature places a product on a curated list
func (s *Store) Feature(f domain.FeaturedProduct) error {
	if !f.Type.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidFeaturedType, f.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.search(f.ProductID); !found {
		return domain.ErrProductNotFound
	}
	for _, existing := range s.featured {
		if existing.ProductID == f.ProductID && existing.Type == f.Type {
			return domain.ErrDuplicateFeatured
		}
	}
	s.featured = append(s.featured, f)
	return nil
}

func (s *Store) search(id int64) (int, bool) {
	return slices.BinarySearchFunc(s.products, id, func(p domain.Product, id int64) int {
		return cmp.Compare(p.ID, id)
	})
}

// SearchCandidates implements domain.CatalogRepository
func (s *Store) SearchCandidates(ctx context.Context, words []string) ([]domain.Product, error) {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			lowered = append(lowered, strings.ToLower(w))
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0)
	if len(lowered) == 0 {
		return out, nil
	}
	for _, p := range s.products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if matchesAny(p, lowered) {
			out = append(out, p)
		}
	}
	return out, nil
}

func matchesAny(p domain.Product, words []string) bool {
	fields := []string{
		strings.ToLower(p.Title),
		strings.ToLower(p.Description),
		strings.ToLower(p.Brand),
		strings.ToLower(p.ProductCategory),
		strings.ToLower(p.AgeGroup),
	}
	if p.ManufacturerName != nil {
		fields = append(fields, strings.ToLower(*p.ManufacturerName))
	}
	for _, w := range words {
		for _, f := range fields {
			if strings.Contains(f, w) {
				return true
			}
		}
	}
	return false
}

// Filter implements domain.CatalogRepository
func (s *Store) Filter(ctx context.Context, filter domain.FilterQuery) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if filter.Gender != "" && p.Gender != filter.Gender {
			continue
		}
		if filter.Category != "" && p.ProductCategory != filter.Category {
			continue
		}
		if filter.AgeGroup != "" && p.StandardizedAge != filter.AgeGroup {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// TopCategories implements domain.CatalogRepository
func (s *Store) TopCategories(ctx context.Context, limit int) ([]domain.CategoryCount, error) {
	s.mu.RLock()
	counts := make(map[string]int)
	for _, p := range s.products {
		if p.ProductCategory == "" {
			continue
		}
		counts[p.ProductCategory]++
	}
	s.mu.RUnlock()

	out := make([]domain.CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, domain.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Latest implements domain.CatalogRepository
func (s *Store) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		return []domain.Product{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, min(limit, len(s.products)))
	for i := len(s.products) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.products[i])
	}
	return out, nil
}

// GetByID implements domain.CatalogRepository
func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, found := s.search(id)
	if !found {
		return nil, domain.ErrProductNotFound
	}
	p := s.products[idx]
	return &p, nil
}

// List implements domain.CatalogRepository
func (s *Store) List(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset < 0 || offset >= len(s.products) || limit <= 0 {
		return []domain.Product{}, nil
	}
	end := min(offset+limit, len(s.products))
	return slices.Clone(s.products[offset:end]), nil
}

// Count implements domain.CatalogRepository
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

// Featured implements domain.FeaturedRepository
func (s *Store) Featured(ctx context.Context, t domain.FeaturedType) ([]domain.Product, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFeaturedType, t)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	placements := make([]domain.FeaturedProduct, 0)
	for _, f := range s.featured {
		if f.Type == t {
			placements = append(placements, f)
		}
	}
	sort.SliceStable(placements, func(i, j int) bool {
		return placements[i].DisplayOrder < placements[j].DisplayOrder
	})

	out := make([]domain.Product, 0, len(placements))
	for _, f := range placements {
		if idx, found := s.search(f.ProductID); found {
			out = append(out, s.products[idx])
		}
	}
	return out, nil
}
