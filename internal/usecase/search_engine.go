package usecase

import (
	"strings"

	"github.com/toyshelf/backend/internal/domain"
)

// splitWords breaks a trimmed query into the words matched against the catalog
func splitWords(query string) []string {
	return strings.Fields(query)
}

// rankByTitle moves candidates whose title contains the full query to the front.
// Relative order inside each tier is preserved.
func rankByTitle(candidates []domain.Product, query string) []domain.Product {
	needle := strings.ToLower(query)

	tier1 := make([]domain.Product, 0, len(candidates))
	tier2 := make([]domain.Product, 0, len(candidates))
	for _, p := range candidates {
		if strings.Contains(strings.ToLower(p.Title), needle) {
			tier1 = append(tier1, p)
		} else {
			tier2 = append(tier2, p)
		}
	}
	return append(tier1, tier2...)
}

// pageStart returns the offset of page within n items, or false when the
// page begins past the end. It never overflows for large page values.
func pageStart(n, page, pageSize int) (int, bool) {
	if page-1 > n/pageSize {
		return 0, false
	}
	start := (page - 1) * pageSize
	return start, start <= n
}

// paginate returns the page window of ranked and whether more items follow it
func paginate(ranked []domain.Product, page, pageSize int) ([]domain.Product, bool) {
	start, ok := pageStart(len(ranked), page, pageSize)
	if !ok || start == len(ranked) {
		return []domain.Product{}, false
	}

	remaining := len(ranked) - start
	if pageSize >= remaining {
		return ranked[start:], false
	}
	return ranked[start : start+pageSize], true
}

// totalPages is ceil(count/pageSize)
func totalPages(count, pageSize int) int {
	pages := count / pageSize
	if count%pageSize != 0 {
		pages++
	}
	return pages
}
