package domain

const (
	// MinQueryLength is the shortest trimmed query accepted by search
	MinQueryLength = 2

	DefaultPage     = 1
	DefaultPageSize = 10
)

// SearchQuery is a free-text search request
type SearchQuery struct {
	Query    string
	Page     int
	PageSize int
}

// SearchResult is one page of ranked search results
type SearchResult struct {
	Results  []Product `json:"results"`
	Count    int       `json:"count"`
	HasMore  bool      `json:"has_more"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Query    string    `json:"query"`
}

// FilterQuery holds optional exact-match filters. Empty fields are ignored.
type FilterQuery struct {
	Gender   string
	AgeGroup string
	Category string
}

// ProductPage is one page of the full catalog listing
type ProductPage struct {
	Results     []Product `json:"results"`
	Count       int       `json:"count"`
	TotalPages  int       `json:"total_pages"`
	CurrentPage int       `json:"current_page"`
}
