package domain

import "github.com/shopspring/decimal"

// Gender values stored on products
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderUnisex = "U"
)

// StandardAgeGroups are the age buckets products are filtered by
var StandardAgeGroups = []string{
	"0-18 Months",
	"18-36 Months",
	"3-5 Years",
	"5-7 Years",
	"7-12 Years",
	"12+ Years",
}

// Product represents a catalog item
type Product struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Brand            string          `json:"brand"`
	ProductCategory  string          `json:"product_category"`
	AgeGroup         string          `json:"age_group"`
	StandardizedAge  string          `json:"standardized_age,omitempty"`
	Gender           string          `json:"gender"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	ManufacturerName *string         `json:"manufacturer_name"`
	ImageURL         *string         `json:"image_url"`
	VideoURL         *string         `json:"video_url"`
}

// FeaturedType tags a curated product list
type FeaturedType string

const (
	FeaturedTrending FeaturedType = "trending"
	FeaturedTop      FeaturedType = "top"
)

// Valid reports whether t is a known featured type
func (t FeaturedType) Valid() bool {
	return t == FeaturedTrending || t == FeaturedTop
}

// FeaturedProduct places a product on a curated list. (ProductID, Type) is unique.
type FeaturedProduct struct {
	ProductID    int64        `json:"product_id"`
	Type         FeaturedType `json:"featured_type"`
	DisplayOrder int          `json:"display_order"`
}

// CategoryCount is one row of the category facet
type CategoryCount struct {
	Category string
	Count    int
}
