package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/toyshelf/backend/internal/domain"
)

const (
	productColumns = `p.id, p.title, p.description, p.brand, p.product_category, p.age_group,
		p.standardized_age, p.gender, p.price, m.name, p.image_url, p.video_url`
	productFrom = ` FROM products p LEFT JOIN manufacturers m ON m.id = p.manufacturer_id`

	uniqueViolation = "23505"
)

// searchFields are the columns a search word is matched against
var searchFields = []string{
	"p.title", "p.description", "p.brand", "p.product_category", "p.age_group", "m.name",
}

// CatalogStore implements domain.CatalogRepository and domain.FeaturedRepository on Postgres
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore creates a store over an open database handle
func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p            domain.Product
		manufacturer sql.NullString
		imageURL     sql.NullString
		videoURL     sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Brand, &p.ProductCategory, &p.AgeGroup,
		&p.StandardizedAge, &p.Gender, &p.Price, &manufacturer, &imageURL, &videoURL,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.ManufacturerName = nullableString(manufacturer)
	p.ImageURL = nullableString(imageURL)
	p.VideoURL = nullableString(videoURL)
	return p, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func (s *CatalogStore) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan product: %v", domain.ErrCatalogUnavailable, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return products, nil
}

// escapeLike escapes LIKE wildcards so a word is matched literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func buildSearchQuery(words []string) (string, []any) {
	conds := make([]string, 0, len(words))
	args := make([]any, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		args = append(args, "%"+escapeLike(w)+"%")
		n := len(args)
		preds := make([]string, len(searchFields))
		for i, f := range searchFields {
			preds[i] = fmt.Sprintf("%s ILIKE $%d", f, n)
		}
		conds = append(conds, "("+strings.Join(preds, " OR ")+")")
	}
	return "SELECT " + productColumns + productFrom +
		" WHERE " + strings.Join(conds, " OR ") + " ORDER BY p.id", args
}

// SearchCandidates implements domain.CatalogRepository
func (s *CatalogStore) SearchCandidates(ctx context.Context, words []string) ([]domain.Product, error) {
	query, args := buildSearchQuery(words)
	if len(args) == 0 {
		return []domain.Product{}, nil
	}
	return s.queryProducts(ctx, query, args...)
}

// Filter implements domain.CatalogRepository
func (s *CatalogStore) Filter(ctx context.Context, filter domain.FilterQuery) ([]domain.Product, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("p.gender", filter.Gender)
	add("p.product_category", filter.Category)
	add("p.standardized_age", filter.AgeGroup)

	query := "SELECT " + productColumns + productFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.id"

	return s.queryProducts(ctx, query, args...)
}

// TopCategories implements domain.CatalogRepository
func (s *CatalogStore) TopCategories(ctx context.Context, limit int) ([]domain.CategoryCount, error) {
	if limit <= 0 {
		return []domain.CategoryCount{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_category, COUNT(*) AS cnt
		FROM products
		WHERE product_category IS NOT NULL AND product_category <> ''
		GROUP BY product_category
		ORDER BY cnt DESC, product_category ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	out := make([]domain.CategoryCount, 0, limit)
	for rows.Next() {
		var cc domain.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return out, nil
}

// Latest implements domain.CatalogRepository
func (s *CatalogStore) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	return s.queryProducts(ctx, "SELECT "+productColumns+productFrom+" ORDER BY p.id DESC LIMIT $1", limit)
}

// GetByID implements domain.CatalogRepository
func (s *CatalogStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+productFrom+" WHERE p.id = $1", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return &p, nil
}

// List implements domain.CatalogRepository
func (s *CatalogStore) List(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	return s.queryProducts(ctx, "SELECT "+productColumns+productFrom+" ORDER BY p.id LIMIT $1 OFFSET $2", limit, offset)
}

// Count implements domain.CatalogRepository
func (s *CatalogStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return n, nil
}

// Featured implements domain.FeaturedRepository
func (s *CatalogStore) Featured(ctx context.Context, t domain.FeaturedType) ([]domain.Product, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFeaturedType, t)
	}
	return s.queryProducts(ctx,
		"SELECT "+productColumns+" FROM featured_products f"+
			" JOIN products p ON p.id = f.product_id"+
			" LEFT JOIN manufacturers m ON m.id = p.manufacturer_id"+
			" WHERE f.featured_type = $1 ORDER BY f.display_order, f.id",
		string(t))
}

// FindProductID returns the id of a stored product with the same title, brand and
// manufacturer as p, or domain.ErrProductNotFound
func (s *CatalogStore) FindProductID(ctx context.Context, p domain.Product) (int64, error) {
	var manufacturer sql.NullString
	if p.ManufacturerName != nil && *p.ManufacturerName != "" {
		manufacturer = sql.NullString{String: *p.ManufacturerName, Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id`+productFrom+`
		WHERE p.title = $1 AND p.brand = $2 AND m.name IS NOT DISTINCT FROM $3
		ORDER BY p.id LIMIT 1`,
		p.Title, p.Brand, manufacturer,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return id, nil
}

// InsertProduct stores p, creating its manufacturer by name when needed, and returns the new id
func (s *CatalogStore) InsertProduct(ctx context.Context, p domain.Product) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer tx.Rollback()

	var manufacturerID sql.NullInt64
	if p.ManufacturerName != nil && *p.ManufacturerName != "" {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM manufacturers WHERE name = $1 ORDER BY id LIMIT 1`,
			*p.ManufacturerName).Scan(&manufacturerID)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx,
				`INSERT INTO manufacturers (name) VALUES ($1) RETURNING id`,
				*p.ManufacturerName).Scan(&manufacturerID)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: manufacturer: %v", domain.ErrCatalogUnavailable, err)
		}
	}

	gender := p.Gender
	if gender == "" {
		gender = domain.GenderUnisex
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (title, manufacturer_id, product_category, age_group, standardized_age,
			brand, gender, description, price, image_url, video_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		p.Title, manufacturerID, p.ProductCategory, p.AgeGroup, p.StandardizedAge,
		p.Brand, gender, p.Description, p.Price, p.ImageURL, p.VideoURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: insert product: %v", domain.ErrCatalogUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return id, nil
}

// AddFeatured places a product on a curated list
func (s *CatalogStore) AddFeatured(ctx context.Context, f domain.FeaturedProduct) error {
	if !f.Type.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidFeaturedType, f.Type)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO featured_products (product_id, featured_type, display_order) VALUES ($1, $2, $3)`,
		f.ProductID, string(f.Type), f.DisplayOrder)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateFeatured
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return nil
}
