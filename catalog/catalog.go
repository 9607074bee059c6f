package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// AveragePriceCacheTTL bounds how stale a cached subtree average may be.
const AveragePriceCacheTTL = 5 * time.Minute

// PriceCache caches computed price aggregates. The miss return is
// (0, false, nil); errors mean the cache itself failed and the caller
// should fall back to the database.
type PriceCache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64, ttl time.Duration) error
}

// ErrNotFound is returned when a requested catalog row does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Service is the catalog query layer.
type Service struct {
	db    *bun.DB
	cache PriceCache
	log   logrus.FieldLogger
}

// NewService builds a catalog service. cache may be nil, which disables
// aggregate caching.
func NewService(db *bun.DB, cache PriceCache, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{db: db, cache: cache, log: log}
}

// ListProductsOptions filters a product listing.
type ListProductsOptions struct {
	// CategoryPath restricts results to a category subtree.
	CategoryPath string
	InStockOnly  bool
	// Search matches name and description, case-insensitively.
	Search string
	Limit  int
	Offset int
}

const defaultPageSize = 50

// ListProducts returns catalog products with their category loaded.
func (s *Service) ListProducts(ctx context.Context, opts ListProductsOptions) ([]*Product, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultPageSize
	}

	var products []*Product
	q := s.db.NewSelect().
		Model(&products).
		Relation("Category").
		Order("p.name ASC").
		Limit(limit).
		Offset(opts.Offset)

	if opts.CategoryPath != "" {
		q = q.Where("c.path = ? OR c.path LIKE ?", opts.CategoryPath, opts.CategoryPath+"/%")
	}
	if opts.InStockOnly {
		q = q.Where("p.in_stock")
	}
	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		q = q.Where("(p.name ILIKE ? OR p.description ILIKE ?)", pattern, pattern)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	return products, nil
}

// GetProduct returns one product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	product := new(Product)
	err := s.db.NewSelect().
		Model(product).
		Relation("Category").
		Where("p.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get product: %w", err)
	}
	return product, nil
}

// ProductsByIDs returns the products for the given ids, skipping ids that
// no longer exist.
func (s *Service) ProductsByIDs(ctx context.Context, ids []int64) ([]*Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []*Product
	err := s.db.NewSelect().
		Model(&products).
		Where("p.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: products by ids: %w", err)
	}
	return products, nil
}

// ListCategories returns all categories ordered by path, each annotated
// with its direct product count.
func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	err := s.db.NewSelect().
		Model(&categories).
		ColumnExpr("c.*").
		ColumnExpr("(SELECT count(*) FROM store.products p WHERE p.category_id = c.id) AS product_count").
		Order("c.path ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	return categories, nil
}

// AveragePrice computes the mean effective price over a category subtree.
// Results are cached briefly since listings hit this on every render.
func (s *Service) AveragePrice(ctx context.Context, categoryPath string) (float64, error) {
	cacheKey := "avg_price:" + categoryPath
	if s.cache != nil {
		if v, ok, err := s.cache.Get(ctx, cacheKey); err != nil {
			s.log.WithError(err).Warn("price cache read failed")
		} else if ok {
			return v, nil
		}
	}

	var avg sql.NullFloat64
	err := s.db.NewSelect().
		Model((*Product)(nil)).
		ColumnExpr("avg(COALESCE(p.sale_price, p.price))").
		Join("JOIN store.categories AS c ON c.id = p.category_id").
		Where("c.path = ? OR c.path LIKE ?", categoryPath, categoryPath+"/%").
		Scan(ctx, &avg)
	if err != nil {
		return 0, fmt.Errorf("catalog: average price: %w", err)
	}
	if !avg.Valid {
		return 0, ErrNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, avg.Float64, AveragePriceCacheTTL); err != nil {
			s.log.WithError(err).Warn("price cache write failed")
		}
	}
	return avg.Float64, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name and collapses everything non-alphanumeric
// into single hyphens.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// EnsureCategoryPath walks a "Parent/Child/Grandchild" name path and
// creates any missing nodes, returning the leaf. Used by bulk imports
// where rows name their category by path.
func (s *Service) EnsureCategoryPath(ctx context.Context, namePath string) (*Category, error) {
	names := strings.Split(namePath, "/")
	var parent *Category
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		slug := Slugify(name)
		path := slug
		var parentID *int64
		if parent != nil {
			path = parent.Path + "/" + slug
			parentID = &parent.ID
		}

		node := &Category{Name: name, Slug: slug, Path: path, ParentID: parentID}
		_, err := s.db.NewInsert().
			Model(node).
			On("CONFLICT (path) DO UPDATE SET name = EXCLUDED.name").
			Returning("id, name, slug, path, parent_id").
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog: ensure category %q: %w", path, err)
		}
		parent = node
	}
	if parent == nil {
		return nil, fmt.Errorf("catalog: empty category path")
	}
	return parent, nil
}
