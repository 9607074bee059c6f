package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ProductRow is one parsed line of a bulk product upload.
type ProductRow struct {
	SKU           string
	Name          string
	Description   string
	CategoryPath  string
	Price         float64
	SalePrice     *float64
	ImageURL      string
	StockQuantity int
}

var requiredCSVColumns = []string{"sku", "name", "price", "category"}

// ParseProductRows reads a product upload CSV. The first record is a
// header; column order is free but sku, name, price and category must be
// present. Row errors carry a 1-based line number.
func ParseProductRows(r io.Reader) ([]ProductRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read csv header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredCSVColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("catalog: csv is missing required column %q", name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []ProductRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("catalog: csv line %d: %w", line, err)
		}

		row := ProductRow{
			SKU:          field(record, "sku"),
			Name:         field(record, "name"),
			Description:  field(record, "description"),
			CategoryPath: field(record, "category"),
			ImageURL:     field(record, "image_url"),
		}
		if row.SKU == "" || row.Name == "" || row.CategoryPath == "" {
			return nil, fmt.Errorf("catalog: csv line %d: sku, name and category must not be empty", line)
		}

		row.Price, err = strconv.ParseFloat(field(record, "price"), 64)
		if err != nil || row.Price < 0 {
			return nil, fmt.Errorf("catalog: csv line %d: invalid price %q", line, field(record, "price"))
		}
		if v := field(record, "sale_price"); v != "" {
			sale, err := strconv.ParseFloat(v, 64)
			if err != nil || sale < 0 {
				return nil, fmt.Errorf("catalog: csv line %d: invalid sale_price %q", line, v)
			}
			row.SalePrice = &sale
		}
		if v := field(record, "stock_quantity"); v != "" {
			qty, err := strconv.Atoi(v)
			if err != nil || qty < 0 {
				return nil, fmt.Errorf("catalog: csv line %d: invalid stock_quantity %q", line, v)
			}
			row.StockQuantity = qty
		}

		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalog: csv has no data rows")
	}
	return rows, nil
}

// ImportProducts upserts parsed rows by SKU, creating category paths as
// needed. Existing products keep their id; price, stock and category
// follow the upload.
func (s *Service) ImportProducts(ctx context.Context, rows []ProductRow) (int, error) {
	// Category paths repeat across rows; resolve each once.
	leafByPath := map[string]*Category{}
	for _, row := range rows {
		if _, ok := leafByPath[row.CategoryPath]; ok {
			continue
		}
		leaf, err := s.EnsureCategoryPath(ctx, row.CategoryPath)
		if err != nil {
			return 0, err
		}
		leafByPath[row.CategoryPath] = leaf
	}

	imported := 0
	for _, row := range rows {
		product := &Product{
			SKU:           row.SKU,
			Name:          row.Name,
			Description:   row.Description,
			CategoryID:    leafByPath[row.CategoryPath].ID,
			Price:         row.Price,
			SalePrice:     row.SalePrice,
			ImageURL:      row.ImageURL,
			InStock:       row.StockQuantity > 0,
			StockQuantity: row.StockQuantity,
		}
		_, err := s.db.NewInsert().
			Model(product).
			On("CONFLICT (sku) DO UPDATE").
			Set("name = EXCLUDED.name").
			Set("description = EXCLUDED.description").
			Set("category_id = EXCLUDED.category_id").
			Set("price = EXCLUDED.price").
			Set("sale_price = EXCLUDED.sale_price").
			Set("image_url = EXCLUDED.image_url").
			Set("in_stock = EXCLUDED.in_stock").
			Set("stock_quantity = EXCLUDED.stock_quantity").
			Set("updated_at = now()").
			Exec(ctx)
		if err != nil {
			return imported, fmt.Errorf("catalog: upsert product %q: %w", row.SKU, err)
		}
		imported++
	}

	s.log.WithField("products", imported).Info("product import finished")
	return imported, nil
}
