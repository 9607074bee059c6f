package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductRows(t *testing.T) {
	input := strings.Join([]string{
		"sku,name,description,category,price,sale_price,stock_quantity,image_url",
		"PH-001,Phone X,Flagship phone,Electronics/Phones,999.99,899.99,12,https://cdn.example.com/ph-001.jpg",
		"PH-002,Phone Y,,Electronics/Phones,499.00,,0,",
	}, "\n")

	rows, err := ParseProductRows(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "PH-001", rows[0].SKU)
	assert.Equal(t, "Electronics/Phones", rows[0].CategoryPath)
	assert.Equal(t, 999.99, rows[0].Price)
	require.NotNil(t, rows[0].SalePrice)
	assert.Equal(t, 899.99, *rows[0].SalePrice)
	assert.Equal(t, 12, rows[0].StockQuantity)

	assert.Nil(t, rows[1].SalePrice)
	assert.Equal(t, 0, rows[1].StockQuantity)
}

func TestParseProductRowsHeaderOrderIsFree(t *testing.T) {
	input := "price,category,sku,name\n10.00,Tools,T-1,Hammer\n"

	rows, err := ParseProductRows(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "T-1", rows[0].SKU)
	assert.Equal(t, 10.0, rows[0].Price)
}

func TestParseProductRowsMissingColumn(t *testing.T) {
	input := "sku,name,price\nT-1,Hammer,10.00\n"

	_, err := ParseProductRows(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"category"`)
}

func TestParseProductRowsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bad price",
			input: "sku,name,price,category\nT-1,Hammer,cheap,Tools\n",
			want:  "invalid price",
		},
		{
			name:  "negative price",
			input: "sku,name,price,category\nT-1,Hammer,-5,Tools\n",
			want:  "invalid price",
		},
		{
			name:  "bad sale price",
			input: "sku,name,price,category,sale_price\nT-1,Hammer,10,Tools,free\n",
			want:  "invalid sale_price",
		},
		{
			name:  "bad stock",
			input: "sku,name,price,category,stock_quantity\nT-1,Hammer,10,Tools,lots\n",
			want:  "invalid stock_quantity",
		},
		{
			name:  "empty sku",
			input: "sku,name,price,category\n,Hammer,10,Tools\n",
			want:  "must not be empty",
		},
		{
			name:  "no data rows",
			input: "sku,name,price,category\n",
			want:  "no data rows",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProductRows(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseProductRowsReportsLineNumbers(t *testing.T) {
	input := "sku,name,price,category\nT-1,Hammer,10,Tools\nT-2,Saw,oops,Tools\n"

	_, err := ParseProductRows(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "electronics", Slugify("Electronics"))
	assert.Equal(t, "home-garden", Slugify("Home & Garden"))
	assert.Equal(t, "4k-tvs", Slugify("  4K TVs  "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestEffectivePrice(t *testing.T) {
	sale := 8.5
	assert.Equal(t, 10.0, (&Product{Price: 10}).EffectivePrice())
	assert.Equal(t, 8.5, (&Product{Price: 10, SalePrice: &sale}).EffectivePrice())
}
