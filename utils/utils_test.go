package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5000", "5000"},
		{"5 000", "5000"},
		{"5 000,50", "5000.5"},
		{"4500.00 ₽", "4500"},
		{"10%", "10"},
		{"1,234.50", "1234.5"},
		{"1.234,50", "1234.5"},
		{" 750 руб. ", "750"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			require.NoError(t, err)
			assert.Truef(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseNumber_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "₽", "abc", "12a"} {
		_, err := ParseNumber(in)
		assert.Errorf(t, err, "input %q", in)
	}
}

func TestFormatRUB(t *testing.T) {
	tests := map[string]string{
		"0":          "0 ₽",
		"950":        "950 ₽",
		"12500":      "12 500 ₽",
		"12500.5":    "12 500,50 ₽",
		"1234567.05": "1 234 567,05 ₽",
		"-100":       "-100 ₽",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatRUB(decimal.RequireFromString(in)), in)
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(810000), ToMinorUnits(decimal.RequireFromString("8100")))
	assert.Equal(t, int64(1235), ToMinorUnits(decimal.RequireFromString("12.345")))
	assert.Equal(t, int64(1), ToMinorUnits(decimal.RequireFromString("0.01")))
}

func TestNormalizeSize(t *testing.T) {
	tests := map[string]string{
		"xl ":         "XL",
		"2xl":         "XXL",
		"3XL":         "XXXL",
		"б/р":         "ONESIZE",
		"Без размера": "ONESIZE",
		"42":          "42",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeSize(in), in)
	}
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "тёмно синий", NormalizeColor("  Тёмно   Синий "))
	assert.Equal(t, "", NormalizeColor(""))
}

func TestMapHeaderToColumn(t *testing.T) {
	tests := map[string]string{
		"Артикул":        ColumnArticle,
		"  SKU ":         ColumnArticle,
		"Артикул товара": ColumnArticle,
		"Наименование:":  ColumnName,
		"Цена":           ColumnPrice,
		"Цена (руб.)":    ColumnPrice,
		"Retail Price":   ColumnPrice,
		"Цена опт":       "",
		"Остаток":        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, MapHeaderToColumn(in), in)
	}
}

func TestParseMediaFileName(t *testing.T) {
	tests := []struct {
		name     string
		article  string
		position int
	}{
		{"KT-1024.jpg", "KT-1024", 1},
		{"kt-1024_2.JPG", "KT-1024", 2},
		{"A15_10.png", "A15", 10},
		{"B7.jpeg", "B7", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, position, err := ParseMediaFileName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.article, article)
			assert.Equal(t, tt.position, position)
		})
	}
}

func TestParseMediaFileName_Invalid(t *testing.T) {
	for _, name := range []string{"", "photo.gif", "_1.jpg", "KT 1024.jpg", "KT-1_0.jpg", "KT.jpg.txt"} {
		_, _, err := ParseMediaFileName(name)
		assert.Errorf(t, err, "name %q", name)
	}
}

func TestValidate_DecimalTags(t *testing.T) {
	type req struct {
		Percent decimal.Decimal `validate:"gte=0,lte=100"`
	}
	assert.NoError(t, Validate.Struct(req{Percent: decimal.NewFromInt(15)}))
	assert.Error(t, Validate.Struct(req{Percent: decimal.NewFromInt(120)}))
	assert.Error(t, Validate.Struct(req{Percent: decimal.NewFromInt(-1)}))
}
