package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/repository"
	"optovik-store/utils"
)

const headerScanRows = 20

var articlePattern = regexp.MustCompile(`^[A-Za-zА-Яа-я0-9][A-Za-zА-Яа-я0-9\-_./]*$`)

// ErrNoPriceColumns is returned when no sheet has recognizable article and price columns.
var ErrNoPriceColumns = errors.New("could not find article and price columns")

// PriceImportService updates retail prices from uploaded spreadsheets
type PriceImportService struct {
	products repository.ProductRepositoryInterface
	audit    AuditRecorder
}

// NewPriceImportService creates a new PriceImportService
func NewPriceImportService(products repository.ProductRepositoryInterface, audit AuditRecorder) *PriceImportService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &PriceImportService{products: products, audit: audit}
}

// Import applies the prices in the workbook. With dryRun nothing is written.
func (s *PriceImportService) Import(ctx context.Context, actor string, r io.Reader, dryRun bool) (*models.PriceImportResult, error) {
	rows, skipped, err := ParsePriceSheet(r)
	if err != nil {
		return nil, err
	}

	result := &models.PriceImportResult{
		DryRun:          dryRun,
		Recognized:      len(rows),
		UnknownArticles: []string{},
		Skipped:         skipped,
		Rows:            rows,
	}

	for _, row := range rows {
		product, err := s.products.GetByArticle(ctx, row.Article)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				result.UnknownArticles = append(result.UnknownArticles, row.Article)
				continue
			}
			return nil, fmt.Errorf("failed to look up article %s: %w", row.Article, err)
		}
		if product.RetailPrice.Equal(row.Price) {
			result.Unchanged++
			continue
		}
		if !dryRun {
			if err := s.products.UpdateRetailPrice(ctx, product.ID, row.Price); err != nil {
				return nil, fmt.Errorf("failed to update price of %s: %w", row.Article, err)
			}
		}
		result.Updated++
	}

	if !dryRun && result.Updated > 0 {
		s.audit.Record(ctx, actor, AuditPricesImported, "products", map[string]int{
			"updated":   result.Updated,
			"unchanged": result.Unchanged,
			"unknown":   len(result.UnknownArticles),
		})
	}
	logger.Log.Infof("📥 Price import (dryRun=%v): %d recognized, %d updated, %d unchanged, %d unknown, %d skipped",
		dryRun, result.Recognized, result.Updated, result.Unchanged, len(result.UnknownArticles), len(result.Skipped))
	return result, nil
}

// ParsePriceSheet reads every sheet of an XLSX workbook and returns the article/price rows.
// Rows that carry an article but no usable price are reported in skipped.
// When an article appears more than once the last row wins.
func ParsePriceSheet(r io.Reader) ([]models.PriceSheetRow, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var out []models.PriceSheetRow
	skipped := []string{}
	index := map[string]int{}
	foundColumns := false

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		cols, headerRow, ok := detectColumns(rows)
		if !ok {
			logger.Log.Debugf("⏭️  Sheet %s: no article/price columns", sheet)
			continue
		}
		foundColumns = true

		for i := headerRow + 1; i < len(rows); i++ {
			row := rows[i]
			article := strings.ToUpper(strings.TrimSpace(cell(row, cols.article)))
			if article == "" {
				continue
			}
			rawPrice := cell(row, cols.price)
			price, err := utils.ParseNumber(rawPrice)
			if err != nil || !price.IsPositive() {
				skipped = append(skipped, fmt.Sprintf("%s!%d: %s: invalid price %q", sheet, i+1, article, rawPrice))
				continue
			}
			parsed := models.PriceSheetRow{
				Sheet:   sheet,
				Row:     i + 1,
				Article: article,
				Name:    strings.TrimSpace(cell(row, cols.name)),
				Price:   price.Round(2),
			}
			if at, dup := index[article]; dup {
				out[at] = parsed
				continue
			}
			index[article] = len(out)
			out = append(out, parsed)
		}
	}

	if !foundColumns {
		return nil, nil, ErrNoPriceColumns
	}
	if out == nil {
		out = []models.PriceSheetRow{}
	}
	return out, skipped, nil
}

type priceColumns struct {
	article, name, price int
}

// detectColumns looks for a header row first and falls back to guessing from the data.
// headerRow is -1 when the columns were guessed.
func detectColumns(rows [][]string) (priceColumns, int, bool) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for r := 0; r < limit; r++ {
		cols := priceColumns{article: -1, name: -1, price: -1}
		for c, caption := range rows[r] {
			switch utils.MapHeaderToColumn(caption) {
			case utils.ColumnArticle:
				if cols.article < 0 {
					cols.article = c
				}
			case utils.ColumnName:
				if cols.name < 0 {
					cols.name = c
				}
			case utils.ColumnPrice:
				if cols.price < 0 {
					cols.price = c
				}
			}
		}
		if cols.article >= 0 && cols.price >= 0 {
			return cols, r, true
		}
	}
	return guessColumns(rows)
}

// guessColumns picks the first column that mostly holds article-like codes and
// the last column that mostly holds positive numbers. When no column has
// alphanumeric codes, the leftmost numeric column is taken as the article.
func guessColumns(rows [][]string) (priceColumns, int, bool) {
	sample := rows
	if len(sample) > 50 {
		sample = sample[:50]
	}
	width := 0
	for _, row := range sample {
		if len(row) > width {
			width = len(row)
		}
	}

	cols := priceColumns{article: -1, name: -1, price: -1}
	var numeric []int
	for c := 0; c < width; c++ {
		var filled, articles, numbers, texts int
		for _, row := range sample {
			v := strings.TrimSpace(cell(row, c))
			if v == "" {
				continue
			}
			filled++
			if n, err := utils.ParseNumber(v); err == nil && n.IsPositive() {
				numbers++
			} else if articlePattern.MatchString(v) && strings.ContainsAny(v, "0123456789") {
				articles++
			} else {
				texts++
			}
		}
		if filled == 0 {
			continue
		}
		switch {
		case cols.article < 0 && articles*2 > filled:
			cols.article = c
		case cols.name < 0 && texts*2 > filled:
			cols.name = c
		case numbers*2 > filled:
			numeric = append(numeric, c)
		}
	}
	if cols.article < 0 && len(numeric) >= 2 {
		cols.article = numeric[0]
		numeric = numeric[1:]
	}
	if len(numeric) > 0 {
		cols.price = numeric[len(numeric)-1]
	}
	if cols.article < 0 || cols.price < 0 {
		return cols, 0, false
	}
	return cols, -1, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
