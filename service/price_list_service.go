package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/repository"
	"optovik-store/utils"
)

//go:embed templates/price_list.html
var templateFS embed.FS

var priceListTemplate = template.Must(template.New("price_list.html").Funcs(template.FuncMap{
	"rub":  utils.FormatRUB,
	"join": func(values []string) string { return strings.Join(values, ", ") },
}).ParseFS(templateFS, "templates/price_list.html"))

type priceListRow struct {
	Article    string
	Name       string
	Colors     []string
	Sizes      []string
	Retail     decimal.Decimal
	TierPrices []decimal.Decimal
}

type priceListCategory struct {
	Name string
	Rows []priceListRow
}

type priceListData struct {
	StoreName    string
	GeneratedAt  string
	MinOrder     decimal.Decimal
	MinWholesale decimal.Decimal
	Tiers        []models.WholesaleTier
	Categories   []priceListCategory
}

// PriceListService renders the catalog with wholesale prices as HTML and PDF
type PriceListService struct {
	products   repository.ProductRepositoryInterface
	settings   *SettingsProvider
	chromePath string
	clock      func() time.Time
}

// NewPriceListService creates a new PriceListService
func NewPriceListService(products repository.ProductRepositoryInterface, settings *SettingsProvider, chromePath string) *PriceListService {
	return &PriceListService{
		products:   products,
		settings:   settings,
		chromePath: chromePath,
		clock:      time.Now,
	}
}

// RenderHTML renders the price list of active products
func (s *PriceListService) RenderHTML(ctx context.Context) (string, error) {
	products, err := s.products.List(ctx, models.ProductFilter{ActiveOnly: true})
	if err != nil {
		return "", fmt.Errorf("failed to load products: %w", err)
	}

	ps := s.settings.PricingSettings()
	tiers := make([]models.WholesaleTier, 0, len(ps.Tiers))
	for _, t := range ps.Tiers {
		if !t.Amount.IsNegative() {
			tiers = append(tiers, t)
		}
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Amount.LessThan(tiers[j].Amount) })

	data := priceListData{
		StoreName:    s.settings.GetSetting(models.SettingStoreName, "Прайс-лист"),
		GeneratedAt:  s.clock().Format("02.01.2006"),
		MinOrder:     ps.MinRetailOrder,
		MinWholesale: ps.MinWholesaleOrder,
		Tiers:        tiers,
		Categories:   groupByCategory(products, tiers),
	}

	var buf bytes.Buffer
	if err := priceListTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func groupByCategory(products []models.Product, tiers []models.WholesaleTier) []priceListCategory {
	byName := map[string]*priceListCategory{}
	var order []string
	for _, p := range products {
		name := p.Category
		if name == "" {
			name = "Без категории"
		}
		cat, ok := byName[name]
		if !ok {
			cat = &priceListCategory{Name: name}
			byName[name] = cat
			order = append(order, name)
		}
		row := priceListRow{
			Article: p.Article,
			Name:    p.Name,
			Colors:  p.Colors,
			Sizes:   p.Sizes,
			Retail:  p.RetailPrice,
		}
		for _, t := range tiers {
			factor := decimal.NewFromInt(100).Sub(t.Percent).Div(decimal.NewFromInt(100))
			row.TierPrices = append(row.TierPrices, p.RetailPrice.Mul(factor).Round(2))
		}
		cat.Rows = append(cat.Rows, row)
	}
	sort.Strings(order)

	out := make([]priceListCategory, 0, len(order))
	for _, name := range order {
		cat := byName[name]
		sort.SliceStable(cat.Rows, func(i, j int) bool { return cat.Rows[i].Article < cat.Rows[j].Article })
		out = append(out, *cat)
	}
	return out
}

// GeneratePDF prints the rendered price list to an A4 PDF with headless Chrome
func (s *PriceListService) GeneratePDF(ctx context.Context) ([]byte, error) {
	html, err := s.RenderHTML(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if path := detectChromePath(s.chromePath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	var pdfBuf []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4 in inches; margins come from the @page rule.
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	logger.Log.Infof("📄 Price list PDF generated: %d bytes", len(pdfBuf))
	return pdfBuf, nil
}

// detectChromePath prefers the configured path, then common install locations.
// An empty result lets chromedp search on its own.
func detectChromePath(configured string) string {
	candidates := []string{
		configured,
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
