package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"optovik-store/logger"
	"optovik-store/service"
)

// PriceListController serves the printable price list
type PriceListController struct {
	priceList *service.PriceListService
}

// NewPriceListController creates a new PriceListController
func NewPriceListController(priceList *service.PriceListService) *PriceListController {
	return &PriceListController{priceList: priceList}
}

// HTML handles GET /api/price-list
func (c *PriceListController) HTML(w http.ResponseWriter, r *http.Request) {
	page, err := c.priceList.RenderHTML(r.Context())
	if err != nil {
		writeError(w, "PriceListHTML", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// PDF handles GET /api/price-list.pdf
func (c *PriceListController) PDF(w http.ResponseWriter, r *http.Request) {
	logger.Log.Infof("📥 PriceListPDF: rendering")

	data, err := c.priceList.GeneratePDF(r.Context())
	if err != nil {
		writeError(w, "PriceListPDF", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "price-list-"+time.Now().Format(dateLayout)+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logger.Log.Errorf("❌ PriceListPDF: failed to write response: %v", err)
	}
}
