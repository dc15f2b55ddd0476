package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/service"
)

const dateLayout = "2006-01-02"

// OrderController handles HTTP requests for orders
type OrderController struct {
	orders *service.OrderService
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *service.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Create handles POST /api/orders
// Example request:
// POST /api/orders
//
//	{
//	  "cartId": "7c1c0a3e-...",
//	  "customerName": "Иван Петров",
//	  "customerPhone": "+7 900 123-45-67",
//	  "deliveryMethod": "cdek",
//	  "paymentMethod": "cash"
//	}
//
// Example response:
//
//	{
//	  "order": {"number": "01J9Z...", "status": "new", "orderType": "wholesale", "total": "40500", ...}
//	}
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	logger.Log.Infof("📥 CreateOrder: Received %s request to %s", r.Method, r.URL.Path)

	var req models.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Log.Infof("❌ CreateOrder: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := c.orders.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, "CreateOrder", err)
		return
	}
	logger.Log.Infof("✅ CreateOrder: order %s created", resp.Order.Number)
	writeJSON(w, http.StatusCreated, resp)
}

// Track handles GET /api/orders/track?number=&phone=
func (c *OrderController) Track(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	number, phone := strings.TrimSpace(q.Get("number")), strings.TrimSpace(q.Get("phone"))
	if number == "" || phone == "" {
		http.Error(w, "number and phone are required", http.StatusBadRequest)
		return
	}
	order, err := c.orders.Track(r.Context(), number, phone)
	if err != nil {
		writeError(w, "TrackOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// List handles GET /admin/orders?status=&limit=&offset=
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.List(r.Context(), r.URL.Query().Get("status"), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, "ListOrders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /admin/orders/{orderID}
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := c.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, "GetOrder", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /admin/orders/{orderID}/status
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req models.UpdateOrderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order, err := c.orders.UpdateStatus(r.Context(), Actor(r), id, strings.TrimSpace(req.Status))
	if err != nil {
		writeError(w, "UpdateOrderStatus", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// SyncPayment handles POST /admin/orders/{orderID}/sync-payment
func (c *OrderController) SyncPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := c.orders.SyncPayment(r.Context(), Actor(r), id)
	if err != nil {
		writeError(w, "SyncPayment", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Stats handles GET /admin/orders/stats?from=2026-01-01&to=2026-02-01
func (c *OrderController) Stats(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stats, err := c.orders.Stats(r.Context(), from, to)
	if err != nil {
		writeError(w, "OrderStats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export handles GET /admin/orders/export.xlsx?from=&to=
func (c *OrderController) Export(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if _, err := c.orders.ExportOrders(r.Context(), from, to, &buf); err != nil {
		writeError(w, "ExportOrders", err)
		return
	}
	name := fmt.Sprintf("orders-%s.xlsx", time.Now().Format(dateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logger.Log.Errorf("❌ ExportOrders: failed to write response: %v", err)
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// dateRange reads from/to as dates or RFC3339 times. A date-only "to" includes that whole day.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	from, _, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from: %w", err)
	}
	to, dateOnly, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to: %w", err)
	}
	if dateOnly {
		to = to.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func parseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}
