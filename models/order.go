package models

import "github.com/shopspring/decimal"

// OrderStatus values
const (
	OrderStatusNew       = "new"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// Payment methods
const (
	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"
)

// Order is a placed order with prices frozen at checkout
type Order struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	Status          string          `json:"status"`
	OrderType       OrderType       `json:"orderType"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	CustomerEmail   string          `json:"customerEmail,omitempty"`
	DeliveryMethod  string          `json:"deliveryMethod"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentID       string          `json:"paymentId,omitempty"`
	RetailTotal     decimal.Decimal `json:"retailTotal"`
	Total           decimal.Decimal `json:"total"`
	Economy         decimal.Decimal `json:"economy"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Notes           string          `json:"notes,omitempty"`
	Lines           []OrderLine     `json:"lines"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

// OrderLine is a frozen cart line
type OrderLine struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"orderId"`
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName,omitempty"`
	SelectedColor   string          `json:"selectedColor,omitempty"`
	SelectedSize    string          `json:"selectedSize,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitRetailPrice decimal.Decimal `json:"unitRetailPrice"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	LineTotal       decimal.Decimal `json:"lineTotal"`
}

// CreateOrderRequest is the body of POST /api/orders
// Example: {"cartId": "3f0c...", "customerName": "Иван", "customerPhone": "+79001234567", "deliveryMethod": "pochta", "paymentMethod": "card"}
type CreateOrderRequest struct {
	CartID          string `json:"cartId" validate:"required,uuid"`
	CustomerName    string `json:"customerName" validate:"required,max=255"`
	CustomerPhone   string `json:"customerPhone" validate:"required,max=32"`
	CustomerEmail   string `json:"customerEmail,omitempty" validate:"omitempty,email"`
	DeliveryMethod  string `json:"deliveryMethod" validate:"required"`
	DeliveryAddress string `json:"deliveryAddress,omitempty"`
	PaymentMethod   string `json:"paymentMethod" validate:"required,oneof=card cash"`
	Notes           string `json:"notes,omitempty" validate:"max=2000"`
}

// CreateOrderResponse carries the order plus the client secret for card payments
type CreateOrderResponse struct {
	Order         *Order `json:"order"`
	PaymentSecret string `json:"paymentSecret,omitempty"`
}

// UpdateOrderStatusRequest is the body of PATCH /admin/orders/{id}/status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderListItem is an order without lines
type OrderListItem struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	Status        string          `json:"status"`
	OrderType     OrderType       `json:"orderType"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	Total         decimal.Decimal `json:"total"`
	LineCount     int             `json:"lineCount"`
	CreatedAt     string          `json:"createdAt"`
}

// OrderStats aggregates orders for the admin analytics screen
type OrderStats struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	OrdersCount     int             `json:"ordersCount"`
	RetailCount     int             `json:"retailCount"`
	WholesaleCount  int             `json:"wholesaleCount"`
	CanceledCount   int             `json:"canceledCount"`
	Revenue         decimal.Decimal `json:"revenue"`
	AverageCheck    decimal.Decimal `json:"averageCheck"`
	EconomyProvided decimal.Decimal `json:"economyProvided"`
}

// FinishStats derives the average check from revenue and order count
func FinishStats(s *OrderStats) {
	if s.OrdersCount == 0 {
		s.AverageCheck = decimal.Zero
		return
	}
	s.AverageCheck = s.Revenue.Div(decimal.NewFromInt(int64(s.OrdersCount))).Round(2)
}
