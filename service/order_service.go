package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/repository"
	"optovik-store/utils"
)

var (
	ErrEmptyCart               = errors.New("cart is empty")
	ErrBelowMinimumOrder       = errors.New("order total is below the minimum order amount")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrPaymentMethodDisabled   = errors.New("payment method is disabled")
	ErrDeliveryMethodInvalid   = errors.New("delivery method is not offered")
	ErrNoPayment               = errors.New("order has no card payment")
)

// orderTransitions lists the statuses each status may move to.
var orderTransitions = map[string][]string{
	models.OrderStatusNew:       {models.OrderStatusConfirmed, models.OrderStatusPaid, models.OrderStatusCanceled},
	models.OrderStatusConfirmed: {models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusCanceled},
	models.OrderStatusPaid:      {models.OrderStatusShipped, models.OrderStatusCanceled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered, models.OrderStatusCanceled},
	models.OrderStatusDelivered: {},
	models.OrderStatusCanceled:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SettingsReader is the read side of SettingsProvider used outside the cart.
type SettingsReader interface {
	PricingSettingsSource
	GetSetting(key, def string) string
}

// OrderServiceDeps bundles constructor inputs for OrderService.
type OrderServiceDeps struct {
	Orders    repository.OrderRepositoryInterface
	Products  repository.ProductRepositoryInterface
	Carts     *CartService
	Settings  SettingsReader
	Payments  PaymentGateway
	Notifier  Notifier
	Audit     AuditRecorder
	Clock     func() time.Time
	NewNumber func() string
}

// OrderService turns carts into orders and manages their lifecycle
type OrderService struct {
	orders    repository.OrderRepositoryInterface
	products  repository.ProductRepositoryInterface
	carts     *CartService
	settings  SettingsReader
	payments  PaymentGateway
	notifier  Notifier
	audit     AuditRecorder
	clock     func() time.Time
	newNumber func() string

	notifications notifyQueue
}

// NewOrderService creates a new OrderService
func NewOrderService(deps OrderServiceDeps) *OrderService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newNumber := deps.NewNumber
	if newNumber == nil {
		newNumber = func() string { return ulid.Make().String() }
	}
	audit := deps.Audit
	if audit == nil {
		audit = noopAudit{}
	}
	return &OrderService{
		orders:    deps.Orders,
		products:  deps.Products,
		carts:     deps.Carts,
		settings:  deps.Settings,
		payments:  deps.Payments,
		notifier:  deps.Notifier,
		audit:     audit,
		clock:     clock,
		newNumber: newNumber,
	}
}

// CreateOrder checks out a cart. Prices and the order type are frozen from the
// pricing summary at this moment. The cart is claimed for the duration, so a
// concurrent checkout or edit of the same cart fails with ErrCartCheckingOut.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (resp *models.CreateOrderResponse, err error) {
	if err := utils.Validate.Struct(req); err != nil {
		return nil, err
	}
	if err := s.checkPaymentMethod(req.PaymentMethod); err != nil {
		return nil, err
	}
	if err := s.checkDeliveryMethod(req.DeliveryMethod); err != nil {
		return nil, err
	}

	cart, err := s.carts.BeginCheckout(ctx, req.CartID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.carts.ReleaseCheckout(req.CartID)
		}
	}()
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if err := s.refreshLinePrices(ctx, &cart); err != nil {
		return nil, err
	}

	summary := s.carts.Pricing(cart)
	if !summary.ProgressToMinOrder.IsReached {
		return nil, fmt.Errorf("%w: add %s more", ErrBelowMinimumOrder, utils.FormatRUB(summary.ProgressToMinOrder.Remaining))
	}

	order := buildOrder(cart, summary, req)
	order.Number = s.newNumber()
	order.Status = models.OrderStatusNew

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	logger.Log.Infof("🧾 Order %s created: type=%s total=%s", order.Number, order.OrderType, order.Total)

	resp = &models.CreateOrderResponse{Order: order}
	if order.PaymentMethod == models.PaymentMethodCard {
		result, err := s.payments.CreatePayment(ctx, PaymentRequest{
			OrderNumber: order.Number,
			Amount:      order.Total,
			Description: "Заказ " + order.Number,
			Email:       order.CustomerEmail,
			Metadata:    map[string]string{"order_type": string(order.OrderType)},
		})
		if err != nil {
			// Leave the cart intact so the customer can retry.
			if uerr := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusCanceled); uerr != nil {
				logger.Log.Errorf("❌ Failed to cancel order %s after payment error: %v", order.Number, uerr)
			}
			return nil, fmt.Errorf("failed to start payment: %w", err)
		}
		if err := s.orders.SetPaymentID(ctx, order.ID, result.PaymentID); err != nil {
			return nil, fmt.Errorf("failed to save payment id: %w", err)
		}
		order.PaymentID = result.PaymentID
		resp.PaymentSecret = result.ClientSecret
	}

	s.carts.Delete(ctx, req.CartID)
	if s.notifier != nil {
		created := *order
		s.notifications.dispatch(ctx, func(ctx context.Context) {
			s.notifier.OrderCreated(ctx, &created)
		})
	}
	s.audit.Record(ctx, "storefront", AuditOrderCreated, "order:"+order.Number, map[string]string{
		"orderType": string(order.OrderType),
		"total":     order.Total.String(),
	})
	return resp, nil
}

// WaitNotifications blocks until queued staff notifications have been sent.
func (s *OrderService) WaitNotifications() {
	s.notifications.wait()
}

// refreshLinePrices re-reads the catalog so an order never uses a stale or withdrawn product.
func (s *OrderService) refreshLinePrices(ctx context.Context, cart *models.Cart) error {
	for i := range cart.Lines {
		line := &cart.Lines[i]
		p, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrProductUnavailable, line.ProductID)
			}
			return fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
		}
		if !p.IsActive {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, p.Name)
		}
		line.UnitRetailPrice = p.RetailPrice
		line.ProductName = p.Name
	}
	return nil
}

func buildOrder(cart models.Cart, summary models.PricingSummary, req models.CreateOrderRequest) *models.Order {
	percent := decimal.Zero
	if summary.AppliedTier != nil {
		percent = summary.AppliedTier.Percent
	}

	order := &models.Order{
		OrderType:       summary.OrderType,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		DeliveryMethod:  strings.TrimSpace(req.DeliveryMethod),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		PaymentMethod:   req.PaymentMethod,
		RetailTotal:     summary.RetailTotal,
		Total:           summary.CurrentTotal,
		Economy:         summary.TotalEconomy,
		DiscountPercent: percent,
		Notes:           strings.TrimSpace(req.Notes),
		Lines:           make([]models.OrderLine, 0, len(summary.Lines)),
	}

	names := make(map[string]string, len(cart.Lines))
	for _, l := range cart.Lines {
		names[l.ProductID] = l.ProductName
	}
	for _, lp := range summary.Lines {
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID:       lp.ProductID,
			ProductName:     names[lp.ProductID],
			SelectedColor:   lp.SelectedColor,
			SelectedSize:    lp.SelectedSize,
			Quantity:        lp.Quantity,
			UnitRetailPrice: lp.UnitRetailPrice,
			UnitPrice:       lp.UnitPrice,
			LineTotal:       lp.LineTotal,
		})
	}
	return order
}

func (s *OrderService) checkPaymentMethod(method string) error {
	key := models.SettingPaymentCashEnabled
	if method == models.PaymentMethodCard {
		key = models.SettingPaymentCardEnabled
		if s.payments == nil {
			return ErrPaymentsDisabled
		}
	}
	if !settingEnabled(s.settings.GetSetting(key, "true")) {
		return fmt.Errorf("%w: %s", ErrPaymentMethodDisabled, method)
	}
	return nil
}

func (s *OrderService) checkDeliveryMethod(method string) error {
	allowed := parseList(s.settings.GetSetting(models.SettingDeliveryMethods, ""))
	if len(allowed) == 0 {
		return nil
	}
	for _, m := range allowed {
		if strings.EqualFold(m, strings.TrimSpace(method)) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrDeliveryMethodInvalid, method)
}

// Get returns an order by id
func (s *OrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// List returns orders newest first
func (s *OrderService) List(ctx context.Context, status string, limit, offset int) ([]models.OrderListItem, error) {
	if status != "" {
		if _, ok := orderTransitions[status]; !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, status)
		}
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.List(ctx, status, limit, offset)
}

// Track returns an order to a customer who knows both its number and phone
func (s *OrderService) Track(ctx context.Context, number, phone string) (*models.Order, error) {
	o, err := s.orders.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !samePhone(o.CustomerPhone, phone) {
		return nil, ErrOrderNotFound
	}
	o.CustomerEmail = ""
	o.PaymentID = ""
	return o, nil
}

// UpdateStatus moves an order along its lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, actor string, id int64, status string) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, status)
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	previous := order.Status
	order.Status = status
	logger.Log.Infof("🔄 Order %s: %s -> %s by %s", order.Number, previous, status, actor)
	if s.notifier != nil {
		changed := *order
		s.notifications.dispatch(ctx, func(ctx context.Context) {
			s.notifier.OrderStatusChanged(ctx, &changed, previous)
		})
	}
	s.audit.Record(ctx, actor, AuditOrderStatusChanged, "order:"+order.Number, map[string]string{
		"from": previous,
		"to":   status,
	})
	return order, nil
}

// SyncPayment marks a card order as paid once the gateway reports success
func (s *OrderService) SyncPayment(ctx context.Context, actor string, id int64) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentID == "" || s.payments == nil {
		return nil, ErrNoPayment
	}
	paid, err := s.payments.PaymentSucceeded(ctx, order.PaymentID)
	if err != nil {
		return nil, err
	}
	if !paid || order.Status == models.OrderStatusPaid || !CanTransition(order.Status, models.OrderStatusPaid) {
		return order, nil
	}
	return s.UpdateStatus(ctx, actor, id, models.OrderStatusPaid)
}

// Stats aggregates orders for [from, to)
func (s *OrderService) Stats(ctx context.Context, from, to time.Time) (*models.OrderStats, error) {
	from, to = s.normalizeRange(from, to)
	return s.orders.Stats(ctx, from, to)
}

// normalizeRange defaults to the last 30 days and makes the range non-empty.
func (s *OrderService) normalizeRange(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = s.clock()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !from.Before(to) {
		from, to = to, from.Add(time.Second)
	}
	return from.UTC(), to.UTC()
}

func settingEnabled(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}

// parseList accepts a JSON string list or a comma separated list.
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var list []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &list) == nil {
		return list
	}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

// samePhone compares the last ten digits so "+7 (900) 123-45-67" matches "89001234567".
func samePhone(a, b string) bool {
	da, db := digits(a), digits(b)
	if len(da) < 7 || len(db) < 7 {
		return false
	}
	if len(da) > 10 {
		da = da[len(da)-10:]
	}
	if len(db) > 10 {
		db = db[len(db)-10:]
	}
	return da == db
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
