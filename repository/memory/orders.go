package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"optovik-store/models"
	"optovik-store/repository"
)

type storedOrder struct {
	order   models.Order
	created time.Time
}

// OrderStore keeps orders in memory.
type OrderStore struct {
	mu     sync.RWMutex
	orders []storedOrder
	nextID int64
	lineID int64
	// Now is the clock used for created_at. Defaults to time.Now.
	Now func() time.Time
}

var _ repository.OrderRepositoryInterface = (*OrderStore)(nil)

// NewOrderStore returns an empty store.
func NewOrderStore() *OrderStore {
	return &OrderStore{Now: time.Now}
}

// Create implements the repository interface.
func (s *OrderStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.order.Number == order.Number {
			return fmt.Errorf("order number %s already exists: %w", order.Number, repository.ErrConflict)
		}
	}

	now := s.Now().UTC()
	s.nextID++
	order.ID = s.nextID
	order.CreatedAt = now.Format(time.RFC3339)
	order.UpdatedAt = order.CreatedAt
	for i := range order.Lines {
		s.lineID++
		order.Lines[i].ID = s.lineID
		order.Lines[i].OrderID = order.ID
	}
	s.orders = append(s.orders, storedOrder{order: cloneOrder(*order), created: now})
	return nil
}

// GetByID implements the repository interface.
func (s *OrderStore) GetByID(_ context.Context, id int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.order.ID == id {
			out := cloneOrder(o.order)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetByNumber implements the repository interface.
func (s *OrderStore) GetByNumber(_ context.Context, number string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.order.Number == number {
			out := cloneOrder(o.order)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// List implements the repository interface.
func (s *OrderStore) List(_ context.Context, status string, limit, offset int) ([]models.OrderListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}

	items := []models.OrderListItem{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		o := s.orders[i].order
		if status != "" && o.Status != status {
			continue
		}
		items = append(items, models.OrderListItem{
			ID:            o.ID,
			Number:        o.Number,
			Status:        o.Status,
			OrderType:     o.OrderType,
			CustomerName:  o.CustomerName,
			CustomerPhone: o.CustomerPhone,
			Total:         o.Total,
			LineCount:     len(o.Lines),
			CreatedAt:     o.CreatedAt,
		})
	}
	if offset >= len(items) {
		return []models.OrderListItem{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

// ListWithLines implements the repository interface.
func (s *OrderStore) ListWithLines(_ context.Context, from, to time.Time) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if o.created.Before(from) || !o.created.Before(to) {
			continue
		}
		out = append(out, cloneOrder(o.order))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateStatus implements the repository interface.
func (s *OrderStore) UpdateStatus(_ context.Context, id int64, status string) error {
	return s.update(id, func(o *models.Order) { o.Status = status })
}

// SetPaymentID implements the repository interface.
func (s *OrderStore) SetPaymentID(_ context.Context, id int64, paymentID string) error {
	return s.update(id, func(o *models.Order) { o.PaymentID = paymentID })
}

// Stats implements the repository interface.
func (s *OrderStore) Stats(_ context.Context, from, to time.Time) (*models.OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.OrderStats{
		From:            from.UTC().Format(time.RFC3339),
		To:              to.UTC().Format(time.RFC3339),
		Revenue:         decimal.Zero,
		EconomyProvided: decimal.Zero,
	}
	for _, so := range s.orders {
		if so.created.Before(from) || !so.created.Before(to) {
			continue
		}
		o := so.order
		if o.Status == models.OrderStatusCanceled {
			stats.CanceledCount++
			continue
		}
		stats.OrdersCount++
		if o.OrderType == models.OrderTypeWholesale {
			stats.WholesaleCount++
		} else {
			stats.RetailCount++
		}
		stats.Revenue = stats.Revenue.Add(o.Total)
		stats.EconomyProvided = stats.EconomyProvided.Add(o.Economy)
	}
	models.FinishStats(stats)
	return stats, nil
}

func (s *OrderStore) update(id int64, fn func(*models.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].order.ID == id {
			fn(&s.orders[i].order)
			s.orders[i].order.UpdatedAt = s.Now().UTC().Format(time.RFC3339)
			return nil
		}
	}
	return repository.ErrNotFound
}

func cloneOrder(o models.Order) models.Order {
	o.Lines = append([]models.OrderLine{}, o.Lines...)
	return o
}
