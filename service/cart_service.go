package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/pricing"
	"optovik-store/repository"
	"optovik-store/utils"
)

var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrCartLineNotFound   = errors.New("cart line not found")
	ErrProductUnavailable = errors.New("product not found or inactive")
	ErrInvalidVariant     = errors.New("color or size not offered for this product")
	ErrInvalidQuantity    = errors.New("quantity must be greater than 0")
	ErrCartCheckingOut    = errors.New("cart is being checked out")
)

const defaultCartIdleTTL = 30 * time.Minute

// PricingSettingsSource supplies the current pricing configuration.
type PricingSettingsSource interface {
	PricingSettings() pricing.Settings
}

// CartServiceDeps bundles constructor inputs for CartService.
type CartServiceDeps struct {
	Products repository.ProductRepositoryInterface
	Carts    repository.CartRepositoryInterface
	Queue    *CartWriteQueue
	Settings PricingSettingsSource
	Memo     *pricing.Memo
	NewID    func() string
	Clock    func() time.Time
	// IdleTTL is how long an untouched cart stays in memory after it has been persisted.
	IdleTTL time.Duration
}

// liveCart is one entry of the in-memory cart set. A nil cart marks a deleted
// cart whose removal has not reached the store yet.
type liveCart struct {
	cart     *models.Cart
	claimed  bool
	lastUsed time.Time
}

// CartService owns the live cart state. Every mutation runs under one lock
// so each cart has a single writer, and readers get copies.
// A cart claimed for checkout rejects mutations until it is deleted or released.
type CartService struct {
	products repository.ProductRepositoryInterface
	carts    repository.CartRepositoryInterface
	queue    *CartWriteQueue
	settings PricingSettingsSource
	memo     *pricing.Memo
	newID    func() string
	clock    func() time.Time
	idleTTL  time.Duration

	mu   sync.Mutex
	live map[string]*liveCart
}

// NewCartService creates a new CartService
func NewCartService(deps CartServiceDeps) *CartService {
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	memo := deps.Memo
	if memo == nil {
		memo = pricing.NewMemo(0)
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idleTTL := deps.IdleTTL
	if idleTTL <= 0 {
		idleTTL = defaultCartIdleTTL
	}
	return &CartService{
		products: deps.Products,
		carts:    deps.Carts,
		queue:    deps.Queue,
		settings: deps.Settings,
		memo:     memo,
		newID:    newID,
		clock:    clock,
		idleTTL:  idleTTL,
		live:     make(map[string]*liveCart),
	}
}

// Create starts an empty cart
func (s *CartService) Create(ctx context.Context) (*models.CartResponse, error) {
	cart := &models.Cart{ID: s.newID(), Lines: []models.CartLine{}}

	s.mu.Lock()
	s.live[cart.ID] = &liveCart{cart: cart, lastUsed: s.clock()}
	snapshot := cart.Clone()
	s.queue.Enqueue(snapshot)
	s.mu.Unlock()

	logger.Log.Infof("🛒 Cart created: %s", cart.ID)
	return s.respond(snapshot), nil
}

// Get returns the cart with its pricing
func (s *CartService) Get(ctx context.Context, cartID string) (*models.CartResponse, error) {
	snapshot, err := s.Snapshot(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.respond(snapshot), nil
}

// Snapshot returns a read-only copy of the cart's current lines
func (s *CartService) Snapshot(ctx context.Context, cartID string) (models.Cart, error) {
	var snapshot models.Cart
	err := s.withEntry(ctx, cartID, func(e *liveCart) error {
		snapshot = e.cart.Clone()
		return nil
	})
	return snapshot, err
}

// BeginCheckout claims the cart for one checkout and returns its lines.
// Until Delete or ReleaseCheckout, mutations and further checkouts fail with ErrCartCheckingOut.
func (s *CartService) BeginCheckout(ctx context.Context, cartID string) (models.Cart, error) {
	var snapshot models.Cart
	err := s.withEntry(ctx, cartID, func(e *liveCart) error {
		if e.claimed {
			return ErrCartCheckingOut
		}
		e.claimed = true
		snapshot = e.cart.Clone()
		return nil
	})
	return snapshot, err
}

// ReleaseCheckout returns a claimed cart to normal use after a failed checkout.
func (s *CartService) ReleaseCheckout(cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.live[cartID]; e != nil && e.cart != nil {
		e.claimed = false
		e.lastUsed = s.clock()
	}
}

// AddItem adds quantity of a product variant, merging with an existing line
func (s *CartService) AddItem(ctx context.Context, cartID string, req models.AddCartItemRequest) (*models.CartResponse, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.activeProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	color, size, err := matchVariant(product, req.SelectedColor, req.SelectedSize)
	if err != nil {
		return nil, err
	}

	line := models.CartLine{
		ProductID:       product.ID,
		ProductName:     product.Name,
		UnitRetailPrice: product.RetailPrice,
		Quantity:        req.Quantity,
		SelectedColor:   color,
		SelectedSize:    size,
	}

	var snapshot models.Cart
	err = s.mutate(ctx, cartID, func(c *models.Cart) (bool, error) {
		key := line.Key()
		merged := false
		for i := range c.Lines {
			if c.Lines[i].Key() == key {
				c.Lines[i].Quantity += line.Quantity
				c.Lines[i].UnitRetailPrice = line.UnitRetailPrice
				c.Lines[i].ProductName = line.ProductName
				merged = true
				break
			}
		}
		if !merged {
			c.Lines = append(c.Lines, line)
		}
		snapshot = c.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Debugf("🛒 AddItem: cart=%s product=%s qty=%d", cartID, product.ID, req.Quantity)
	return s.respond(snapshot), nil
}

// UpdateItem sets the quantity of a line. Zero or less removes it.
func (s *CartService) UpdateItem(ctx context.Context, cartID string, req models.UpdateCartItemRequest) (*models.CartResponse, error) {
	var snapshot models.Cart
	err := s.mutate(ctx, cartID, func(c *models.Cart) (bool, error) {
		idx := indexOfLine(c.Lines, req.ProductID, req.SelectedColor, req.SelectedSize)
		if idx < 0 {
			return false, ErrCartLineNotFound
		}
		if req.Quantity <= 0 {
			c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
		} else {
			c.Lines[idx].Quantity = req.Quantity
		}
		snapshot = c.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return s.respond(snapshot), nil
}

// RemoveItem deletes a line
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID, color, size string) (*models.CartResponse, error) {
	return s.UpdateItem(ctx, cartID, models.UpdateCartItemRequest{
		ProductID:     productID,
		Quantity:      0,
		SelectedColor: color,
		SelectedSize:  size,
	})
}

// Clear removes every line but keeps the cart
func (s *CartService) Clear(ctx context.Context, cartID string) (*models.CartResponse, error) {
	var snapshot models.Cart
	err := s.mutate(ctx, cartID, func(c *models.Cart) (bool, error) {
		c.Lines = []models.CartLine{}
		snapshot = c.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return s.respond(snapshot), nil
}

// Delete drops the cart, used once it has been turned into an order
func (s *CartService) Delete(ctx context.Context, cartID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The empty entry stops a stale stored copy from being reloaded before the delete lands.
	s.live[cartID] = &liveCart{lastUsed: s.clock()}
	s.queue.EnqueueDelete(cartID)
}

// Sweep drops carts from memory once everything queued for them has been stored:
// deleted carts right away, others after IdleTTL without use. Claimed carts stay.
func (s *CartService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	removed := 0
	for id, e := range s.live {
		if e.claimed || !s.queue.Settled(id) {
			continue
		}
		if e.cart == nil || now.Sub(e.lastUsed) >= s.idleTTL {
			delete(s.live, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Log.Debugf("🧹 Cart sweep: %d released, %d live", removed, len(s.live))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *CartService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Pricing resolves the summary for a cart snapshot against current settings
func (s *CartService) Pricing(cart models.Cart) models.PricingSummary {
	return s.memo.Resolve(cart.Lines, s.settings.PricingSettings())
}

func (s *CartService) respond(cart models.Cart) *models.CartResponse {
	return &models.CartResponse{Cart: cart, Pricing: s.Pricing(cart)}
}

// mutate runs fn on the live cart under the service lock. When fn reports a
// change the new state is handed to the write queue.
func (s *CartService) mutate(ctx context.Context, cartID string, fn func(*models.Cart) (bool, error)) error {
	return s.withEntry(ctx, cartID, func(e *liveCart) error {
		if e.claimed {
			return ErrCartCheckingOut
		}
		changed, err := fn(e.cart)
		if err != nil {
			return err
		}
		if changed {
			// Enqueued under the lock so the queue sees snapshots in mutation order.
			s.queue.Enqueue(e.cart.Clone())
		}
		return nil
	})
}

// withEntry runs fn on the live entry of an existing cart under the service lock.
func (s *CartService) withEntry(ctx context.Context, cartID string, fn func(*liveCart) error) error {
	for attempt := 0; ; attempt++ {
		if err := s.ensureLoaded(ctx, cartID); err != nil {
			return err
		}

		s.mu.Lock()
		e, ok := s.live[cartID]
		if !ok && attempt == 0 {
			// Swept between loading and locking; load it again.
			s.mu.Unlock()
			continue
		}
		if e == nil || e.cart == nil {
			s.mu.Unlock()
			return ErrCartNotFound
		}
		e.lastUsed = s.clock()
		err := fn(e)
		s.mu.Unlock()
		return err
	}
}

// ensureLoaded pulls a cart from storage into the live set on first use.
func (s *CartService) ensureLoaded(ctx context.Context, cartID string) error {
	if _, err := uuid.Parse(cartID); err != nil {
		return ErrCartNotFound
	}

	s.mu.Lock()
	_, ok := s.live[cartID]
	s.mu.Unlock()
	if ok {
		return nil
	}

	stored, err := s.carts.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCartNotFound
		}
		return fmt.Errorf("failed to load cart: %w", err)
	}
	if stored.Lines == nil {
		stored.Lines = []models.CartLine{}
	}

	s.mu.Lock()
	if _, ok := s.live[cartID]; !ok {
		s.live[cartID] = &liveCart{cart: stored, lastUsed: s.clock()}
	}
	s.mu.Unlock()
	return nil
}

func (s *CartService) activeProduct(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}
	return product, nil
}

// matchVariant maps the requested color/size onto the product's own spelling.
// Products without a color or size list accept any value.
func matchVariant(p *models.Product, color, size string) (string, string, error) {
	outColor := strings.TrimSpace(color)
	if len(p.Colors) > 0 && outColor != "" {
		found := false
		for _, c := range p.Colors {
			if utils.NormalizeColor(c) == utils.NormalizeColor(color) {
				outColor, found = c, true
				break
			}
		}
		if !found {
			return "", "", fmt.Errorf("%w: color %q", ErrInvalidVariant, color)
		}
	}

	outSize := strings.TrimSpace(size)
	if outSize != "" {
		outSize = utils.NormalizeSize(outSize)
	}
	if len(p.Sizes) > 0 && outSize != "" {
		found := false
		for _, sz := range p.Sizes {
			if utils.NormalizeSize(sz) == outSize {
				outSize, found = sz, true
				break
			}
		}
		if !found {
			return "", "", fmt.Errorf("%w: size %q", ErrInvalidVariant, size)
		}
	}
	return outColor, outSize, nil
}

// indexOfLine finds a line by product and variant, tolerating size aliases and color case.
func indexOfLine(lines []models.CartLine, productID, color, size string) int {
	productID = strings.TrimSpace(productID)
	color = utils.NormalizeColor(color)
	size = utils.NormalizeSize(size)
	for i := range lines {
		l := lines[i]
		if l.ProductID == productID &&
			utils.NormalizeColor(l.SelectedColor) == color &&
			utils.NormalizeSize(l.SelectedSize) == size {
			return i
		}
	}
	return -1
}
