package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/repository"
)

const (
	defaultCartDebounce = 500 * time.Millisecond
	defaultCartMaxDelay = 5 * time.Second
)

// CartWriteQueueDeps bundles constructor inputs for CartWriteQueue.
type CartWriteQueueDeps struct {
	Repository repository.CartRepositoryInterface
	Debounce   time.Duration
	MaxDelay   time.Duration
	Clock      func() time.Time
}

type pendingCart struct {
	cart     models.Cart
	seq      uint64
	first    time.Time
	timer    *time.Timer
	deleted  bool
	attempts int
}

// CartWriteQueue coalesces cart snapshots and persists the latest one per cart.
// A pending write fires after Debounce of quiet, but never later than MaxDelay
// after the first snapshot it holds. Intermediate snapshots are dropped.
// A failed write stays pending and is retried with backoff until it lands or
// a newer snapshot replaces it.
type CartWriteQueue struct {
	repo     repository.CartRepositoryInterface
	debounce time.Duration
	maxDelay time.Duration
	clock    func() time.Time

	mu       sync.Mutex
	pending  map[string]*pendingCart
	inflight map[string]int
	seq      uint64
	closed   bool

	// writeMu orders writes per queue; written tracks the newest seq stored per cart
	// while anything for that cart is still queued or in flight.
	writeMu sync.Mutex
	written map[string]uint64
	flights sync.WaitGroup
}

// NewCartWriteQueue creates a queue.
func NewCartWriteQueue(deps CartWriteQueueDeps) *CartWriteQueue {
	debounce := deps.Debounce
	if debounce <= 0 {
		debounce = defaultCartDebounce
	}
	maxDelay := deps.MaxDelay
	if maxDelay < debounce {
		maxDelay = defaultCartMaxDelay
		if maxDelay < debounce {
			maxDelay = debounce
		}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &CartWriteQueue{
		repo:     deps.Repository,
		debounce: debounce,
		maxDelay: maxDelay,
		clock:    clock,
		pending:  make(map[string]*pendingCart),
		inflight: make(map[string]int),
		written:  make(map[string]uint64),
	}
}

// Enqueue schedules cart to be saved, replacing any snapshot still pending for it.
func (q *CartWriteQueue) Enqueue(cart models.Cart) {
	q.schedule(cart.ID, cart.Clone(), false)
}

// EnqueueDelete schedules a cart removal, replacing any pending save.
func (q *CartWriteQueue) EnqueueDelete(cartID string) {
	q.schedule(cartID, models.Cart{ID: cartID}, true)
}

func (q *CartWriteQueue) schedule(id string, cart models.Cart, deleted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	now := q.clock()

	if q.closed {
		// After Close nothing is timer driven; write straight through.
		p := &pendingCart{cart: cart, seq: q.seq, first: now, deleted: deleted}
		delete(q.pending, id)
		q.inflight[id]++
		q.flights.Add(1)
		go func() {
			defer q.flights.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			q.finish(id, p, q.write(ctx, id, p))
		}()
		return
	}

	p, ok := q.pending[id]
	if !ok {
		p = &pendingCart{first: now}
		q.pending[id] = p
	}
	p.cart = cart
	p.seq = q.seq
	p.deleted = deleted
	p.attempts = 0

	delay := q.debounce
	if deadline := p.first.Add(q.maxDelay); now.Add(delay).After(deadline) {
		delay = deadline.Sub(now)
		if delay < 0 {
			delay = 0
		}
	}
	q.arm(id, p, delay)
}

// arm (re)starts the timer of p. Caller holds q.mu.
func (q *CartWriteQueue) arm(id string, p *pendingCart, delay time.Duration) {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(delay, func() { q.fire(id, p) })
}

// fire runs on the timer goroutine. It only writes if p is still the pending entry.
func (q *CartWriteQueue) fire(id string, p *pendingCart) {
	q.mu.Lock()
	if q.pending[id] != p {
		q.mu.Unlock()
		return
	}
	delete(q.pending, id)
	q.inflight[id]++
	q.flights.Add(1)
	q.mu.Unlock()

	defer q.flights.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.finish(id, p, q.write(ctx, id, p))
}

// finish settles an in-flight write. A failed snapshot goes back to pending
// unless a newer one has been queued meanwhile.
func (q *CartWriteQueue) finish(id string, p *pendingCart, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.inflight[id]--; q.inflight[id] <= 0 {
		delete(q.inflight, id)
	}
	if err != nil && q.pending[id] == nil {
		p.attempts++
		p.first = q.clock()
		q.pending[id] = p
		if !q.closed {
			q.arm(id, p, q.retryDelay(p.attempts))
		}
		logger.Log.Warnf("🔁 Cart write for %s will be retried (attempt %d)", id, p.attempts)
	}
	if q.pending[id] == nil && q.inflight[id] == 0 {
		q.writeMu.Lock()
		delete(q.written, id)
		q.writeMu.Unlock()
	}
}

// retryDelay doubles the debounce per failed attempt, capped at MaxDelay.
func (q *CartWriteQueue) retryDelay(attempts int) time.Duration {
	d := q.debounce
	for i := 1; i < attempts && d < q.maxDelay; i++ {
		d *= 2
	}
	if d > q.maxDelay {
		d = q.maxDelay
	}
	return d
}

// write persists p unless a newer snapshot of the same cart was already stored.
func (q *CartWriteQueue) write(ctx context.Context, id string, p *pendingCart) error {
	q.writeMu.Lock()
	defer q.writeMu.Unlock()

	if q.written[id] >= p.seq {
		return nil
	}

	var err error
	if p.deleted {
		err = q.repo.Delete(ctx, id)
	} else {
		err = q.repo.Save(ctx, p.cart)
	}
	if err != nil {
		logger.Log.Errorf("❌ Cart write failed: cart=%s: %v", id, err)
		return fmt.Errorf("failed to persist cart %s: %w", id, err)
	}
	q.written[id] = p.seq
	return nil
}

// Pending reports how many carts have unsaved snapshots.
func (q *CartWriteQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Settled reports whether every snapshot queued for the cart has reached the store.
func (q *CartWriteQueue) Settled(cartID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending[cartID] == nil && q.inflight[cartID] == 0
}

// Flush synchronously writes every pending snapshot and waits for in-flight writes.
// Snapshots that fail stay pending and the first error is returned.
func (q *CartWriteQueue) Flush(ctx context.Context) error {
	q.mu.Lock()
	batch := make(map[string]*pendingCart, len(q.pending))
	for id, p := range q.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		batch[id] = p
		q.inflight[id]++
	}
	q.pending = make(map[string]*pendingCart)
	q.mu.Unlock()

	var firstErr error
	for id, p := range batch {
		err := q.write(ctx, id, p)
		q.finish(id, p, err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		q.flights.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if firstErr == nil {
			firstErr = ctx.Err()
		}
	}

	if len(batch) > 0 {
		logger.Log.Infof("💾 Cart queue flushed: %d carts", len(batch))
	}
	return firstErr
}

// Close flushes and switches the queue to write-through mode.
func (q *CartWriteQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return q.Flush(ctx)
}
