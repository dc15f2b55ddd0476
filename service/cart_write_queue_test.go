package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
	"optovik-store/repository"
	"optovik-store/repository/memory"
)

func cartWithQty(id string, qty int) models.Cart {
	return models.Cart{ID: id, Lines: []models.CartLine{{ProductID: "p1", Quantity: qty, UnitRetailPrice: dec("100")}}}
}

func storedQty(t *testing.T, store *memory.CartStore, id string) int {
	t.Helper()
	c, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	return c.Lines[0].Quantity
}

func TestCartWriteQueue_CoalescesBurst(t *testing.T) {
	store := memory.NewCartStore()
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: 30 * time.Millisecond, MaxDelay: time.Second})

	for i := 1; i <= 5; i++ {
		q.Enqueue(cartWithQty("c1", i))
	}
	assert.Equal(t, 1, q.Pending())

	require.Eventually(t, func() bool { return store.Saves() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, storedQty(t, store, "c1"))
	assert.Equal(t, 0, q.Pending())
}

func TestCartWriteQueue_MaxDelayBoundsDebounce(t *testing.T) {
	store := memory.NewCartStore()
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: 200 * time.Millisecond, MaxDelay: 250 * time.Millisecond})

	// Writes keep arriving faster than the debounce, so only the max delay can trigger a save.
	deadline := time.Now().Add(600 * time.Millisecond)
	qty := 0
	for time.Now().Before(deadline) {
		qty++
		q.Enqueue(cartWithQty("c1", qty))
		time.Sleep(40 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, store.Saves(), 1)
	require.NoError(t, q.Flush(context.Background()))
	assert.Equal(t, qty, storedQty(t, store, "c1"))
}

func TestCartWriteQueue_Flush(t *testing.T) {
	store := memory.NewCartStore()
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: time.Hour, MaxDelay: time.Hour})

	q.Enqueue(cartWithQty("c1", 3))
	q.Enqueue(cartWithQty("c2", 7))
	assert.Equal(t, 2, q.Pending())
	assert.Equal(t, 0, store.Saves())

	require.NoError(t, q.Flush(context.Background()))
	assert.Equal(t, 0, q.Pending())
	assert.Equal(t, 3, storedQty(t, store, "c1"))
	assert.Equal(t, 7, storedQty(t, store, "c2"))
}

func TestCartWriteQueue_DeleteSupersedesSave(t *testing.T) {
	store := memory.NewCartStore()
	require.NoError(t, store.Save(context.Background(), cartWithQty("c1", 1)))
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: time.Hour, MaxDelay: time.Hour})

	q.Enqueue(cartWithQty("c1", 2))
	q.EnqueueDelete("c1")
	require.NoError(t, q.Flush(context.Background()))

	_, err := store.Get(context.Background(), "c1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartWriteQueue_OlderSnapshotNeverOverwrites(t *testing.T) {
	store := memory.NewCartStore()
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store})
	ctx := context.Background()

	newer := &pendingCart{cart: cartWithQty("c1", 9), seq: 2}
	older := &pendingCart{cart: cartWithQty("c1", 4), seq: 1}
	require.NoError(t, q.write(ctx, "c1", newer))
	require.NoError(t, q.write(ctx, "c1", older))

	assert.Equal(t, 9, storedQty(t, store, "c1"))
	assert.Equal(t, 1, store.Saves())
}

func TestCartWriteQueue_CloseWritesThrough(t *testing.T) {
	store := memory.NewCartStore()
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: time.Hour, MaxDelay: time.Hour})

	q.Enqueue(cartWithQty("c1", 1))
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, 1, storedQty(t, store, "c1"))

	q.Enqueue(cartWithQty("c1", 2))
	require.Eventually(t, func() bool { return store.Saves() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, storedQty(t, store, "c1"))
	assert.Equal(t, 0, q.Pending())
}

func TestCartWriteQueue_FlushReportsFailure(t *testing.T) {
	store := memory.NewCartStore()
	store.Err = errors.New("disk full")
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: time.Hour, MaxDelay: time.Hour})

	q.Enqueue(cartWithQty("c1", 1))
	err := q.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

// flakyCartStore fails the first fails saves.
type flakyCartStore struct {
	*memory.CartStore
	mu    sync.Mutex
	fails int
}

func (s *flakyCartStore) Save(ctx context.Context, cart models.Cart) error {
	s.mu.Lock()
	if s.fails > 0 {
		s.fails--
		s.mu.Unlock()
		return errors.New("connection reset")
	}
	s.mu.Unlock()
	return s.CartStore.Save(ctx, cart)
}

func TestCartWriteQueue_RetriesFailedWrite(t *testing.T) {
	store := &flakyCartStore{CartStore: memory.NewCartStore(), fails: 1}
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: 20 * time.Millisecond, MaxDelay: 200 * time.Millisecond})

	q.Enqueue(cartWithQty("c1", 7))

	require.Eventually(t, func() bool { return store.Saves() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 7, storedQty(t, store.CartStore, "c1"))
	require.Eventually(t, func() bool { return q.Settled("c1") }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, q.Pending())
}

func TestCartWriteQueue_FlushKeepsFailedSnapshot(t *testing.T) {
	store := &flakyCartStore{CartStore: memory.NewCartStore(), fails: 1}
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: time.Hour, MaxDelay: time.Hour})
	ctx := context.Background()

	q.Enqueue(cartWithQty("c1", 7))
	err := q.Flush(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, q.Pending())
	assert.False(t, q.Settled("c1"))

	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, 7, storedQty(t, store.CartStore, "c1"))
	assert.True(t, q.Settled("c1"))
}

func TestCartWriteQueue_FailedWriteYieldsToNewerSnapshot(t *testing.T) {
	store := memory.NewCartStore()
	q := NewCartWriteQueue(CartWriteQueueDeps{Repository: store, Debounce: time.Hour, MaxDelay: time.Hour})
	ctx := context.Background()

	q.Enqueue(cartWithQty("c1", 1))
	q.mu.Lock()
	stale := q.pending["c1"]
	stale.timer.Stop()
	delete(q.pending, "c1")
	q.inflight["c1"]++
	q.mu.Unlock()

	q.Enqueue(cartWithQty("c1", 2))
	q.finish("c1", stale, errors.New("timeout"))

	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, 2, storedQty(t, store, "c1"))
	assert.Equal(t, 1, store.Saves())
}

func TestCartWriteQueue_RetryDelayBackoff(t *testing.T) {
	q := NewCartWriteQueue(CartWriteQueueDeps{Debounce: 100 * time.Millisecond, MaxDelay: time.Second})

	assert.Equal(t, 100*time.Millisecond, q.retryDelay(1))
	assert.Equal(t, 200*time.Millisecond, q.retryDelay(2))
	assert.Equal(t, 800*time.Millisecond, q.retryDelay(4))
	assert.Equal(t, time.Second, q.retryDelay(10))
}
