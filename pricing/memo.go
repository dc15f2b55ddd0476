package pricing

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"optovik-store/models"
)

const defaultMemoCapacity = 1024

// Memo caches Resolve results keyed by a content hash of its inputs.
// Cached summaries are shared between callers and must be treated as read-only.
type Memo struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]models.PricingSummary
	hits     uint64
	misses   uint64
}

// NewMemo creates a memo holding at most capacity summaries.
func NewMemo(capacity int) *Memo {
	if capacity <= 0 {
		capacity = defaultMemoCapacity
	}
	return &Memo{
		capacity: capacity,
		entries:  make(map[uint64]models.PricingSummary, capacity),
	}
}

// Resolve returns the cached summary for identical inputs, computing it on a miss.
func (m *Memo) Resolve(lines []models.CartLine, settings Settings) models.PricingSummary {
	key := Key(lines, settings)

	m.mu.Lock()
	if cached, ok := m.entries[key]; ok {
		m.hits++
		m.mu.Unlock()
		return cached
	}
	m.misses++
	m.mu.Unlock()

	summary := Resolve(lines, settings)

	m.mu.Lock()
	if len(m.entries) >= m.capacity {
		// Carts churn quickly; dropping everything is cheaper than tracking recency.
		m.entries = make(map[uint64]models.PricingSummary, m.capacity)
	}
	m.entries[key] = summary
	m.mu.Unlock()

	return summary
}

// Stats returns hit and miss counters.
func (m *Memo) Stats() (hits, misses uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

// Key hashes everything Resolve reads. Line order matters, as it does for the anomaly indexes.
func Key(lines []models.CartLine, settings Settings) uint64 {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}

	write(settings.MinRetailOrder.String())
	write(settings.MinWholesaleOrder.String())
	write(strconv.Itoa(len(settings.Tiers)))
	for _, t := range settings.Tiers {
		write(t.Amount.String())
		write(t.Percent.String())
	}

	write(strconv.Itoa(len(lines)))
	for _, l := range lines {
		write(l.ProductID)
		write(l.UnitRetailPrice.String())
		write(strconv.Itoa(l.Quantity))
		write(l.SelectedColor)
		write(l.SelectedSize)
	}
	return d.Sum64()
}
