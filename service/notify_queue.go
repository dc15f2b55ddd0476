package service

import (
	"context"
	"sync"
	"time"
)

const defaultNotifyTimeout = 15 * time.Second

// notifyQueue runs notifications off the request path, one at a time and in
// submission order. Each one gets its own deadline and ignores the caller's cancellation.
type notifyQueue struct {
	timeout time.Duration

	mu   sync.Mutex
	tail chan struct{}
	wg   sync.WaitGroup
}

func (q *notifyQueue) dispatch(ctx context.Context, fn func(context.Context)) {
	detached := context.WithoutCancel(ctx)
	timeout := q.timeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}

	q.mu.Lock()
	prev := q.tail
	done := make(chan struct{})
	q.tail = done
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		ctx, cancel := context.WithTimeout(detached, timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (q *notifyQueue) wait() {
	q.wg.Wait()
}
