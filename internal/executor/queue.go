package executor

import (
	"context"
	"errors"
	"sync"

	"HorizonTrader/internal/metrics"
	"HorizonTrader/internal/model"
)

// ErrQueueClosed is returned by Enqueue once the queue stopped taking orders.
var ErrQueueClosed = errors.New("order queue closed")

// Queue is a bounded FIFO of orders with many producers and one consumer.
type Queue struct {
	mu      sync.RWMutex
	closed  bool
	orders  chan model.Order
	metrics *metrics.Metrics
}

// NewQueue creates a queue holding at most capacity pending orders.
func NewQueue(capacity int, m *metrics.Metrics) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{orders: make(chan model.Order, capacity), metrics: m}
}

// Enqueue appends order. It blocks while the queue is full, until ctx is done.
func (q *Queue) Enqueue(ctx context.Context, order model.Order) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.orders <- order:
		q.metrics.SetQueueDepth(len(q.orders))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake. Orders already queued are still delivered to the consumer.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.orders)
	}
}

// Len returns the number of pending orders.
func (q *Queue) Len() int {
	return len(q.orders)
}
