package coordinator

import (
	"context"
	"sync"

	"github.com/meridian-trading/meridian/pkg/errors"
)

// queue is an unbounded multi-producer, single-consumer message queue.
// Publishers never block; the consumer drains in FIFO order.
type queue struct {
	mu     sync.Mutex
	items  []Message
	signal chan struct{}
	closed bool
}

func newQueue() *queue {
	return &queue{
		signal: make(chan struct{}, 1),
	}
}

// Publish enqueues a message. Returns ErrCodeChannelClosed after Close.
func (q *queue) Publish(msg Message) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.New(errors.ErrCodeChannelClosed, "coordinator queue closed")
	}

	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return nil
}

// Close stops the queue from accepting new messages. Already queued messages
// are still delivered.
func (q *queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// pop removes the head of the queue. ok is false when empty.
func (q *queue) pop() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}

	msg := q.items[0]
	q.items = q.items[1:]

	return msg, true
}

// Run delivers queued messages to handler one at a time until the context is
// done or the queue is closed and drained.
func (q *queue) Run(ctx context.Context, handler func(Message)) {
	for {
		if msg, ok := q.pop(); ok {
			handler(msg)
			continue
		}

		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-q.signal:
		}
	}
}
