package queue

import (
	"context"
	"fmt"
	"sync"
)

// Handler processes a dequeued message.
type Handler func(ctx context.Context, msg Message) error

// MemoryClient is an in-process queue backed by a bounded channel. It is used
// in development mode so extraction still runs through the same enqueue path
// as SQS, just without AWS.
type MemoryClient struct {
	ch      chan Message
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// NewMemoryClient constructs a memory queue with the given buffer capacity.
func NewMemoryClient(capacity int) *MemoryClient {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryClient{ch: make(chan Message, capacity)}
}

// Send enqueues a message. It fails fast when the buffer is full rather than
// blocking the request path, and returns an error after Close instead of
// writing to the closed channel.
func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if m.closed {
		return fmt.Errorf("memory queue closed")
	}
	select {
	case m.ch <- msg:
		return nil
	default:
		return fmt.Errorf("memory queue full (capacity %d)", cap(m.ch))
	}
}

// Start launches workers consumer goroutines that invoke handler for each
// message. Workers exit when ctx is cancelled or the queue is closed.
func (m *MemoryClient) Start(ctx context.Context, workers int, handler Handler) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-m.ch:
					if !ok {
						return
					}
					_ = handler(ctx, msg)
				}
			}
		}()
	}
}

// Close stops accepting messages and waits for workers to drain.
func (m *MemoryClient) Close() {
	m.closeMu.Lock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
	m.closeMu.Unlock()
	m.wg.Wait()
}

var _ Client = (*MemoryClient)(nil)
