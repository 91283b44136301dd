// Package queue buffers history writes so watch-triggered runs do not wait
// on the database.
package queue

import (
	"context"
	"io"
	"sync"
	"time"

	"scopecheck/internal/data/history"
)

// WriteRequest is one analysis run waiting to be stored.
type WriteRequest struct {
	Run      history.Run
	Findings []history.FindingRecord
}

type EnqueueResult string

const (
	EnqueueAccepted EnqueueResult = "accepted"
	EnqueueDropped  EnqueueResult = "dropped"
)

// MemoryQueue is a bounded FIFO. Enqueue never blocks: a full or closed
// queue drops the request.
type MemoryQueue struct {
	ch     chan WriteRequest
	mu     sync.RWMutex
	closed bool
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryQueue{ch: make(chan WriteRequest, capacity)}
}

func (q *MemoryQueue) Enqueue(req WriteRequest) EnqueueResult {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return EnqueueDropped
	}
	select {
	case q.ch <- req:
		return EnqueueAccepted
	default:
		return EnqueueDropped
	}
}

// DequeueBatch waits up to wait for a first request, then takes whatever
// else is already queued, up to maxItems. It returns io.EOF, possibly with
// a final batch, once the queue is closed and drained.
func (q *MemoryQueue) DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]WriteRequest, error) {
	if maxItems <= 0 {
		maxItems = 1
	}
	batch := make([]WriteRequest, 0, maxItems)

	var timer <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		timer = t.C
	}

	select {
	case req, ok := <-q.ch:
		if !ok {
			return nil, io.EOF
		}
		batch = append(batch, req)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer:
		return nil, nil
	default:
		if wait <= 0 {
			return nil, nil
		}
		select {
		case req, ok := <-q.ch:
			if !ok {
				return nil, io.EOF
			}
			batch = append(batch, req)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer:
			return nil, nil
		}
	}

	for len(batch) < maxItems {
		select {
		case req, ok := <-q.ch:
			if !ok {
				return batch, io.EOF
			}
			batch = append(batch, req)
		default:
			return batch, nil
		}
	}
	return batch, nil
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)
	return nil
}

func (q *MemoryQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.ch)
}
