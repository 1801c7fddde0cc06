package queue

import (
	"sync"
	"time"
)

// Item is a queued value with its retry bookkeeping.
type Item[T any] struct {
	ID       string
	Value    T
	RetryAt  time.Time
	Attempts int
}

// Queue holds items until their RetryAt passes. Items due at the same time
// come out in insertion order.
type Queue[T any] struct {
	items []Item[T]
	mu    sync.Mutex
}

func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]Item[T], 0),
	}
}

func (q *Queue[T]) Enqueue(item Item[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// DrainDue removes and returns every item due at now.
func (q *Queue[T]) DrainDue(now time.Time) []Item[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []Item[T]
	kept := q.items[:0]
	for _, item := range q.items {
		if !item.RetryAt.After(now) {
			due = append(due, item)
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
	return due
}

func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
