// Package repository provides in-memory storage for the dashboard's mock
// business data.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when no record has the requested id
var ErrNotFound = errors.New("record not found")

// Record is implemented by every stored entity
type Record[T any] interface {
	RecordID() string
	Clone() T
}

// Repository is the storage surface the services depend on
type Repository[T Record[T]] interface {
	List(ctx context.Context, keep func(T) bool) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Put(ctx context.Context, record T) error
	Update(ctx context.Context, id string, fn func(*T) error) (T, error)
}

// MemoryRepository keeps records in insertion order and hands out copies
type MemoryRepository[T Record[T]] struct {
	mu      sync.RWMutex
	records []T
	index   map[string]int
}

// NewMemoryRepository creates a repository holding copies of records
func NewMemoryRepository[T Record[T]](records []T) *MemoryRepository[T] {
	r := &MemoryRepository[T]{index: make(map[string]int, len(records))}
	for _, rec := range records {
		r.put(rec.Clone())
	}
	return r
}

// List returns every record accepted by keep, or all records when keep is nil
func (r *MemoryRepository[T]) List(ctx context.Context, keep func(T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.records))
	for _, rec := range r.records {
		if keep == nil || keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.index[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.records[idx].Clone(), nil
}

// Put inserts record, or replaces the record with the same id in place
func (r *MemoryRepository[T]) Put(ctx context.Context, record T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(record.Clone())
	return nil
}

// Update applies fn to a copy of the record and stores the result only when
// fn succeeds
func (r *MemoryRepository[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.index[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	working := r.records[idx].Clone()
	if err := fn(&working); err != nil {
		return zero, err
	}
	r.records[idx] = working
	return working.Clone(), nil
}

// Len returns the number of stored records
func (r *MemoryRepository[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *MemoryRepository[T]) put(record T) {
	id := record.RecordID()
	if idx, ok := r.index[id]; ok {
		r.records[idx] = record
		return
	}
	r.index[id] = len(r.records)
	r.records = append(r.records, record)
}
