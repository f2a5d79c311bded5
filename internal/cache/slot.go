package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher loads a full collection from the backend
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Slot caches one resource collection. It is never patched in place: a
// successful fetch replaces it whole and Invalidate clears it whole.
type Slot[T any] struct {
	resource Resource
	fetch    Fetcher[T]
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger

	group singleflight.Group

	mu        sync.Mutex
	items     []T
	fetchedAt time.Time
	valid     bool

	// generation is bumped by Invalidate. A fetch that started under an older
	// generation may still answer its own callers but never populates the slot.
	generation uint64
	fetches    uint64
}

// NewSlot creates a slot for resource. ttl <= 0 means entries never go stale on their own.
func NewSlot[T any](resource Resource, fetch Fetcher[T], opts ...Option) *Slot[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Slot[T]{
		resource: resource,
		fetch:    fetch,
		ttl:      o.ttl,
		now:      o.now,
		logger:   o.logger,
	}
}

// Resource returns the resource type this slot caches
func (s *Slot[T]) Resource() Resource {
	return s.resource
}

type result[T any] struct {
	items []T
}

// Get returns the cached collection when present and fresh, otherwise fetches
// it. Concurrent callers share one in-flight fetch. If ctx ends first the
// caller stops waiting, but the fetch continues for the others.
func (s *Slot[T]) Get(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	if s.valid && !s.expiredLocked() {
		items := clone(s.items)
		s.mu.Unlock()
		return items, nil
	}
	generation := s.generation
	s.mu.Unlock()

	key := strconv.FormatUint(generation, 10)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), generation)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clone(res.Val.(result[T]).items), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Slot[T]) load(ctx context.Context, generation uint64) (any, error) {
	s.mu.Lock()
	s.fetches++
	s.mu.Unlock()

	s.logger.Debug("cache fetch", "resource", s.resource, "generation", generation)
	items, err := s.fetch(ctx)
	if err != nil {
		// the previous entry, if any, stays as it was
		s.logger.Debug("cache fetch failed", "resource", s.resource, "error", err)
		return nil, err
	}

	s.mu.Lock()
	if s.generation == generation {
		s.items = clone(items)
		s.fetchedAt = s.now()
		s.valid = true
	} else {
		s.logger.Debug("discarding superseded fetch", "resource", s.resource, "generation", generation)
	}
	s.mu.Unlock()

	return result[T]{items: items}, nil
}

// Invalidate clears the entry. Any Get that starts afterwards fetches again,
// and a fetch still in flight from before cannot repopulate the slot.
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	s.items = nil
	s.valid = false
	s.fetchedAt = time.Time{}
	s.generation++
	s.mu.Unlock()

	s.logger.Debug("cache invalidated", "resource", s.resource)
}

// Peek returns the cached collection without fetching. ok is false when the
// slot is empty or stale.
func (s *Slot[T]) Peek() (items []T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid || s.expiredLocked() {
		return nil, false
	}
	return clone(s.items), true
}

// Fetches reports how many backend fetches the slot has issued
func (s *Slot[T]) Fetches() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *Slot[T]) expiredLocked() bool {
	return s.ttl > 0 && s.now().Sub(s.fetchedAt) >= s.ttl
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
