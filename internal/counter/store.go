// Package counter holds the shared count that producers raise and consumers
// lower. The count never goes below zero and never above its maximum;
// mutations at either bound are no-ops.
package counter

import (
	"math"
	"sync"
)

// Store owns the count. All methods are safe for concurrent use and are
// linearized by a single mutex.
type Store struct {
	mu    sync.Mutex
	count int
	max   int
	stats Stats
}

// Stats counts what happened to the store since it was created.
type Stats struct {
	Increments  uint64 // increments applied
	Decrements  uint64 // decrements applied
	FloorHits   uint64 // decrements ignored because the count was zero
	CeilingHits uint64 // increments ignored because the count was at max
}

// Option configures a Store.
type Option func(*Store)

// WithMaximum lowers the upper bound from math.MaxInt. Values below 1 are ignored.
func WithMaximum(n int) Option {
	return func(s *Store) {
		if n >= 1 {
			s.max = n
		}
	}
}

// WithInitial starts the store at n, clamped into [0, max].
func WithInitial(n int) Option {
	return func(s *Store) { s.count = n }
}

// New creates a Store starting at zero.
func New(opts ...Option) *Store {
	s := &Store{max: math.MaxInt}
	for _, opt := range opts {
		opt(s)
	}
	s.count = min(max(s.count, 0), s.max)
	return s
}

// Increment adds one unless the count is already at its maximum.
// Returns whether the count changed.
func (s *Store) Increment() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count >= s.max {
		s.stats.CeilingHits++
		return false
	}
	s.count++
	s.stats.Increments++
	return true
}

// Decrement subtracts one unless the count is zero.
// Returns whether the count changed.
func (s *Store) Decrement() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count <= 0 {
		s.stats.FloorHits++
		return false
	}
	s.count--
	s.stats.Decrements++
	return true
}

// Count returns the current value.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Max returns the upper bound.
func (s *Store) Max() int {
	return s.max
}

// Stats returns a copy of the mutation statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
