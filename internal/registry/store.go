package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	ErrNotFound  = errors.New("registry: handle not found")
	ErrWrongKind = errors.New("registry: wrong handle kind")
)

// Key is the handle the peer holds for a native object.
type Key uint64

// Sequence issues keys. Zero is never issued and keys are never reused.
type Sequence struct {
	last atomic.Uint64
}

func (s *Sequence) Next() Key {
	return Key(s.last.Add(1))
}

// Peek returns the key Next would issue.
func (s *Sequence) Peek() Key {
	return Key(s.last.Load() + 1)
}

// Store owns objects of one kind by key.
type Store[T any] struct {
	kind  string
	mu    sync.Mutex
	items map[Key]T
}

func NewStore[T any](kind string) *Store[T] {
	return &Store[T]{kind: kind, items: make(map[Key]T)}
}

// Kind names the object kind for errors and metrics.
func (s *Store[T]) Kind() string {
	return s.kind
}

// Insert stores v under key unless the key is already present.
func (s *Store[T]) Insert(key Key, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = v
	return true
}

func (s *Store[T]) Lookup(key Key) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %d", ErrNotFound, s.kind, key)
	}
	return v, nil
}

func (s *Store[T]) Contains(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok
}

// Remove detaches the object; releasing it is the caller's job.
func (s *Store[T]) Remove(key Key) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %d", ErrNotFound, s.kind, key)
	}
	delete(s.items, key)
	return v, nil
}

func (s *Store[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Keys returns live keys in ascending order.
func (s *Store[T]) Keys() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Drain removes every entry and returns the objects in key order.
func (s *Store[T]) Drain() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]Key, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.items[k])
		delete(s.items, k)
	}
	return out
}
