// Package limiter bounds how many documents are processed at once per
// extraction backend. Rendering and OCR are memory hungry, so requests past
// the limit wait for a slot or give up when their context ends.
package limiter

import (
	"context"
	"strings"
	"sync"
)

type Slots struct {
	max int
	mu  sync.Mutex
	sem map[string]chan struct{}
}

// New returns a limiter allowing maxInflight holders per key.
func New(maxInflight int) *Slots {
	if maxInflight <= 0 {
		maxInflight = 2
	}
	return &Slots{max: maxInflight, sem: map[string]chan struct{}{}}
}

func (s *Slots) slot(key string) chan struct{} {
	key = strings.ToLower(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.sem[key]
	if !ok {
		ch = make(chan struct{}, s.max)
		s.sem[key] = ch
	}
	return ch
}

// Allow tries to reserve a slot for key without waiting.
// Returns a release function and true if allowed; otherwise nil,false.
func (s *Slots) Allow(key string) (func(), bool) {
	ch := s.slot(key)
	select {
	case ch <- struct{}{}:
		return releaser(ch), true
	default:
		return nil, false
	}
}

// Acquire waits for a slot for key until ctx is done.
func (s *Slots) Acquire(ctx context.Context, key string) (func(), error) {
	ch := s.slot(key)
	select {
	case ch <- struct{}{}:
		return releaser(ch), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InUse reports the number of held slots for key.
func (s *Slots) InUse(key string) int { return len(s.slot(key)) }

func releaser(ch chan struct{}) func() {
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }
}
