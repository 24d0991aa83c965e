package router

import (
	"context"
	"sync"
)

// Ticket identifies one fetch started by a [Sequencer].
type Ticket uint64

// Sequencer orders overlapping fetches for one view. Only the response of the most recent fetch may be applied;
// starting a fetch cancels the one before it.
type Sequencer struct {
	mu     sync.Mutex
	latest Ticket
	cancel context.CancelFunc
}

// Begin starts a fetch and returns its context and ticket.
func (s *Sequencer) Begin(parent context.Context) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.latest++
	s.cancel = cancel
	return ctx, s.latest
}

// IsLatest reports whether t belongs to the most recent fetch.
func (s *Sequencer) IsLatest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.latest
}

// Finish releases the context of t when it is still the latest fetch.
func (s *Sequencer) Finish(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == s.latest && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Stop cancels the in-flight fetch and makes every outstanding ticket stale.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.latest++
}
