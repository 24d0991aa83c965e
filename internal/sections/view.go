package sections

import (
	"context"
	"sync"

	"github.com/desertthunder/vorplay/internal/router"
	"github.com/desertthunder/vorplay/internal/shared"
)

// Status is the state of a [View].
type Status int

const (
	StatusLoading Status = iota
	StatusFailed
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusReady:
		return "ready"
	default:
		return "loading"
	}
}

// View holds the state of the mounted section.
type View struct {
	seq router.Sequencer

	mu      sync.RWMutex
	state   router.State
	status  Status
	content *Content
	err     error
}

// Start enters the loading state for a fetch of state and returns the fetch's context and ticket.
// Any earlier fetch is canceled.
func (v *View) Start(parent context.Context, state router.State) (context.Context, router.Ticket) {
	v.mu.Lock()
	ctx, ticket := v.seq.Begin(parent)
	v.state = state
	v.status = StatusLoading
	v.content = nil
	v.err = nil
	v.mu.Unlock()
	return ctx, ticket
}

// Resolve applies the outcome of the fetch identified by ticket. It returns false, changing nothing, when a
// newer fetch has started since.
func (v *View) Resolve(ticket router.Ticket, content *Content, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.seq.IsLatest(ticket) {
		return false
	}
	defer v.seq.Finish(ticket)

	if err != nil {
		v.status = StatusFailed
		v.content = nil
		v.err = err
		return true
	}
	v.status = StatusReady
	v.content = content
	v.err = nil
	return true
}

// Load runs a full fetch of state through loader. It reports whether the result was applied.
func (v *View) Load(ctx context.Context, loader *Loader, state router.State) bool {
	fetchCtx, ticket := v.Start(ctx, state)
	content, err := loader.Load(fetchCtx, state)
	return v.Resolve(ticket, content, err)
}

// Stop cancels the in-flight fetch, if any, and ignores its response.
func (v *View) Stop() {
	v.seq.Stop()
}

// State returns the navigation state of the latest fetch.
func (v *View) State() router.State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Status returns the current status.
func (v *View) Status() Status {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// Content returns the loaded content, or nil unless the view is ready.
func (v *View) Content() *Content {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.content
}

// Err returns the failure, or nil unless the view failed.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Message is the error text shown to the user.
func (v *View) Message() string {
	return shared.UserMessage(v.Err())
}
