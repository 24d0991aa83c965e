package router

import "sync"

// Router holds the current navigation state and the back/forward history.
type Router struct {
	mu      sync.Mutex
	entries []State
	index   int
}

// New creates a router positioned at initial.
func New(initial State) *Router {
	return &Router{entries: []State{Normalize(initial)}}
}

// Current returns the active state.
func (r *Router) Current() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[r.index]
}

// Section returns the active section.
func (r *Router) Section() SectionKind {
	return ResolveSection(r.Current())
}

// Navigate makes state the active entry, dropping any forward history.
//
// Parameters unrelated to the destination section are discarded. Navigating to the active state adds no entry.
func (r *Router) Navigate(state State) State {
	next := Normalize(state)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[r.index] == next {
		return next
	}
	r.entries = append(r.entries[:r.index+1], next)
	r.index++
	return next
}

// Search navigates to the results section for query.
func (r *Router) Search(query string) State {
	return r.Navigate(ResultsState(query))
}

// Back moves to the previous entry. ok is false at the start of history.
func (r *Router) Back() (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index == 0 {
		return r.entries[0], false
	}
	r.index--
	return r.entries[r.index], true
}

// Forward moves to the next entry. ok is false at the end of history.
func (r *Router) Forward() (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index == len(r.entries)-1 {
		return r.entries[r.index], false
	}
	r.index++
	return r.entries[r.index], true
}
