package models

import "sync"

// LoadStatus tracks the initial fetch of the persisted record
type LoadStatus int

const (
	StatusIdle LoadStatus = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ViewStateListener observes replacements of the cached record
type ViewStateListener func(ViewState)

// ViewStateRepository owns the cached persisted record for one UI session.
// Readers see optimistic replacements immediately.
type ViewStateRepository struct {
	mu        sync.RWMutex
	state     ViewState
	status    LoadStatus
	loadErr   error
	listeners []ViewStateListener
}

// NewViewStateRepository creates an empty repository in the idle status
func NewViewStateRepository() *ViewStateRepository {
	return &ViewStateRepository{
		state:  DefaultViewState(),
		status: StatusIdle,
	}
}

// Snapshot returns the current record and whether it has been loaded
func (r *ViewStateRepository) Snapshot() (ViewState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state, r.status == StatusReady
}

// Status returns the load status and the last load error, if any
func (r *ViewStateRepository) Status() (LoadStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status, r.loadErr
}

// MarkLoading records that a fetch is in progress
func (r *ViewStateRepository) MarkLoading() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusLoading
	r.loadErr = nil
}

// Load stores the fetched record and marks the repository ready
func (r *ViewStateRepository) Load(state ViewState) {
	r.mu.Lock()
	r.state = state
	r.status = StatusReady
	r.loadErr = nil
	listeners := r.copyListeners()
	r.mu.Unlock()

	notify(listeners, state)
}

// Fail records a failed fetch
func (r *ViewStateRepository) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusFailed
	r.loadErr = err
}

// Replace swaps the cached record and returns the previous one
func (r *ViewStateRepository) Replace(state ViewState) ViewState {
	r.mu.Lock()
	previous := r.state
	r.state = state
	listeners := r.copyListeners()
	r.mu.Unlock()

	if previous != state {
		notify(listeners, state)
	}
	return previous
}

// CompareAndReplace swaps the record only if it still equals expected
func (r *ViewStateRepository) CompareAndReplace(expected, state ViewState) bool {
	r.mu.Lock()
	if r.state != expected {
		r.mu.Unlock()
		return false
	}
	r.state = state
	listeners := r.copyListeners()
	r.mu.Unlock()

	if expected != state {
		notify(listeners, state)
	}
	return true
}

// Reset returns the repository to idle for a new session
func (r *ViewStateRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = DefaultViewState()
	r.status = StatusIdle
	r.loadErr = nil
}

// Subscribe registers a listener called after every change of the record
func (r *ViewStateRepository) Subscribe(fn ViewStateListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *ViewStateRepository) copyListeners() []ViewStateListener {
	listeners := make([]ViewStateListener, len(r.listeners))
	copy(listeners, r.listeners)
	return listeners
}

func notify(listeners []ViewStateListener, state ViewState) {
	for _, fn := range listeners {
		fn(state)
	}
}
