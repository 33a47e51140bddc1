// Package bridge keeps the UI's view preferences in sync with the host.
//
// The record is fetched once per session into a ViewStateRepository. Every
// board change is projected onto the persisted fields; a projection that
// differs from the cached record replaces it immediately and is queued for
// the host. At most one write is in flight and only the newest queued value
// is ever sent, so the stored record converges to the last one issued.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"sketchdesk/internal/host"
	"sketchdesk/internal/logger"
	"sketchdesk/internal/metrics"
	"sketchdesk/internal/models"
)

// Invoker calls a named host command. *host.Host satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload interface{}) (json.RawMessage, error)
}

// Policy decides what happens to the cached record when a write fails.
type Policy string

const (
	// PolicyKeep leaves the optimistic value in place.
	PolicyKeep Policy = "keep"
	// PolicyRollback restores the last confirmed value unless a newer
	// change has been made since.
	PolicyRollback Policy = "rollback"
)

// ParsePolicy accepts "keep" or "rollback"; empty means keep.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyKeep:
		return PolicyKeep, nil
	case PolicyRollback:
		return PolicyRollback, nil
	default:
		return "", models.NewValidationError("on_failure", s, "expected keep or rollback")
	}
}

// Options configure a Bridge. The zero value keeps optimistic values and
// never retries.
type Options struct {
	Policy        Policy
	MaxRetries    int
	RetryInterval time.Duration
	SessionID     string
	Logger        logger.Logger
	Metrics       *metrics.Metrics
	// OnError is called from the writer goroutine for every final failure.
	OnError func(*WriteError)
	// OnWrite is called from the writer goroutine after every completed
	// write of the current session, successful or not.
	OnWrite func(WriteResult)
}

// WriteResult is the outcome of the most recent completed write.
type WriteResult struct {
	Seq   uint64
	State models.ViewState
	Err   error
	At    time.Time
}

// Bridge synchronizes one UI session's ViewStateRepository with the host.
type Bridge struct {
	invoker Invoker
	repo    *models.ViewStateRepository
	opts    Options
	logger  logger.Logger
	metrics *metrics.Metrics

	fetchMu  sync.Mutex
	changeMu sync.Mutex

	// guarded by mu
	mu        sync.Mutex
	gen       uint64
	seq       uint64
	ackedSeq  uint64
	confirmed models.ViewState
	pending   *write
	running   bool
	idle      chan struct{}
	closed    bool
	last      *WriteResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a bridge over repo. Nothing is fetched until Fetch is called.
func New(invoker Invoker, repo *models.ViewStateRepository, opts Options) *Bridge {
	if opts.Policy == "" {
		opts.Policy = PolicyKeep
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	idle := make(chan struct{})
	close(idle)

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		invoker:   invoker,
		repo:      repo,
		opts:      opts,
		logger:    opts.Logger.With(map[string]interface{}{"session": opts.SessionID}),
		metrics:   opts.Metrics,
		confirmed: models.DefaultViewState(),
		idle:      idle,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Repository returns the cached record the bridge writes into.
func (b *Bridge) Repository() *models.ViewStateRepository {
	return b.repo
}

// SessionID identifies this run in logs.
func (b *Bridge) SessionID() string {
	return b.opts.SessionID
}

// Fetch loads the persisted record from the host. Only the first successful
// call per session reaches the host; later calls return the cached record.
// A failed fetch leaves the repository failed and may be retried.
func (b *Bridge) Fetch(ctx context.Context) (models.ViewState, error) {
	b.fetchMu.Lock()
	defer b.fetchMu.Unlock()

	b.mu.Lock()
	closed := b.closed
	gen := b.gen
	b.mu.Unlock()
	if closed {
		return models.ViewState{}, ErrClosed
	}

	if state, loaded := b.repo.Snapshot(); loaded {
		return state, nil
	}

	b.repo.MarkLoading()
	b.logger.Debug("Bridge", "fetching app state", nil)

	raw, err := b.invoker.Invoke(ctx, host.CmdGetAppState, nil)
	if err == nil {
		var state models.ViewState
		if err = json.Unmarshal(raw, &state); err == nil {
			err = state.Validate()
		}
		if err == nil {
			b.mu.Lock()
			if b.gen == gen {
				b.confirmed = state
			}
			b.mu.Unlock()

			b.repo.Load(state)
			b.logger.Info("Bridge", "app state loaded", state.Fields())
			return state, nil
		}
	}

	err = fmt.Errorf("fetch app state: %w", err)
	b.repo.Fail(err)
	b.logger.Error("Bridge", "failed to load app state", err, nil)
	return models.ViewState{}, err
}

// OnCanvasChange is the board's change callback. It never blocks on the
// host. Changes that arrive before the record is loaded are ignored and
// reported as ErrNotLoaded; changes after Close report ErrClosed.
//
// Repository listeners run while the change lock is held and must not call
// OnCanvasChange synchronously.
func (b *Bridge) OnCanvasChange(elements []models.Element, state models.CanvasState) error {
	next := models.Project(state)

	b.changeMu.Lock()
	defer b.changeMu.Unlock()

	current, loaded := b.repo.Snapshot()
	if !loaded {
		b.logger.Debug("Bridge", "change ignored before app state loaded", nil)
		return ErrNotLoaded
	}
	if current.Equal(next) {
		b.metrics.BridgeSkipped.Inc()
		return nil
	}

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		b.logger.Warning("Bridge", "change ignored after close", next.Fields())
		return ErrClosed
	}

	b.repo.Replace(next)
	b.enqueue(next)
	return nil
}

// LastWrite returns the outcome of the most recent completed write.
func (b *Bridge) LastWrite() (WriteResult, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return WriteResult{}, false
	}
	return *b.last, true
}

// Reset starts a new session: the queued write is dropped, acknowledgements
// of writes already in flight are ignored, and the next Fetch goes to the
// host again.
func (b *Bridge) Reset() {
	b.fetchMu.Lock()
	defer b.fetchMu.Unlock()
	b.changeMu.Lock()
	defer b.changeMu.Unlock()

	b.mu.Lock()
	b.gen++
	if b.pending != nil {
		b.logger.Debug("Bridge", "queued write dropped by reset", map[string]interface{}{
			"seq": b.pending.seq,
		})
		b.pending = nil
	}
	b.confirmed = models.DefaultViewState()
	b.mu.Unlock()

	b.repo.Reset()
	b.logger.Info("Bridge", "session reset", nil)
}

// Flush waits until no write is queued or in flight.
func (b *Bridge) Flush(ctx context.Context) error {
	b.mu.Lock()
	idle := b.idle
	b.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting changes and waits for outstanding writes.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return b.Flush(ctx)
}

// Shutdown closes the bridge, abandoning writes still running after a
// short grace period.
func (b *Bridge) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Close(ctx); err != nil {
		b.logger.Warning("Bridge", "pending writes abandoned at shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}
	b.cancel()
	b.wg.Wait()
	b.logger.Info("Bridge", "state bridge shut down", nil)
}
