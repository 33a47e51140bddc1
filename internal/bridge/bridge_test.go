package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchdesk/internal/host"
	"sketchdesk/internal/logger"
	"sketchdesk/internal/metrics"
	"sketchdesk/internal/models"
	"sketchdesk/internal/settings"
)

var errHostDown = errors.New("host unavailable")

// fakeHost answers get_app_state and set_app_state from memory.
type fakeHost struct {
	mu         sync.Mutex
	state      models.ViewState
	fetchErr   error
	fetches    int
	attempts   int
	writes     []models.ViewState
	failWrites int

	// when block is set every write reports on entered and waits for block
	block   chan struct{}
	entered chan models.ViewState
}

func newFakeHost(state models.ViewState) *fakeHost {
	return &fakeHost{state: state}
}

func (h *fakeHost) Invoke(ctx context.Context, name string, payload interface{}) (json.RawMessage, error) {
	switch name {
	case host.CmdGetAppState:
		h.mu.Lock()
		defer h.mu.Unlock()
		h.fetches++
		if h.fetchErr != nil {
			return nil, h.fetchErr
		}
		return json.Marshal(h.state)

	case host.CmdSetAppState:
		args := payload.(host.SetAppStateArgs)
		state := *args.NewState

		h.mu.Lock()
		block, entered := h.block, h.entered
		h.mu.Unlock()
		if block != nil {
			entered <- state
			select {
			case <-block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		h.attempts++
		if h.failWrites > 0 {
			h.failWrites--
			return nil, errHostDown
		}
		h.writes = append(h.writes, state)
		h.state = state
		return json.RawMessage(`"saved"`), nil
	}
	return nil, host.ErrUnknownCommand
}

func (h *fakeHost) gate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.block = make(chan struct{})
	h.entered = make(chan models.ViewState, 16)
}

func (h *fakeHost) release() {
	h.mu.Lock()
	block := h.block
	h.block = nil
	h.mu.Unlock()
	close(block)
}

func (h *fakeHost) written() []models.ViewState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.ViewState(nil), h.writes...)
}

func (h *fakeHost) attemptCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

type errorSink struct {
	mu   sync.Mutex
	errs []*WriteError
}

func (s *errorSink) handle(err *WriteError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) all() []*WriteError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*WriteError(nil), s.errs...)
}

func newBridge(t *testing.T, inv Invoker, opts Options) (*Bridge, *metrics.Metrics) {
	t.Helper()
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = time.Millisecond
	}
	opts.SessionID = "test-session"
	b := New(inv, models.NewViewStateRepository(), opts)
	t.Cleanup(b.Shutdown)
	return b, opts.Metrics
}

func change(b *Bridge, v models.ViewState) error {
	return b.OnCanvasChange(nil, models.CanvasStateFrom(v))
}

func flush(t *testing.T, b *Bridge) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.Flush(ctx))
}

func cached(b *Bridge) models.ViewState {
	state, _ := b.Repository().Snapshot()
	return state
}

var (
	stateA = models.DefaultViewState()
	stateB = models.ViewState{Theme: models.ThemeDark, SidebarDocked: true}
	stateC = models.ViewState{Theme: models.ThemeDark, SidebarDocked: false, ZenModeEnabled: true}
	stateD = models.ViewState{Theme: models.ThemeSystem, ViewModeEnabled: true}
)

func TestFetchCachesRecord(t *testing.T) {
	persisted := models.ViewState{Theme: models.ThemeDark}
	h := newFakeHost(persisted)
	b, _ := newBridge(t, h, Options{})

	got, err := b.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, persisted, got)
	assert.Equal(t, persisted, cached(b))

	status, _ := b.Repository().Status()
	assert.Equal(t, models.StatusReady, status)

	_, err = b.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, h.fetches)
	assert.Empty(t, h.written())
}

func TestFetchFailureIsRetryable(t *testing.T) {
	h := newFakeHost(stateB)
	h.fetchErr = errHostDown
	b, _ := newBridge(t, h, Options{})

	_, err := b.Fetch(context.Background())
	assert.ErrorIs(t, err, errHostDown)

	status, loadErr := b.Repository().Status()
	assert.Equal(t, models.StatusFailed, status)
	assert.ErrorIs(t, loadErr, errHostDown)

	h.mu.Lock()
	h.fetchErr = nil
	h.mu.Unlock()

	got, err := b.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stateB, got)
	assert.Equal(t, 2, h.fetches)
}

func TestUnchangedProjectionIssuesNoWrite(t *testing.T) {
	h := newFakeHost(stateA)
	b, m := newBridge(t, h, Options{})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	canvas := models.CanvasStateFrom(stateA)
	canvas.Zoom = 2.5
	canvas.StrokeColor = "#e03131"
	b.OnCanvasChange(nil, canvas)

	canvas.ScrollX = 40
	b.OnCanvasChange([]models.Element{{ID: "e1", Type: models.ElementFreedraw}}, canvas)
	flush(t, b)

	assert.Empty(t, h.written())
	assert.Equal(t, 2.0, m.Snapshot().Skipped)
}

func TestChangeIssuesSingleWrite(t *testing.T) {
	h := newFakeHost(stateA)
	b, m := newBridge(t, h, Options{})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	change(b, stateB)
	assert.Equal(t, stateB, cached(b), "cached record is replaced before the write completes")
	flush(t, b)

	for i := 0; i < 5; i++ {
		change(b, stateB)
	}
	flush(t, b)

	assert.Equal(t, []models.ViewState{stateB}, h.written())
	assert.Equal(t, 1.0, m.Snapshot().WritesOK)

	last, ok := b.LastWrite()
	require.True(t, ok)
	assert.NoError(t, last.Err)
	assert.Equal(t, stateB, last.State)
}

func TestChangeBeforeFetchIgnored(t *testing.T) {
	h := newFakeHost(stateA)
	b, _ := newBridge(t, h, Options{})

	assert.ErrorIs(t, change(b, stateB), ErrNotLoaded)
	flush(t, b)

	assert.Empty(t, h.written())
	_, loaded := b.Repository().Snapshot()
	assert.False(t, loaded)
}

func TestWriteFailureKeepsOptimisticValue(t *testing.T) {
	h := newFakeHost(stateA)
	h.failWrites = 1
	sink := &errorSink{}
	b, m := newBridge(t, h, Options{OnError: sink.handle})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	change(b, stateB)
	flush(t, b)

	assert.Equal(t, stateB, cached(b))
	assert.Equal(t, 1, h.attemptCount(), "no retry with the default policy")
	assert.Equal(t, 1.0, m.Snapshot().WritesError)

	errs := sink.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errHostDown)
	assert.Equal(t, stateB, errs[0].State)
	assert.Equal(t, uint64(1), errs[0].Seq)
}

func TestRollbackRestoresConfirmedValue(t *testing.T) {
	h := newFakeHost(stateA)
	b, _ := newBridge(t, h, Options{Policy: PolicyRollback})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	change(b, stateB)
	flush(t, b)
	require.Equal(t, stateB, cached(b))

	h.mu.Lock()
	h.failWrites = 1
	h.mu.Unlock()

	change(b, stateC)
	flush(t, b)

	assert.Equal(t, stateB, cached(b))
}

func TestRollbackSkippedWhenNewerChangeQueued(t *testing.T) {
	h := newFakeHost(stateA)
	h.failWrites = 1
	b, _ := newBridge(t, h, Options{Policy: PolicyRollback})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	h.gate()
	change(b, stateB)
	<-h.entered

	change(b, stateC)
	h.release()
	flush(t, b)

	assert.Equal(t, stateC, cached(b))
	assert.Equal(t, []models.ViewState{stateC}, h.written())
}

func TestNewerValueSupersedesQueuedWrite(t *testing.T) {
	h := newFakeHost(stateA)
	b, m := newBridge(t, h, Options{})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	h.gate()
	change(b, stateB)
	<-h.entered

	change(b, stateC)
	change(b, stateD)
	h.release()
	flush(t, b)

	assert.Equal(t, []models.ViewState{stateB, stateD}, h.written())
	assert.Equal(t, stateD, h.state)
	assert.Equal(t, 1.0, m.Snapshot().Superseded)
}

func TestRetriesBoundedByMaxRetries(t *testing.T) {
	h := newFakeHost(stateA)
	h.failWrites = 10
	sink := &errorSink{}
	b, m := newBridge(t, h, Options{MaxRetries: 2, OnError: sink.handle})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	change(b, stateB)
	flush(t, b)

	assert.Equal(t, 3, h.attemptCount())
	assert.Equal(t, 2.0, m.Snapshot().Retries)
	assert.Len(t, sink.all(), 1)
}

func TestRetryRecovers(t *testing.T) {
	h := newFakeHost(stateA)
	h.failWrites = 1
	sink := &errorSink{}
	b, _ := newBridge(t, h, Options{MaxRetries: 3, OnError: sink.handle})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	change(b, stateB)
	flush(t, b)

	assert.Equal(t, 2, h.attemptCount())
	assert.Equal(t, []models.ViewState{stateB}, h.written())
	assert.Empty(t, sink.all())
}

func TestAckFromPreviousSessionDiscarded(t *testing.T) {
	h := newFakeHost(stateA)
	b, m := newBridge(t, h, Options{})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	h.gate()
	change(b, stateB)
	<-h.entered

	b.Reset()
	got, err := b.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stateA, got)

	h.release()
	flush(t, b)

	assert.Equal(t, 1.0, m.Snapshot().StaleAcks)
	_, ok := b.LastWrite()
	assert.False(t, ok)
}

func TestCloseStopsAcceptingChanges(t *testing.T) {
	h := newFakeHost(stateA)
	b, _ := newBridge(t, h, Options{})
	_, err := b.Fetch(context.Background())
	require.NoError(t, err)

	change(b, stateB)
	require.NoError(t, b.Close(context.Background()))
	assert.ErrorIs(t, change(b, stateC), ErrClosed)
	flush(t, b)

	assert.Equal(t, []models.ViewState{stateB}, h.written())

	b.Reset()
	_, err = b.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestValidationFailureNotRetried(t *testing.T) {
	hst, err := host.New(settings.NewMemoryStore(), host.Options{})
	require.NoError(t, err)
	t.Cleanup(hst.Shutdown)

	m := metrics.New()
	sink := &errorSink{}
	b, _ := newBridge(t, hst, Options{MaxRetries: 3, Metrics: m, OnError: sink.handle})
	_, err = b.Fetch(context.Background())
	require.NoError(t, err)

	canvas := models.CanvasStateFrom(stateA)
	canvas.Theme = "neon"
	b.OnCanvasChange(nil, canvas)
	flush(t, b)

	assert.Equal(t, 0.0, m.Snapshot().Retries)
	errs := sink.all()
	require.Len(t, errs, 1)
	var verr *models.ValidationError
	assert.True(t, errors.As(errs[0], &verr))
}

func TestPersistedRecordSurvivesNewSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	log := logger.NewNop()

	openHost := func() *host.Host {
		store, err := settings.OpenFileStore(path, time.Hour, log)
		require.NoError(t, err)
		h, err := host.New(store, host.Options{Logger: log})
		require.NoError(t, err)
		return h
	}

	first := openHost()
	b := New(first, models.NewViewStateRepository(), Options{Logger: log})
	got, err := b.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultViewState(), got)

	want := models.ViewState{Theme: models.ThemeDark, SidebarDocked: false, ViewModeEnabled: true}
	change(b, want)
	b.Shutdown()
	first.Shutdown()

	second := openHost()
	defer second.Shutdown()
	b2 := New(second, models.NewViewStateRepository(), Options{Logger: log})
	defer b2.Shutdown()

	got, err = b2.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyKeep, p)

	p, err = ParsePolicy(" Rollback ")
	require.NoError(t, err)
	assert.Equal(t, PolicyRollback, p)

	_, err = ParsePolicy("retry")
	assert.Error(t, err)
}
