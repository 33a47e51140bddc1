// Package host implements the privileged side of the application: named
// commands, invoked with a JSON payload, that own persistence and native
// window actions. The UI never touches the settings store directly.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"sketchdesk/internal/logger"
	"sketchdesk/internal/metrics"
	"sketchdesk/internal/settings"
)

var (
	// ErrUnknownCommand is returned for names with no registered handler.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoWindow is returned by window commands when running headless.
	ErrNoWindow = errors.New("no window attached")
)

// Handler executes one command. The returned value is marshaled to JSON.
type Handler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Window is the native surface the host drives for dialogs and dev actions.
type Window interface {
	// ShowMessage blocks until the user dismisses the dialog.
	ShowMessage(ctx context.Context, title, message string) (bool, error)
	OpenDevtools() error
	Reload() error
	Restart() error
}

// Options configure a Host.
type Options struct {
	DevMode  bool
	PoolSize int
	Logger   logger.Logger
	Metrics  *metrics.Metrics
}

// Host dispatches commands by name.
type Host struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	window   Window

	store   settings.Store
	pool    *ants.Pool
	logger  logger.Logger
	metrics *metrics.Metrics
	devMode bool
}

// New creates a host over store and registers the built-in commands. Dev
// commands are only registered when opts.DevMode is set.
func New(store settings.Store, opts Options) (*Host, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 4
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	pool, err := ants.NewPool(opts.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("create host worker pool: %w", err)
	}

	h := &Host{
		handlers: make(map[string]Handler),
		store:    store,
		pool:     pool,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		devMode:  opts.DevMode,
	}
	h.registerBuiltins()
	return h, nil
}

// AttachWindow connects the native window used by dialog and dev commands.
func (h *Host) AttachWindow(w Window) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = w
}

func (h *Host) currentWindow() (Window, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.window == nil {
		return nil, ErrNoWindow
	}
	return h.window, nil
}

// Register adds or replaces the handler for name.
func (h *Host) Register(name string, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = handler
}

// Commands lists registered command names, sorted.
func (h *Host) Commands() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.handlers))
	for name := range h.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DevMode reports whether dev commands are available.
func (h *Host) DevMode() bool {
	return h.devMode
}

// Invoke runs a command in the calling goroutine. payload may be nil, a
// json.RawMessage, or any value that marshals to JSON.
func (h *Host) Invoke(ctx context.Context, name string, payload interface{}) (json.RawMessage, error) {
	h.mu.RLock()
	handler, ok := h.handlers[name]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	raw, err := encodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode payload: %w", name, err)
	}

	start := time.Now()
	result, err := handler(ctx, raw)
	took := time.Since(start)
	h.metrics.ObserveInvocation(name, took, err)

	if err != nil {
		h.logger.Debug("Host", "command failed", map[string]interface{}{
			"command": name,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out, err := encodeResult(result)
	if err != nil {
		return nil, fmt.Errorf("%s: encode result: %w", name, err)
	}

	h.logger.Debug("Host", "command completed", map[string]interface{}{
		"command":     name,
		"duration_ms": took.Milliseconds(),
	})
	return out, nil
}

// InvokeAsync runs a command on the worker pool and reports the outcome to
// callback from the worker goroutine. callback may be nil.
func (h *Host) InvokeAsync(ctx context.Context, name string, payload interface{}, callback func(json.RawMessage, error)) error {
	return h.pool.Submit(func() {
		result, err := h.Invoke(ctx, name, payload)
		if callback != nil {
			callback(result, err)
		}
	})
}

// Shutdown waits briefly for running commands, then closes the store.
func (h *Host) Shutdown() {
	if err := h.pool.ReleaseTimeout(5 * time.Second); err != nil {
		h.logger.Warning("Host", "worker pool release timed out", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := h.store.Close(); err != nil {
		h.logger.Error("Host", "closing settings store failed", err, nil)
	}
	h.logger.Info("Host", "host shut down", nil)
}

func encodePayload(payload interface{}) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	default:
		return json.Marshal(p)
	}
}

func encodeResult(result interface{}) (json.RawMessage, error) {
	if raw, ok := result.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(result)
}
