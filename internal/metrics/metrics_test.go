package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchdesk/internal/logger"
)

func TestSnapshotReadsCounters(t *testing.T) {
	m := New()
	m.BridgeWrites.WithLabelValues("ok").Add(2)
	m.BridgeWrites.WithLabelValues("error").Inc()
	m.BridgeSkipped.Add(5)
	m.BridgeSuperseded.Inc()

	snap := m.Snapshot()
	assert.Equal(t, 2.0, snap.WritesOK)
	assert.Equal(t, 1.0, snap.WritesError)
	assert.Equal(t, 5.0, snap.Skipped)
	assert.Equal(t, 1.0, snap.Superseded)
	assert.Zero(t, snap.StaleAcks)
}

func TestObserveInvocation(t *testing.T) {
	m := New()
	m.ObserveInvocation("get_app_state", time.Millisecond, nil)
	m.ObserveInvocation("get_app_state", time.Millisecond, errors.New("x"))

	assert.Equal(t, 1.0, counterValue(m.HostInvocations.WithLabelValues("get_app_state", "ok")))
	assert.Equal(t, 1.0, counterValue(m.HostInvocations.WithLabelValues("get_app_state", "error")))
}

func TestDebugServerRoutes(t *testing.T) {
	m := New()
	m.BridgeSkipped.Inc()

	ready := errors.New("not loaded")
	srv := NewDebugServer("127.0.0.1:0", m, func() error { return ready }, logger.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "sketchdesk_bridge_changes_skipped_total 1")

	resp, err = http.Get(ts.URL + "/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ready = nil
	resp, err = http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
