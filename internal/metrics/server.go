package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sketchdesk/internal/logger"
)

// DebugServer serves /metrics, /live, /ready and /debug/pprof on a local
// address.
type DebugServer struct {
	server *http.Server
	logger logger.Logger
	health healthcheck.Handler
}

// NewDebugServer builds the router. ready is polled by /ready.
func NewDebugServer(addr string, m *Metrics, ready healthcheck.Check, log logger.Logger) *DebugServer {
	health := healthcheck.NewMetricsHandler(m.Registry, namespace)
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	if ready != nil {
		health.AddReadinessCheck("app-state-loaded", ready)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	r.Get("/live", health.LiveEndpoint)
	r.Get("/ready", health.ReadyEndpoint)
	r.Route("/debug/pprof", func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		r.Handle("/{profile}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			pprof.Handler(chi.URLParam(req, "profile")).ServeHTTP(w, req)
		}))
	})

	return &DebugServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
		health: health,
	}
}

// Handler exposes the router, mainly for tests.
func (s *DebugServer) Handler() http.Handler {
	return s.server.Handler
}

// Start listens in the background. The listen error is returned directly so
// a bad address fails fast.
func (s *DebugServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}

	s.logger.Info("DebugServer", "debug server listening", map[string]interface{}{
		"addr": ln.Addr().String(),
	})

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("DebugServer", "debug server stopped", err, nil)
		}
	}()
	return nil
}

func (s *DebugServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warning("DebugServer", "debug server shutdown incomplete", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
