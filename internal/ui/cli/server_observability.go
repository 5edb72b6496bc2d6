package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moduledeps/internal/core/ports"
)

// healthStatus is the /health payload. Status is "up" while the latest
// analysis succeeded.
type healthStatus struct {
	Status   string    `json:"status"`
	LastRun  time.Time `json:"last_run"`
	Findings int       `json:"findings"`
	Error    string    `json:"error,omitempty"`
}

type healthTracker struct {
	mu     sync.Mutex
	status healthStatus
}

func newHealthTracker() *healthTracker {
	return &healthTracker{status: healthStatus{Status: "starting"}}
}

func (h *healthTracker) record(res ports.AnalyzeResult, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status.LastRun = time.Now()
	if err != nil {
		h.status.Status = "down"
		h.status.Error = err.Error()
		return
	}
	h.status = healthStatus{Status: "up", LastRun: h.status.LastRun, Findings: res.Total}
}

func (h *healthTracker) Check() healthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

type ObservabilityServer struct {
	addr   string
	health *healthTracker
	server *http.Server
}

func NewObservabilityServer(addr string, health *healthTracker) *ObservabilityServer {
	return &ObservabilityServer{
		addr:   addr,
		health: health,
	}
}

func (s *ObservabilityServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.health.Check()
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	return mux
}

// Start binds the address and serves in the background.
func (s *ObservabilityServer) Start(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("observability server starting", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
