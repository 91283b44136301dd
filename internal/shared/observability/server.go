package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"scopecheck/internal/shared/util"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	clientRate  = 10
	clientBurst = 20
	clientTTL   = 5 * time.Minute
)

type HealthStatus struct {
	Status    string    `json:"status"`
	LastRun   time.Time `json:"last_run,omitempty"`
	Findings  int       `json:"findings"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthFunc reports the current health of the running analysis.
type HealthFunc func(ctx context.Context) HealthStatus

type Server struct {
	addr    string
	health  HealthFunc
	server  *http.Server
	bound   string
	clients *util.LimiterRegistry
}

func NewServer(addr string, health HealthFunc) *Server {
	return &Server{
		addr:    addr,
		health:  health,
		clients: util.NewLimiterRegistry(clientRate, clientBurst, clientTTL),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := HealthStatus{Status: "up", CheckedAt: time.Now().UTC()}
		if s.health != nil {
			status = s.health(r.Context())
		}
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Debug("encode health status", "error", err)
		}
	})
	return s.limit(mux)
}

// limit answers 429 to a client host that exceeds its request budget.
func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.clients.Get(host).Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.bound = ln.Addr().String()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("observability server starting", "addr", s.bound)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

// Addr is the address the server is listening on once started.
func (s *Server) Addr() string {
	return s.bound
}

func (s *Server) Stop(ctx context.Context) error {
	s.clients.Close()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
