package telemetry

import (
	"SupertonicClient/internal/config"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// StatusFunc отдаёт текущее состояние клиента для /healthz.
type StatusFunc func() map[string]any

// Server HTTP-сервер телеметрии: метрики Prometheus и /healthz.
type Server struct {
	cfg     config.TelemetryConfig
	srv     *http.Server
	logger  *zap.SugaredLogger
	running atomic.Bool

	mu   sync.Mutex
	addr string
}

func NewServer(cfg config.TelemetryConfig, metrics http.Handler, status StatusFunc, logger *zap.SugaredLogger) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:9464"
	}
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	s := &Server{cfg: cfg, logger: logger, addr: cfg.BindAddr}

	mux := http.NewServeMux()
	if metrics != nil {
		mux.Handle(cfg.Path, metrics)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.handleHealth(w, r, status)
	})

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start занимает порт синхронно, чтобы ошибка bind вернулась вызывающему, и обслуживает запросы в горутине.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		s.logger.Infow("Telemetry server listening", "addr", ln.Addr().String(), "path", s.cfg.Path)
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("Telemetry server stopped with error", "error", err)
		} else {
			s.logger.Infow("Telemetry server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("telemetry server shutdown timeout"))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	return nil
}

// Addr фактический адрес слушателя (после Start с портом 0: выданный системой).
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, status StatusFunc) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed; use GET", http.StatusMethodNotAllowed)
		return
	}
	body := map[string]any{"status": "ok"}
	if status != nil {
		for k, v := range status() {
			body[k] = v
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
