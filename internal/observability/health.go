package observability

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthChecker manages health checks for both gRPC and HTTP. The client
// reports ready only while its FIX session is logged on.
type HealthChecker struct {
	grpcHealth   *health.Server
	httpServer   *http.Server
	gatherer     prometheus.Gatherer
	logger       *zap.Logger
	mu           sync.RWMutex
	sessionReady bool
	kafkaReady   bool
	usesKafka    bool
}

// NewHealthChecker creates a new health checker. A nil gatherer leaves /metrics out.
func NewHealthChecker(logger *zap.Logger, gatherer prometheus.Gatherer) *HealthChecker {
	h := &HealthChecker{
		grpcHealth: health.NewServer(),
		gatherer:   gatherer,
		logger:     logger,
	}
	h.grpcHealth.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return h
}

// RegisterGRPC registers the health service with the gRPC server
func (h *HealthChecker) RegisterGRPC(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.grpcHealth)
}

// Handler serves /healthz and, when a gatherer was given, /metrics.
func (h *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealthz)
	if h.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// StartHTTPServer starts the HTTP health check server
func (h *HealthChecker) StartHTTPServer(addr string) error {
	h.mu.Lock()
	h.httpServer = &http.Server{
		Addr:    addr,
		Handler: h.Handler(),
	}
	srv := h.httpServer
	h.mu.Unlock()

	h.logger.Info("starting HTTP health server", zap.String("addr", addr))
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the health checker
func (h *HealthChecker) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.sessionReady = false
	h.grpcHealth.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	srv := h.httpServer
	h.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// SetSessionReady records whether the logon is confirmed
func (h *HealthChecker) SetSessionReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessionReady = ready
	h.updateGRPCLocked()
}

// SetKafkaReady sets the Kafka client readiness status
func (h *HealthChecker) SetKafkaReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kafkaReady = ready
	h.usesKafka = true
	h.updateGRPCLocked()
}

// Ready reports the combined readiness.
func (h *HealthChecker) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.readyLocked()
}

func (h *HealthChecker) readyLocked() bool {
	return h.sessionReady && (!h.usesKafka || h.kafkaReady)
}

func (h *HealthChecker) updateGRPCLocked() {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if h.readyLocked() {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.grpcHealth.SetServingStatus("", status)
}

func (h *HealthChecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.Ready() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("NOT_READY"))
}
