// Package service exposes document validation over NATS request/reply.
// The requirements-management backend submits document content on a
// subject and receives the authoritative ValidationResult, so document
// integrity checks run out of process from the editing surface.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/c360studio/reqmark/document"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the validation service.
type Config struct {
	// URL is the NATS server URL.
	URL string

	// Subject is the request subject to listen on.
	Subject string

	// Queue is the queue group name, so multiple instances share load.
	Queue string

	// MetricsAddr is the listen address for /metrics. Empty disables the
	// metrics endpoint.
	MetricsAddr string
}

// ValidationRequest is the wire request submitted by the backend.
type ValidationRequest struct {
	Tenant       string `json:"tenant"`
	ProjectKey   string `json:"project_key"`
	DocumentSlug string `json:"document_slug"`
	Content      string `json:"content"`
}

// ValidationResponse is the wire reply.
type ValidationResponse struct {
	Result *document.ValidationResult `json:"result,omitempty"`
	Error  string                     `json:"error,omitempty"`
}

// Service validates documents received over NATS.
type Service struct {
	config   Config
	analyzer document.Analyzer
	logger   *slog.Logger
	metrics  *metrics
	registry *prometheus.Registry

	conn    *nats.Conn
	sub     *nats.Subscription
	httpSrv *http.Server

	mu      sync.Mutex
	running bool
}

// New creates a validation service. The analyzer may be nil to disable
// the quality gate.
func New(config Config, analyzer document.Analyzer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	m := newMetrics(registry)

	if analyzer != nil {
		analyzer = &instrumentedAnalyzer{next: analyzer, duration: m.analyzeDuration}
	}

	return &Service{
		config:   config,
		analyzer: analyzer,
		logger:   logger,
		metrics:  m,
		registry: registry,
	}
}

// Start connects to NATS, subscribes on the configured subject, and
// starts the metrics endpoint if configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("service already running")
	}

	conn, err := nats.Connect(s.config.URL,
		nats.Name("reqmark-validator"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		return fmt.Errorf("connect to NATS %s: %w", s.config.URL, err)
	}
	s.conn = conn

	sub, err := conn.QueueSubscribe(s.config.Subject, s.config.Queue, func(msg *nats.Msg) {
		s.handleMessage(ctx, msg)
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("subscribe to %s: %w", s.config.Subject, err)
	}
	s.sub = sub

	if s.config.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
		s.httpSrv = &http.Server{
			Addr:              s.config.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("Metrics server failed", "addr", s.config.MetricsAddr, "error", err)
			}
		}()
	}

	s.running = true
	s.logger.Info("Validation service started",
		"url", s.config.URL,
		"subject", s.config.Subject,
		"queue", s.config.Queue,
		"metrics_addr", s.config.MetricsAddr)

	return nil
}

// Stop drains the subscription and shuts down the metrics endpoint.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false

	if s.sub != nil {
		if err := s.sub.Drain(); err != nil {
			s.logger.Warn("Failed to drain subscription", "error", err)
		}
	}
	if s.conn != nil {
		s.conn.Close()
	}
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}

	s.logger.Info("Validation service stopped")
	return nil
}

// handleMessage validates one request and replies with the result.
func (s *Service) handleMessage(ctx context.Context, msg *nats.Msg) {
	reply := s.handleRequest(ctx, msg.Data)

	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("Failed to marshal reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("Failed to respond", "error", err)
	}
}

// handleRequest runs validation for a raw request payload. Split from
// the NATS plumbing so it is testable without a server.
func (s *Service) handleRequest(ctx context.Context, data []byte) ValidationResponse {
	var req ValidationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.metrics.requestErrors.Inc()
		s.logger.Error("Invalid validation request", "error", err)
		return ValidationResponse{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	result, err := document.Validate(ctx, req.Content, s.analyzer)
	if err != nil {
		s.metrics.requestErrors.Inc()
		s.logger.Error("Validation failed",
			"tenant", req.Tenant,
			"project_key", req.ProjectKey,
			"document_slug", req.DocumentSlug,
			"error", err)
		return ValidationResponse{Error: err.Error()}
	}

	s.metrics.observeResult(result)
	s.logger.Info("Document validated",
		"tenant", req.Tenant,
		"project_key", req.ProjectKey,
		"document_slug", req.DocumentSlug,
		"valid", result.Valid,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings))

	return ValidationResponse{Result: result}
}
