package service

import (
	"context"
	"time"

	"github.com/c360studio/reqmark/document"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus collectors for the validation service.
type metrics struct {
	documentsValidated *prometheus.CounterVec
	diagnostics        *prometheus.CounterVec
	requestErrors      prometheus.Counter
	analyzeDuration    prometheus.Histogram
}

// newMetrics creates and registers the service collectors.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		documentsValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reqmark",
			Name:      "documents_validated_total",
			Help:      "Documents validated, labeled by outcome.",
		}, []string{"valid"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reqmark",
			Name:      "diagnostics_total",
			Help:      "Diagnostics emitted, labeled by severity and code.",
		}, []string{"severity", "code"}),
		requestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reqmark",
			Name:      "request_errors_total",
			Help:      "Validation requests that failed before producing a result.",
		}),
		analyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reqmark",
			Name:      "analyzer_call_duration_seconds",
			Help:      "Latency of external quality analyzer calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.documentsValidated, m.diagnostics, m.requestErrors, m.analyzeDuration)
	return m
}

// observeResult records counters for a completed validation.
func (m *metrics) observeResult(res *document.ValidationResult) {
	valid := "false"
	if res.Valid {
		valid = "true"
	}
	m.documentsValidated.WithLabelValues(valid).Inc()

	for _, d := range res.Errors {
		m.diagnostics.WithLabelValues(string(d.Severity), string(d.Code)).Inc()
	}
	for _, d := range res.Warnings {
		m.diagnostics.WithLabelValues(string(d.Severity), string(d.Code)).Inc()
	}
}

// instrumentedAnalyzer wraps an analyzer with call latency observation.
type instrumentedAnalyzer struct {
	next     document.Analyzer
	duration prometheus.Histogram
}

func (a *instrumentedAnalyzer) Analyze(ctx context.Context, text string) (*document.Analysis, error) {
	start := time.Now()
	analysis, err := a.next.Analyze(ctx, text)
	a.duration.Observe(time.Since(start).Seconds())
	return analysis, err
}
