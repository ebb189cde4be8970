// Package metrics records conversation and finalization metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

// Finalization statuses.
const (
	FinalizeSuccess = "success"
	FinalizeFailed  = "failed"
	FinalizeSkipped = "skipped"
)

type Recorder interface {
	// ObserveTurn records one conversation turn, welcome or reply.
	ObserveTurn(kind, outcome string, duration time.Duration)
	// IncSignal counts completion markers parsed from generated replies.
	IncSignal(complete bool)
	// IncFinalize counts finalization attempts by status.
	IncFinalize(status string)
	// IncSeed counts attachment seeding attempts.
	IncSeed(success bool)
}

type NoopRecorder struct{}

func Nop() Recorder {
	return NoopRecorder{}
}

func (NoopRecorder) ObserveTurn(_, _ string, _ time.Duration) {}
func (NoopRecorder) IncSignal(_ bool)                         {}
func (NoopRecorder) IncFinalize(_ string)                     {}
func (NoopRecorder) IncSeed(_ bool)                           {}

type PrometheusRecorder struct {
	turnsTotal    *prometheus.CounterVec
	turnDuration  *prometheus.HistogramVec
	signalsTotal  *prometheus.CounterVec
	finalizeTotal *prometheus.CounterVec
	seedsTotal    *prometheus.CounterVec
}

// NewPrometheusRecorder registers the collectors on reg. A nil reg uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefbuddy_turns_total",
				Help: "Conversation turns by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "briefbuddy_turn_duration_seconds",
				Help:    "Duration of streamed turns in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		signalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefbuddy_completion_signals_total",
				Help: "Completion markers parsed from generated replies",
			},
			[]string{"complete"},
		),
		finalizeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefbuddy_finalizations_total",
				Help: "Finalization attempts by status",
			},
			[]string{"status"},
		),
		seedsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "briefbuddy_seeds_total",
				Help: "Attachment seeding attempts by status",
			},
			[]string{"status"},
		),
	}
}

func (p *PrometheusRecorder) ObserveTurn(kind, outcome string, duration time.Duration) {
	p.turnsTotal.WithLabelValues(kind, outcome).Inc()
	p.turnDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncSignal(complete bool) {
	label := "false"
	if complete {
		label = "true"
	}
	p.signalsTotal.WithLabelValues(label).Inc()
}

func (p *PrometheusRecorder) IncFinalize(status string) {
	p.finalizeTotal.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncSeed(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	p.seedsTotal.WithLabelValues(status).Inc()
}
