// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tutor"

// Turn paths.
const (
	PathGuided   = "guided"
	PathBusiness = "business"
	PathQuota    = "quota"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Turn metrics
	TurnsTotal       *prometheus.CounterVec
	TurnDuration     prometheus.Histogram
	PhaseTransitions *prometheus.CounterVec

	// Model metrics
	ModelErrors  prometheus.Counter
	ModelTokens  *prometheus.CounterVec
	ModelCostUSD prometheus.Counter

	// Speech metrics
	SpeechErrors *prometheus.CounterVec

	// Usage metrics
	SecondsRecorded  prometheus.Counter
	BusinessModeSets *prometheus.CounterVec
	QuotaRejections  prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of chat turns by path",
		}, []string{"path"}),
		TurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End to end duration of a chat turn",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 30},
		}),
		PhaseTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Total number of phase transitions",
		}, []string{"from", "to"}),

		ModelErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_errors_total",
			Help:      "Total number of failed model calls",
		}),
		ModelTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_total",
			Help:      "Total tokens consumed by kind",
		}, []string{"kind"}),
		ModelCostUSD: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cost_usd_total",
			Help:      "Estimated model spend in USD",
		}),

		SpeechErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_errors_total",
			Help:      "Total number of failed speech calls",
		}, []string{"service"}),

		SecondsRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speaking_seconds_recorded_total",
			Help:      "Total speaking seconds added to the usage ledger",
		}),
		BusinessModeSets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "business_mode_sets_total",
			Help:      "Total number of business mode changes",
		}, []string{"mode"}),
		QuotaRejections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Total number of turns refused by the daily quota",
		}),

		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka publish attempts",
		}, []string{"topic"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordTurn records a finished turn.
func (m *Metrics) RecordTurn(path string, durationSeconds float64) {
	m.TurnsTotal.WithLabelValues(path).Inc()
	m.TurnDuration.Observe(durationSeconds)
	if path == PathQuota {
		m.QuotaRejections.Inc()
	}
}

func (m *Metrics) RecordPhaseTransition(from, to string) {
	m.PhaseTransitions.WithLabelValues(from, to).Inc()
}

// RecordModelCall records token usage and cost, or a failure.
func (m *Metrics) RecordModelCall(err error, promptTokens, completionTokens int, costUSD float64) {
	if err != nil {
		m.ModelErrors.Inc()
		return
	}
	m.ModelTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	m.ModelTokens.WithLabelValues("completion").Add(float64(completionTokens))
	m.ModelCostUSD.Add(costUSD)
}

func (m *Metrics) RecordSpeechError(service string) {
	m.SpeechErrors.WithLabelValues(service).Inc()
}

func (m *Metrics) RecordSecondsAdded(seconds int) {
	if seconds > 0 {
		m.SecondsRecorded.Add(float64(seconds))
	}
}

func (m *Metrics) RecordBusinessMode(mode string) {
	if mode == "" {
		mode = "none"
	}
	m.BusinessModeSets.WithLabelValues(mode).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}
