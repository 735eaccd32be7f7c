package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycles      *prometheus.CounterVec
	polls       *prometheus.CounterVec
	ingested    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	actions     *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastPrice   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodpulse_cycles_total",
				Help: "Decision cycles by outcome",
			},
			[]string{"outcome"},
		),
		polls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodpulse_polls_total",
				Help: "Per-asset poll attempts by result",
			},
			[]string{"asset", "result"},
		),
		ingested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodpulse_samples_ingested_total",
				Help: "Samples ingested into the price store",
			},
			[]string{"source", "asset"},
		),
		transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodpulse_mood_transitions_total",
				Help: "Accepted mood transitions",
			},
			[]string{"from", "to"},
		),
		actions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodpulse_actions_total",
				Help: "Dispatch attempts by channel and result",
			},
			[]string{"channel", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "moodpulse_last_price",
				Help: "Last recorded price for an asset",
			},
			[]string{"asset"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moodpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle records a completed decision cycle.
func (r *Recorder) RecordCycle(outcome string) {
	r.cycles.WithLabelValues(outcome).Inc()
}

// RecordPoll records one asset poll attempt.
func (r *Recorder) RecordPoll(asset, result string) {
	r.polls.WithLabelValues(asset, result).Inc()
}

// RecordIngest records a stored sample.
func (r *Recorder) RecordIngest(source, asset string) {
	r.ingested.WithLabelValues(source, asset).Inc()
}

// RecordMoodTransition records an accepted mood change.
func (r *Recorder) RecordMoodTransition(from, to string) {
	r.transitions.WithLabelValues(from, to).Inc()
}

// RecordAction records a dispatch attempt result.
func (r *Recorder) RecordAction(channel, result string) {
	r.actions.WithLabelValues(channel, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for an asset.
func (r *Recorder) RecordLastPrice(asset string, price float64) {
	r.lastPrice.WithLabelValues(asset).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
