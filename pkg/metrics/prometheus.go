package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observationsIngested *prometheus.CounterVec
	messagesSent         *prometheus.CounterVec
	errorsTotal          *prometheus.CounterVec
	lastScore            *prometheus.GaugeVec
	lastClose            *prometheus.GaugeVec
	latency              *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observationsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipull_observations_ingested_total",
				Help: "Total number of observations ingested per kind",
			},
			[]string{"kind", "ticker"},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipull_messages_sent_total",
				Help: "Total number of messages sent to backend",
			},
			[]string{"backend", "ticker"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentipull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentipull_last_sentiment_score",
				Help: "Last recorded sentiment score for a ticker",
			},
			[]string{"ticker"},
		),
		lastClose: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentipull_last_close_price",
				Help: "Last recorded close price for a ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentipull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordObservation records an ingested observation of the given kind.
func (r *Recorder) RecordObservation(kind, ticker string) {
	r.observationsIngested.WithLabelValues(kind, ticker).Inc()
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, ticker string) {
	r.messagesSent.WithLabelValues(backend, ticker).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastScore records the last mean sentiment score for a ticker.
func (r *Recorder) RecordLastScore(ticker string, score float64) {
	r.lastScore.WithLabelValues(ticker).Set(score)
}

// RecordLastClose records the last close price for a ticker.
func (r *Recorder) RecordLastClose(ticker string, price float64) {
	r.lastClose.WithLabelValues(ticker).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
