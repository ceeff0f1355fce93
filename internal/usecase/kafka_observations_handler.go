package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SentiPull/internal/domain/models"
	domrepo "SentiPull/internal/domain/repository"
	"SentiPull/internal/repository"
	"SentiPull/internal/services/correlation"
	pkgkafka "SentiPull/pkg/kafka"
)

// KafkaObservationsHandler consumes observation envelopes from Kafka
// and writes them to storage. Malformed envelopes return an error so
// the consumer's retry/DLQ machinery takes over.
type KafkaObservationsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// Handle decodes one envelope (see repository.ObservationEnvelope)
// and persists it by kind.
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var env repository.ObservationEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	ts := env.TS
	if ts > 1e11 { // ms
		ts = ts / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(ts, 0)).Seconds())

	start := time.Now()
	var err error
	switch env.Kind {
	case repository.EnvelopeKindSentiment:
		o := &models.SentimentObservation{
			Ticker:      env.Ticker,
			Timestamp:   time.Unix(ts, 0).UTC(),
			Score:       env.Score,
			SourceCount: env.SourceCount,
		}
		if verr := correlation.ValidateSentiment(o); verr != nil {
			h.metrics.RecordError("consumer_validate")
			return verr
		}
		err = h.storage.StoreSentiments(ctx, []*models.SentimentObservation{o})
	case repository.EnvelopeKindPrice:
		o := &models.PriceObservation{
			Ticker:    env.Ticker,
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     env.Close,
		}
		if verr := correlation.ValidatePrice(o); verr != nil {
			h.metrics.RecordError("consumer_validate")
			return verr
		}
		err = h.storage.StorePrices(ctx, []*models.PriceObservation{o})
	default:
		h.metrics.RecordError("consumer_kind")
		return fmt.Errorf("unknown envelope kind: %q", env.Kind)
	}
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", env.Ticker)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
