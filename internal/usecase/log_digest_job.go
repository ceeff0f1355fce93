package usecase

import (
	"context"
	"fmt"

	applogger "SentiPull/pkg/logger"
	"SentiPull/pkg/queue"
)

// LogDigestMessageType is the queue message type for aggregated log batches.
const LogDigestMessageType = "logs.aggregated"

// LogDigestJob replays aggregated warn/error batches as single counted
// entries. Collectors on every replica publish onto the shared queue,
// so a repeated failure surfaces as one digest line with a count
// instead of a flood.
type LogDigestJob struct {
	logger *applogger.Logger
}

func NewLogDigestJob(lgr *applogger.Logger) *LogDigestJob {
	return &LogDigestJob{logger: lgr}
}

func (j *LogDigestJob) Name() string { return "log_digest" }
func (j *LogDigestJob) Type() string { return LogDigestMessageType }

// Handle logs each aggregated entry at info level. Digest lines must
// not themselves feed the collector, which only hooks warn and error.
func (j *LogDigestJob) Handle(ctx context.Context, payload interface{}) error {
	entries, err := queue.ParsePayload[[]applogger.AggregatedLogEntry](payload)
	if err != nil {
		return fmt.Errorf("log digest payload: %w", err)
	}
	for _, e := range *entries {
		j.logger.Info("log digest",
			applogger.String("level", e.Level),
			applogger.String("message", e.Message),
			applogger.String("caller", e.Caller),
			applogger.Int("count", e.Count),
			applogger.Time("first_seen", e.FirstSeen),
			applogger.Time("last_seen", e.LastSeen),
			applogger.Any("fields", e.Fields))
	}
	return nil
}

var _ queue.Job = (*LogDigestJob)(nil)
