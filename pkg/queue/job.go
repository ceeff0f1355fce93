package queue

import "context"

// Job defines a queue job handler. Consumers route messages to the
// registered Job whose Type matches the message type.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes the job with the given payload.
	Handle(ctx context.Context, payload interface{}) error
}
