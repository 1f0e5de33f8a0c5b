package domain

import (
	"context"
	"time"
)

// Job is one unit of work delivered by the message bus. Field operations are
// queued on the envelope and executed atomically by Pull or Push. The bus
// owns the job's transport lifecycle; a processor owns it only for the
// duration of its invocation.
type Job interface {
	ID() string

	// Get queues a read of a payload field. When markConsumed is true the
	// field is recorded as consumed by this service so the producer can tell
	// the payload was picked up.
	Get(field string, markConsumed bool) Job

	// Del queues removal of a payload field.
	Del(field string) Job

	// Set queues a write of a payload field.
	Set(field string, value []byte) Job

	// Pull executes all queued operations in one round trip and returns the
	// values of the queued reads. Fields absent from the payload are absent
	// from the result map.
	Pull(ctx context.Context) (map[string][]byte, error)

	// Push executes queued writes and hands the job back to the bus. Exactly
	// one push is expected per job.
	Push(ctx context.Context) error
}

// JobProcessor handles one delivered job.
type JobProcessor func(ctx context.Context, job Job) error

// ProcessParams registers a processor for a named logical stream.
type ProcessParams struct {
	Stream    string
	Processor JobProcessor
}

// Consumer delivers jobs from the bus to registered processors.
type Consumer interface {
	Process(params ProcessParams)

	// Play starts consumption on all registered streams.
	Play(ctx context.Context) error

	// Pause stops consumption and waits up to timeout for in-flight
	// processors to finish.
	Pause(ctx context.Context, timeout time.Duration) error
}
