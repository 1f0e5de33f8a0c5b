package bus

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamaops/storage-service/internal/domain"
)

func TestJobKeys(t *testing.T) {
	assert.Equal(t, "job:abc", jobKey("abc"))
	assert.Equal(t, "job:abc:consumed", consumedKey("abc"))
}

func TestJobQueuesFieldOps(t *testing.T) {
	job := newJob("job-1", "CreateBucket", "StorageService", "1-0", nil)

	chained := job.Get("request", true).Del("request").Set("bucket", []byte("data"))
	assert.Same(t, job, chained, "field operations chain on the same envelope")

	require.Len(t, job.ops, 3)
	assert.Equal(t, fieldOp{kind: opGet, field: "request", consume: true}, job.ops[0])
	assert.Equal(t, fieldOp{kind: opDel, field: "request"}, job.ops[1])
	assert.Equal(t, fieldOp{kind: opSet, field: "bucket", value: []byte("data")}, job.ops[2])
}

func TestMessageJobID(t *testing.T) {
	tests := []struct {
		name    string
		message redis.XMessage
		want    string
	}{
		{
			name:    "job field wins",
			message: redis.XMessage{ID: "1-0", Values: map[string]any{"job": "job-1"}},
			want:    "job-1",
		},
		{
			name:    "empty job field falls back to message id",
			message: redis.XMessage{ID: "1-0", Values: map[string]any{"job": ""}},
			want:    "1-0",
		},
		{
			name:    "missing job field falls back to message id",
			message: redis.XMessage{ID: "2-0", Values: map[string]any{}},
			want:    "2-0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageJobID(tt.message))
		})
	}
}

func TestConsumerName(t *testing.T) {
	a := NewConsumer(ConsumerDependencies{Group: "StorageService", Logger: zerolog.Nop()})
	b := NewConsumer(ConsumerDependencies{Group: "StorageService", Logger: zerolog.Nop()})

	assert.True(t, len(a.name) > len("StorageService-"))
	assert.NotEqual(t, a.name, b.name, "each consumer instance gets a unique name")
}

func TestConsumerPlayWithoutProcessors(t *testing.T) {
	consumer := NewConsumer(ConsumerDependencies{Group: "StorageService", Logger: zerolog.Nop()})

	err := consumer.Play(context.Background())
	require.Error(t, err)
}

func TestConsumerPauseWhenNotPlaying(t *testing.T) {
	consumer := NewConsumer(ConsumerDependencies{Group: "StorageService", Logger: zerolog.Nop()})
	consumer.Process(domain.ProcessParams{
		Stream:    "CreateBucket",
		Processor: func(ctx context.Context, job domain.Job) error { return nil },
	})

	assert.NoError(t, consumer.Pause(context.Background(), time.Second))
}
