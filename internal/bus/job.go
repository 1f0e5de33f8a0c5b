// Package bus adapts Redis streams to the job consumer contract. Each job's
// payload fields live in a Redis hash keyed by the job id; stream entries
// only carry the job id.
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gamaops/storage-service/internal/domain"
)

type opKind int

const (
	opGet opKind = iota
	opDel
	opSet
)

type fieldOp struct {
	kind    opKind
	field   string
	value   []byte
	consume bool
}

// Job implements domain.Job over a Redis hash. Field operations queue on the
// envelope and execute in a single pipeline on Pull or Push.
type Job struct {
	id        string
	stream    string
	group     string
	messageID string
	client    redis.Cmdable
	ops       []fieldOp
}

func newJob(id, stream, group, messageID string, client redis.Cmdable) *Job {
	return &Job{
		id:        id,
		stream:    stream,
		group:     group,
		messageID: messageID,
		client:    client,
	}
}

func jobKey(id string) string {
	return "job:" + id
}

func consumedKey(id string) string {
	return "job:" + id + ":consumed"
}

func (j *Job) ID() string {
	return j.id
}

func (j *Job) Get(field string, markConsumed bool) domain.Job {
	j.ops = append(j.ops, fieldOp{kind: opGet, field: field, consume: markConsumed})

	return j
}

func (j *Job) Del(field string) domain.Job {
	j.ops = append(j.ops, fieldOp{kind: opDel, field: field})

	return j
}

func (j *Job) Set(field string, value []byte) domain.Job {
	j.ops = append(j.ops, fieldOp{kind: opSet, field: field, value: value})

	return j
}

func (j *Job) Pull(ctx context.Context) (map[string][]byte, error) {
	ops := j.ops
	j.ops = nil

	type queuedGet struct {
		field string
		cmd   *redis.StringCmd
	}

	key := jobKey(j.id)
	pipe := j.client.Pipeline()

	var gets []queuedGet

	for _, op := range ops {
		switch op.kind {
		case opGet:
			gets = append(gets, queuedGet{field: op.field, cmd: pipe.HGet(ctx, key, op.field)})
			if op.consume {
				pipe.SAdd(ctx, consumedKey(j.id), op.field)
			}
		case opDel:
			pipe.HDel(ctx, key, op.field)
		case opSet:
			pipe.HSet(ctx, key, op.field, op.value)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pulling job fields: %w", err)
	}

	fields := make(map[string][]byte, len(gets))

	for _, get := range gets {
		value, err := get.cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading job field %s: %w", get.field, err)
		}

		fields[get.field] = value
	}

	return fields, nil
}

func (j *Job) Push(ctx context.Context) error {
	ops := j.ops
	j.ops = nil

	key := jobKey(j.id)
	pipe := j.client.Pipeline()

	for _, op := range ops {
		switch op.kind {
		case opGet:
			if op.consume {
				pipe.SAdd(ctx, consumedKey(j.id), op.field)
			}
		case opDel:
			pipe.HDel(ctx, key, op.field)
		case opSet:
			pipe.HSet(ctx, key, op.field, op.value)
		}
	}

	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: j.stream + ":completed",
		Values: map[string]any{"job": j.id},
	})
	pipe.XAck(ctx, j.stream, j.group, j.messageID)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("pushing job: %w", err)
	}

	return nil
}
