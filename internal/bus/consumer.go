package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/gamaops/storage-service/internal/domain"
)

type ConsumerDependencies struct {
	Client       *redis.Client
	Group        string
	BlockTimeout time.Duration
	Logger       zerolog.Logger
}

// Consumer reads jobs from Redis streams inside a consumer group and
// dispatches each one to the processor registered for its stream. Every job
// runs on its own goroutine so slow jobs never stall unrelated ones.
type Consumer struct {
	client       *redis.Client
	group        string
	name         string
	blockTimeout time.Duration
	logger       zerolog.Logger

	mu         sync.Mutex
	processors map[string]domain.JobProcessor
	cancel     context.CancelFunc
	loopDone   chan struct{}

	inFlight sync.WaitGroup
}

func NewConsumer(deps ConsumerDependencies) *Consumer {
	blockTimeout := deps.BlockTimeout
	if blockTimeout <= 0 {
		blockTimeout = 5 * time.Second
	}

	return &Consumer{
		client:       deps.Client,
		group:        deps.Group,
		name:         deps.Group + "-" + xid.New().String(),
		blockTimeout: blockTimeout,
		logger:       deps.Logger,
		processors:   map[string]domain.JobProcessor{},
	}
}

func (c *Consumer) Process(params domain.ProcessParams) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.processors[params.Stream] = params.Processor
}

func (c *Consumer) Play(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return errors.New("consumer is already playing")
	}

	if len(c.processors) == 0 {
		return errors.New("no processors registered")
	}

	for stream := range c.processors {
		err := c.client.XGroupCreateMkStream(ctx, stream, c.group, "$").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("creating consumer group on %s: %w", stream, err)
		}
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.loopDone = make(chan struct{})

	go c.readLoop(loopCtx)

	c.logger.Info().Str("group", c.group).Str("consumer", c.name).Msg("Consumer playing")

	return nil
}

func (c *Consumer) readLoop(ctx context.Context) {
	defer close(c.loopDone)

	c.mu.Lock()
	streams := make([]string, 0, 2*len(c.processors))
	for stream := range c.processors {
		streams = append(streams, stream)
	}
	for range c.processors {
		streams = append(streams, ">")
	}
	c.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return
		}

		results, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  streams,
			Count:    10,
			Block:    c.blockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}

			c.logger.Error().Err(err).Msg("Bus read failed")

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range results {
			c.mu.Lock()
			processor := c.processors[stream.Stream]
			c.mu.Unlock()
			if processor == nil {
				continue
			}

			for _, message := range stream.Messages {
				job := newJob(messageJobID(message), stream.Stream, c.group, message.ID, c.client)

				c.inFlight.Add(1)
				// In-flight jobs outlive a pause of the read loop, so they
				// run on an uncancelled context.
				go c.dispatch(context.WithoutCancel(ctx), stream.Stream, processor, job)
			}
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, stream string, processor domain.JobProcessor, job *Job) {
	defer c.inFlight.Done()

	if err := processor(ctx, job); err != nil {
		c.logger.Error().
			Err(err).
			Str("stream", stream).
			Str("jobId", job.ID()).
			Msg("Job processing failed")
	}
}

// Pause stops the read loop and waits up to timeout for in-flight jobs to
// finish. A paused consumer can be played again.
func (c *Consumer) Pause(ctx context.Context, timeout time.Duration) error {
	c.mu.Lock()
	cancel := c.cancel
	loopDone := c.loopDone
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	waitCtx, cancelWait := context.WithTimeout(ctx, timeout)
	defer cancelWait()

	select {
	case <-loopDone:
	case <-waitCtx.Done():
		return fmt.Errorf("waiting for consumer read loop: %w", waitCtx.Err())
	}

	finished := make(chan struct{})
	go func() {
		c.inFlight.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-waitCtx.Done():
		return fmt.Errorf("waiting for in-flight jobs: %w", waitCtx.Err())
	}
}

func messageJobID(message redis.XMessage) string {
	if id, ok := message.Values["job"].(string); ok && id != "" {
		return id
	}

	return message.ID
}
