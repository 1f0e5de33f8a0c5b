package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storage service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	log.Info().Msg("Loading app")

	config, err := LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	deps, err := BuildServiceDependencies(ctx, config)
	if err != nil {
		return err
	}

	deps.Metrics.Health.Set(1)
	deps.MetricsServer.Start()

	if err := deps.Consumer.Play(ctx); err != nil {
		return err
	}

	log.Info().Msg("Consumer ready")

	deps.Metrics.Health.Set(2)
	deps.Metrics.Up.Set(1)

	log.Info().Msg("App started")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	shutdownService(ctx, config, deps)

	return nil
}

// shutdownService runs the shutdown ordering: stop accepting jobs, let
// in-flight jobs finish, drain the signing pool, close the store. Each step
// is best-effort; a failed step is logged and never blocks the next one.
func shutdownService(ctx context.Context, config *Config, deps *ServiceDependencies) {
	deps.Metrics.Health.Set(1)

	pauseTimeout := time.Duration(config.ConsumerPauseTimeout) * time.Millisecond
	if err := deps.Consumer.Pause(ctx, pauseTimeout); err != nil {
		log.Error().Err(err).Msg("Storage consumer pause error")
	} else {
		log.Warn().Msg("Storage consumer stopped")
	}

	stopTimeout := time.Duration(config.RedisStopTimeout) * time.Millisecond
	if err := closeWithTimeout(ctx, stopTimeout, deps.Redis.Close); err != nil {
		log.Error().Err(err).Msg("Bus connection (redis) stop error")
	} else {
		log.Warn().Msg("Bus connection (redis) stopped")
	}

	drainCtx, cancelDrain := context.WithTimeout(ctx, pauseTimeout)
	defer cancelDrain()

	if err := deps.CryptographyPool.Drain(drainCtx); err != nil {
		log.Error().Err(err).Msg("Error while draining cryptography worker pool")
	} else {
		deps.CryptographyPool.Clear()
		log.Warn().Msg("Cryptography worker pool drained")
	}

	if err := deps.Mongo.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("Error while disconnecting mongodb")
	} else {
		log.Warn().Msg("MongoDB disconnected")
	}

	deps.Metrics.Up.Set(0)

	closeCtx, cancelClose := context.WithTimeout(ctx, 5*time.Second)
	defer cancelClose()

	if err := deps.MetricsServer.Close(closeCtx); err != nil {
		log.Error().Err(err).Msg("Error while closing metrics server")
	} else {
		log.Warn().Msg("Metrics server closed")
	}

	log.Info().Msg("App stopped")
}

func closeWithTimeout(ctx context.Context, timeout time.Duration, close func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- close()
	}()

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case err := <-done:
		return err
	case <-waitCtx.Done():
		return waitCtx.Err()
	}
}
