package cli

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gamaops/storage-service/internal/bus"
	"github.com/gamaops/storage-service/internal/codec"
	"github.com/gamaops/storage-service/internal/domain"
	"github.com/gamaops/storage-service/internal/managers"
	"github.com/gamaops/storage-service/internal/metrics"
	"github.com/gamaops/storage-service/internal/processors"
)

// ServiceDependencies contains all dependencies needed by the service
type ServiceDependencies struct {
	Metrics          *metrics.Metrics
	MetricsServer    *metrics.Server
	Mongo            *mongo.Client
	Redis            *redis.Client
	Consumer         *bus.Consumer
	CryptographyPool *managers.CryptographyPool
}

// BuildServiceDependencies creates and wires up all service dependencies
func BuildServiceDependencies(ctx context.Context, config *Config) (*ServiceDependencies, error) {
	log.Info().Msg("Building service dependencies")
	logger := log.Logger

	serviceMetrics := metrics.New()
	if config.EnableRuntimeMetrics {
		serviceMetrics.EnableRuntimeMetrics()
	}

	metricsURL, err := url.Parse(config.MetricsServerURI)
	if err != nil {
		return nil, fmt.Errorf("parsing metrics server uri: %w", err)
	}

	metricsServer := metrics.NewServer(metrics.ServerDependencies{
		Address: metricsURL.Host,
		Metrics: serviceMetrics,
		Logger:  logger.With().Str("component", "metrics").Logger(),
	})

	log.Info().Msg("Loading protos")
	registry := codec.NewRegistry()
	log.Info().Msg("Protos loaded")

	log.Info().Msg("Loading worker pools")

	cryptographyPool, err := managers.NewCryptographyPool(managers.CryptographyPoolDependencies{
		Keys: map[domain.SigningKey]managers.SigningKeyConfig{
			domain.SigningKeyUploadURL: {
				Path:       config.UploadURLPrivateKey,
				Passphrase: config.UploadURLPrivateKeyPassword,
			},
		},
		Workers:   config.CryptographyPoolSize,
		QueueSize: config.CryptographyQueueSize,
		Metrics:   serviceMetrics,
		Logger:    logger.With().Str("component", "cryptography").Logger(),
	})
	if err != nil {
		return nil, err
	}

	log.Info().Msg("Worker pools loaded")

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := mongoClient.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	buckets := managers.NewBucketRepository(managers.BucketRepositoryDependencies{
		DB:     mongoClient.Database(databaseName(config.MongoURI)),
		Logger: logger.With().Str("component", "buckets").Logger(),
	})

	if err := buckets.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	log.Info().Msg("MongoDB ready")

	redisOptions, err := redis.ParseURL(config.RedisURI)
	if err != nil {
		return nil, fmt.Errorf("parsing redis uri: %w", err)
	}

	redisClient := redis.NewClient(redisOptions)

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	consumer := bus.NewConsumer(bus.ConsumerDependencies{
		Client:       redisClient,
		Group:        config.ConsumerGroup,
		BlockTimeout: time.Duration(config.ConsumerBlockTimeout) * time.Millisecond,
		Logger:       logger.With().Str("component", "bus").Logger(),
	})

	createBucket := processors.NewCreateBucketProcessor(processors.CreateBucketProcessorDependencies{
		Buckets:     buckets,
		RequestType: codec.MustResolve[codec.CreateBucketRequest](registry, "storage.v1.CreateBucketRequest"),
		BucketType:  codec.MustResolve[codec.Bucket](registry, "storage.v1.Bucket"),
		Metrics:     serviceMetrics,
		Logger:      logger.With().Str("function", "createBucket").Logger(),
	})

	createUploadURL := processors.NewCreateUploadURLProcessor(processors.CreateUploadURLProcessorDependencies{
		Buckets:      buckets,
		Signer:       cryptographyPool,
		RequestType:  codec.MustResolve[codec.CreateUploadUrlRequest](registry, "storage.v1.CreateUploadUrlRequest"),
		ResponseType: codec.MustResolve[codec.CreateUploadUrlResponse](registry, "storage.v1.CreateUploadUrlResponse"),
		Metrics:      serviceMetrics,
		Logger:       logger.With().Str("function", "createUploadUrl").Logger(),
		Issuer:       config.UploadTokenIssuer,
	})

	consumer.Process(domain.ProcessParams{Stream: "CreateBucket", Processor: createBucket.Process})
	consumer.Process(domain.ProcessParams{Stream: "CreateUploadUrl", Processor: createUploadURL.Process})

	log.Info().Msg("Service dependencies built successfully")

	return &ServiceDependencies{
		Metrics:          serviceMetrics,
		MetricsServer:    metricsServer,
		Mongo:            mongoClient,
		Redis:            redisClient,
		Consumer:         consumer,
		CryptographyPool: cryptographyPool,
	}, nil
}

func databaseName(mongoURI string) string {
	u, err := url.Parse(mongoURI)
	if err != nil {
		return "storage"
	}

	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return "storage"
	}

	return name
}
