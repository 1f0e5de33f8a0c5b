package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all service configuration
type Config struct {
	AppName string

	// Connections
	RedisURI         string
	MongoURI         string
	MetricsServerURI string

	// Runtime behavior
	EnableRuntimeMetrics bool
	ConsumerGroup        string
	ConsumerPauseTimeout int // milliseconds
	RedisStopTimeout     int // milliseconds
	ConsumerBlockTimeout int // milliseconds

	// Signing
	UploadURLPrivateKey         string
	UploadURLPrivateKeyPassword string
	UploadTokenIssuer           string
	CryptographyPoolSize        int
	CryptographyQueueSize       int
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables - do this BEFORE reading config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set up explicit mappings between struct fields and environment variables
	envMappings := map[string]string{
		"AppName":                     "APP_NAME",
		"RedisURI":                    "REDIS_URI",
		"MongoURI":                    "MONGODB_URI",
		"MetricsServerURI":            "METRICS_SERVER_URI",
		"EnableRuntimeMetrics":        "ENABLE_BACKEND_RUNTIME_METRICS",
		"ConsumerGroup":               "CONSUMER_GROUP",
		"ConsumerPauseTimeout":        "CONSUMER_PAUSE_TIMEOUT",
		"RedisStopTimeout":            "REDIS_STOP_TIMEOUT",
		"ConsumerBlockTimeout":        "CONSUMER_BLOCK_TIMEOUT",
		"UploadURLPrivateKey":         "UPLOAD_URL_PRIVATE_KEY",
		"UploadURLPrivateKeyPassword": "UPLOAD_URL_PRIVATE_KEY_PASSWORD",
		"UploadTokenIssuer":           "UPLOAD_TOKEN_ISSUER",
		"CryptographyPoolSize":        "CRYPTOGRAPHY_POOL_SIZE",
		"CryptographyQueueSize":       "CRYPTOGRAPHY_QUEUE_SIZE",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("storage_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	log.Debug().
		Str("appName", config.AppName).
		Str("consumerGroup", config.ConsumerGroup).
		Int("consumerPauseTimeout", config.ConsumerPauseTimeout).
		Int("redisStopTimeout", config.RedisStopTimeout).
		Int("consumerBlockTimeout", config.ConsumerBlockTimeout).
		Int("cryptographyPoolSize", config.CryptographyPoolSize).
		Int("cryptographyQueueSize", config.CryptographyQueueSize).
		Msg("Configuration loaded")

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("AppName", "storage-service")
	v.SetDefault("ConsumerGroup", "StorageService")
	v.SetDefault("ConsumerPauseTimeout", 10000)
	v.SetDefault("RedisStopTimeout", 10000)
	v.SetDefault("ConsumerBlockTimeout", 5000)
	v.SetDefault("CryptographyQueueSize", 64)
}

// validateConfig validates the required configuration fields
func validateConfig(config *Config) error {
	var missingVars []string

	if config.RedisURI == "" {
		missingVars = append(missingVars, "REDIS_URI")
	}

	if config.MongoURI == "" {
		missingVars = append(missingVars, "MONGODB_URI")
	}

	if config.MetricsServerURI == "" {
		missingVars = append(missingVars, "METRICS_SERVER_URI")
	}

	if config.UploadURLPrivateKey == "" {
		missingVars = append(missingVars, "UPLOAD_URL_PRIVATE_KEY")
	}

	if config.UploadTokenIssuer == "" {
		missingVars = append(missingVars, "UPLOAD_TOKEN_ISSUER")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return nil
}
