package managers

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/youmark/pkcs8"

	"github.com/gamaops/storage-service/internal/domain"
	"github.com/gamaops/storage-service/internal/metrics"
)

// SigningKeyConfig points at local private key material for one named key.
type SigningKeyConfig struct {
	Path       string
	Passphrase string
}

type CryptographyPoolDependencies struct {
	Keys      map[domain.SigningKey]SigningKeyConfig
	Workers   int
	QueueSize int
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

type signResult struct {
	token string
	err   error
}

type signTask struct {
	request domain.SignRequest
	result  chan signResult
}

// CryptographyPool signs tokens on a fixed set of worker goroutines so that
// CPU-bound signing never runs on the job-handling path. Submissions beyond
// the queue capacity wait, they do not fail. Key material is loaded once at
// construction and never leaves the pool.
type CryptographyPool struct {
	keys    map[domain.SigningKey]*rsa.PrivateKey
	tasks   chan *signTask
	metrics *metrics.Metrics
	logger  zerolog.Logger

	workers  sync.WaitGroup
	inFlight sync.WaitGroup

	mu       sync.Mutex
	draining bool
}

func NewCryptographyPool(deps CryptographyPoolDependencies) (*CryptographyPool, error) {
	workers := deps.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}

	keys := make(map[domain.SigningKey]*rsa.PrivateKey, len(deps.Keys))

	for name, config := range deps.Keys {
		pemData, err := os.ReadFile(config.Path)
		if err != nil {
			return nil, fmt.Errorf("reading private key %s: %w", name, err)
		}

		key, err := parsePrivateKey(pemData, config.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("parsing private key %s: %w", name, err)
		}

		keys[name] = key
	}

	pool := &CryptographyPool{
		keys:    keys,
		tasks:   make(chan *signTask, queueSize),
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}

	for i := 0; i < workers; i++ {
		pool.workers.Add(1)
		go pool.work()
	}

	pool.logger.Debug().Int("workers", workers).Int("queueSize", queueSize).Msg("Cryptography pool started")

	return pool, nil
}

func (p *CryptographyPool) work() {
	defer p.workers.Done()

	for task := range p.tasks {
		token, err := p.sign(task.request)
		task.result <- signResult{token: token, err: err}
		p.inFlight.Done()
	}
}

func (p *CryptographyPool) SignJWT(ctx context.Context, request domain.SignRequest) (string, error) {
	if p.metrics != nil {
		p.metrics.CryptographyCalls.WithLabelValues("signJwt").Inc()
	}

	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		return "", domain.ErrPoolDraining
	}
	p.inFlight.Add(1)
	p.mu.Unlock()

	task := &signTask{request: request, result: make(chan signResult, 1)}

	select {
	case p.tasks <- task:
	case <-ctx.Done():
		p.inFlight.Done()
		return "", ctx.Err()
	}

	select {
	case result := <-task.result:
		return result.token, result.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *CryptographyPool) sign(request domain.SignRequest) (string, error) {
	key, ok := p.keys[request.Key]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownSigningKey, request.Key)
	}

	claims, err := buildClaims(request, time.Now())
	if err != nil {
		return "", err
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return token, nil
}

func buildClaims(request domain.SignRequest, now time.Time) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	switch request.Key {
	case domain.SigningKeyUploadURL:
		payload := request.UploadToken
		if payload == nil {
			return nil, errors.New("upload token payload is required")
		}

		claims["bucketId"] = payload.BucketID
		claims["processor"] = payload.Processor
		claims["field"] = payload.Field
		claims["maxCount"] = payload.MaxCount

		tags := payload.Tags
		if tags == nil {
			tags = []string{}
		}
		claims["tags"] = tags

		if payload.MaxSize != nil {
			claims["maxSize"] = *payload.MaxSize
		}
		if len(payload.MimeTypes) > 0 {
			claims["mimeTypes"] = payload.MimeTypes
		}
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSigningKey, request.Key)
	}

	options := request.Options

	claims["iat"] = now.Unix()
	if options.Issuer != "" {
		claims["iss"] = options.Issuer
	}
	if options.Subject != "" {
		claims["sub"] = options.Subject
	}
	if options.Audience != "" {
		claims["aud"] = options.Audience
	}
	if options.TokenID != "" {
		claims["jti"] = options.TokenID
	}

	// exp is always stamped; a zero ExpiresIn makes the token expired at
	// issue time rather than unexpiring.
	claims["exp"] = now.Add(options.ExpiresIn).Unix()

	return claims, nil
}

// Drain stops accepting new sign requests and waits for queued and running
// ones to finish.
func (p *CryptographyPool) Drain(ctx context.Context) error {
	p.mu.Lock()
	p.draining = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clear tears down the worker goroutines. Call after Drain.
func (p *CryptographyPool) Clear() {
	close(p.tasks)
	p.workers.Wait()
}

func parsePrivateKey(pemData []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	var (
		parsedKey any
		err       error
	)

	switch block.Type {
	case "ENCRYPTED PRIVATE KEY":
		parsedKey, err = pkcs8.ParsePKCS8PrivateKey(block.Bytes, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt PKCS8 private key: %w", err)
		}
	case "PRIVATE KEY":
		parsedKey, err = x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS8 private key: %w", err)
		}
	case "RSA PRIVATE KEY":
		parsedKey, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported private key type: %s", block.Type)
	}

	rsaKey, ok := parsedKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, expected an RSA key", parsedKey)
	}

	return rsaKey, nil
}
