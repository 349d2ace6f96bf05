// Package knowledgestore reads graph snapshots from a knowledge store over HTTP.
package knowledgestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kgview/domain/snapshot"
	pkgerrors "kgview/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxSnapshotBytes = 32 << 20

// errServerStatus marks a 5xx answer so the breaker counts it
var errServerStatus = errors.New("knowledge store returned a server error")

// ErrSnapshotTooLarge is the cause of the error returned for a response body
// over MaxBodyBytes
var ErrSnapshotTooLarge = errors.New("knowledge store response exceeds the size limit")

// HTTPSourceConfig configures the HTTP snapshot source
type HTTPSourceConfig struct {
	BaseURL    string
	GraphPath  string
	SearchPath string
	Timeout    time.Duration

	// MaxBodyBytes caps the response size; larger bodies are rejected
	MaxBodyBytes int64

	// Circuit breaker
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultHTTPSourceConfig returns the default configuration for baseURL
func DefaultHTTPSourceConfig(baseURL string) HTTPSourceConfig {
	return HTTPSourceConfig{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		GraphPath:        "/graph",
		SearchPath:       "/graph/search",
		Timeout:          5 * time.Second,
		MaxBodyBytes:     maxSnapshotBytes,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// HTTPSource fetches snapshots through a circuit breaker
type HTTPSource struct {
	config  HTTPSourceConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewHTTPSource creates an HTTP snapshot source
func NewHTTPSource(cfg HTTPSourceConfig, client *http.Client, logger *zap.Logger) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = maxSnapshotBytes
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "knowledge-store",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A malformed or oversized body is the store answering, not the store failing
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsValidation(err) || errors.Is(err, ErrSnapshotTooLarge)
		},
	})

	return &HTTPSource{config: cfg, client: client, breaker: breaker, logger: logger}
}

// Fetch returns the full snapshot
func (s *HTTPSource) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.get(ctx, s.config.GraphPath, nil)
}

// Query returns the snapshot matching text
func (s *HTTPSource) Query(ctx context.Context, text string) (*snapshot.Snapshot, error) {
	return s.get(ctx, s.config.SearchPath, url.Values{"q": {text}})
}

// State returns the circuit breaker state
func (s *HTTPSource) State() gobreaker.State {
	return s.breaker.State()
}

func (s *HTTPSource) get(ctx context.Context, path string, query url.Values) (*snapshot.Snapshot, error) {
	endpoint := s.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.do(ctx, endpoint)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, pkgerrors.NewUnavailableError("knowledge store", err)
		case pkgerrors.IsAppError(err):
			return nil, err
		default:
			return nil, pkgerrors.NewUnavailableError("knowledge store", err)
		}
	}
	return result.(*snapshot.Snapshot), nil
}

func (s *HTTPSource) do(ctx context.Context, endpoint string) (*snapshot.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build knowledge store request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := s.config.MaxBodyBytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge store response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", errServerStatus, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		// nothing stored yet
		return &snapshot.Snapshot{}, nil
	case resp.StatusCode >= 400:
		return nil, pkgerrors.NewExternalError("knowledge store", fmt.Errorf("status %d", resp.StatusCode))
	}

	if int64(len(body)) > limit {
		s.logger.Warn("Knowledge store response over size limit",
			zap.String("endpoint", endpoint),
			zap.Int64("limit", limit),
		)
		return nil, pkgerrors.NewExternalError("knowledge store", fmt.Errorf("%w: limit %d bytes", ErrSnapshotTooLarge, limit)).
			WithCode("SNAPSHOT_TOO_LARGE")
	}

	snap, err := snapshot.Decode(body)
	if err != nil {
		s.logger.Warn("Knowledge store returned malformed snapshot",
			zap.String("endpoint", endpoint),
			zap.Int("bytes", len(body)),
		)
		return nil, err
	}
	return snap, nil
}
