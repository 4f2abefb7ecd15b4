package graph

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned when the circuit breaker is open and rejects
// backend calls to prevent cascading failures.
var ErrBreakerOpen = errors.New("graph backend circuit breaker is open")

// BreakerConfig tunes the circuit breaker protecting a remote graph backend.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures required to trip
	// the circuit. Default: 5
	MaxFailures uint32

	// Timeout is the duration the circuit stays open before transitioning
	// to half-open. Default: 30 seconds
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of consecutive successes required
	// in half-open state to close the circuit again. Default: 2
	HalfOpenMaxSuccesses uint32
}

// Breaker wraps gobreaker around remote graph-backend calls. Adapters with a
// network between them and the database (neo4j, postgres) thread every query
// through Execute; a local sqlite file has no use for one.
//
// Closed passes calls through. After MaxFailures consecutive failures the
// circuit opens and calls fail fast with ErrBreakerOpen. After Timeout the
// circuit half-opens and allows probe calls; HalfOpenMaxSuccesses successes
// close it again.
type Breaker struct {
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreaker creates a circuit breaker with the given name (used in logs)
// and config. Zero-value config fields fall back to the defaults.
func NewBreaker(name string, config BreakerConfig, logger *zap.Logger) *Breaker {
	if config.MaxFailures == 0 {
		config.MaxFailures = 5
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.HalfOpenMaxSuccesses == 0 {
		config.HalfOpenMaxSuccesses = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Breaker{logger: logger}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.HalfOpenMaxSuccesses,
		Interval:    0, // don't clear counts periodically
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		// Only infrastructure failures count against the circuit. The graph
		// sentinels are the backend answering, not the backend failing, and
		// a cancelled context says nothing about backend health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrNoEffect) ||
				errors.Is(err, ErrInvalidInput) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("graph backend breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return b
}

// Execute runs fn through the circuit breaker. If the circuit is open it
// returns ErrBreakerOpen immediately without invoking fn. A context already
// cancelled counts as a failure without invoking fn.
func (b *Breaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.breaker.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrBreakerOpen
	}
	return result, err
}

// State returns the current breaker state: "closed", "open", or "half-open".
func (b *Breaker) State() string {
	switch b.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
