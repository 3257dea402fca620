// Package clients provides circuit breaker implementation for HTTP clients
package clients

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int32

const (
	// StateClosed allows all requests to pass through
	StateClosed CircuitState = iota
	// StateOpen blocks all requests
	StateOpen
	// StateHalfOpen allows a limited number of requests to test if the service has recovered
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig is the configuration for circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           // Consecutive failures before opening
	SuccessThreshold int           // Half-open successes before closing
	Timeout          time.Duration // Time spent open before probing again
	HalfOpenLimit    int           // Concurrent probes allowed while half-open
	// IsFailure decides which errors count against the breaker. Defaults to
	// errors.IsRetryable so bad payloads and 4xx-style failures do not trip it.
	IsFailure func(error) bool
	// OnStateChange is called after every transition
	OnStateChange func(from, to CircuitState)
}

// CircuitBreaker stops calling an upstream that keeps failing
type CircuitBreaker struct {
	config CircuitBreakerConfig
	logger *zap.Logger

	mu                   sync.Mutex
	state                CircuitState
	lastStateChange      time.Time
	nextRetryTime        time.Time
	consecutiveFailures  int
	consecutiveSuccesses int
	halfOpenInFlight     int
	totalRequests        int64
	failedRequests       int64
	rejectedRequests     int64
}

// NewCircuitBreaker creates a circuit breaker in the closed state
func NewCircuitBreaker(cfg CircuitBreakerConfig, logger *zap.Logger) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = errors.IsRetryable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		config:          cfg,
		logger:          logger.With(zap.String("component", "circuit_breaker")),
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn with circuit breaker protection.
// If the circuit is open, it returns a Connection error without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.Allow() {
		return errors.New(errors.ErrorTypeConnection, "circuit breaker is open").
			WithDetail("retry_after", cb.GetState().NextRetryTime)
	}

	err := fn()
	if err != nil && cb.config.IsFailure(err) {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return err
}

// Allow determines if a request should be allowed based on the current circuit state
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Now().Before(cb.nextRetryTime) {
			cb.rejectedRequests++
			return false
		}
		cb.transitionLocked(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.config.HalfOpenLimit {
			cb.rejectedRequests++
			return false
		}
		cb.halfOpenInFlight++
		return true
	}
	return false
}

// RecordSuccess records a successful request.
// In half-open state, enough successes close the circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.consecutiveFailures = 0
	case StateHalfOpen:
		cb.halfOpenInFlight--
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
			cb.transitionLocked(StateClosed)
		}
	}
}

// RecordFailure records a failed request.
// In closed state, too many consecutive failures open the circuit.
// In half-open state, any failure reopens it.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failedRequests++
	switch cb.state {
	case StateClosed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.config.FailureThreshold {
			cb.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		cb.halfOpenInFlight--
		cb.transitionLocked(StateOpen)
	}
}

// Reset forces the breaker closed
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateClosed)
}

func (cb *CircuitBreaker) transitionLocked(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.lastStateChange = time.Now()
	cb.consecutiveSuccesses = 0
	cb.halfOpenInFlight = 0

	switch to {
	case StateOpen:
		cb.nextRetryTime = cb.lastStateChange.Add(cb.config.Timeout)
		cb.logger.Warn("circuit breaker opened",
			zap.Time("retry_after", cb.nextRetryTime),
			zap.Int("consecutive_failures", cb.consecutiveFailures))
	case StateHalfOpen:
		cb.logger.Info("circuit breaker half-open")
	case StateClosed:
		cb.consecutiveFailures = 0
		cb.logger.Info("circuit breaker closed")
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// GetState returns the current state of the circuit breaker along with statistics
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failureRate := 0.0
	if cb.totalRequests > 0 {
		failureRate = float64(cb.failedRequests) / float64(cb.totalRequests)
	}
	return CircuitBreakerState{
		State:                cb.state.String(),
		LastStateChange:      cb.lastStateChange,
		ConsecutiveFailures:  cb.consecutiveFailures,
		ConsecutiveSuccesses: cb.consecutiveSuccesses,
		TotalRequests:        cb.totalRequests,
		FailedRequests:       cb.failedRequests,
		RejectedRequests:     cb.rejectedRequests,
		FailureRate:          failureRate,
		NextRetryTime:        cb.nextRetryTime,
	}
}

// CircuitBreakerState represents the current state and statistics of a circuit breaker
type CircuitBreakerState struct {
	State                string    `json:"state"`
	LastStateChange      time.Time `json:"last_state_change"`
	ConsecutiveFailures  int       `json:"consecutive_failures"`
	ConsecutiveSuccesses int       `json:"consecutive_successes"`
	TotalRequests        int64     `json:"total_requests"`
	FailedRequests       int64     `json:"failed_requests"`
	RejectedRequests     int64     `json:"rejected_requests"`
	FailureRate          float64   `json:"failure_rate"`
	NextRetryTime        time.Time `json:"next_retry_time,omitempty"`
}
