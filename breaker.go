package gimme

import (
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a request
// without dialing. It wraps gobreaker.ErrOpenState.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig configures the optional circuit breaker enabled with
// WithBreaker. Server errors (5xx) and connection-level failures count
// toward tripping; 4xx responses and followed redirects do not.
//
// States follow the usual model: closed (requests pass), open (requests
// rejected immediately with ErrCircuitOpen), half-open (limited probes).
type BreakerConfig struct {
	// MaxRequests is the number of probe requests allowed while half-open.
	// Zero allows exactly one.
	MaxRequests uint32

	// Interval is the cyclic period over which closed-state counts are
	// cleared. Zero keeps counts for the life of the closed state.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the minimum number of requests before the
	// failure ratio can trip the circuit.
	FailureThreshold uint32

	// FailureRatio trips the circuit once the failure fraction reaches
	// this value (0.0 - 1.0), subject to FailureThreshold.
	FailureRatio float64

	// ConsecutiveFailures trips the circuit after this many failures in a
	// row. Zero disables the rule.
	ConsecutiveFailures uint32

	// OnStateChange is invoked on every breaker state transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns conservative trip rules: 50% failures over
// at least 20 requests, or 5 consecutive failures; 10s open period.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    20,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
	}
}

// errServerFailure signals the breaker that an attempt failed even though
// the transport returned a response. It never escapes the transport.
var errServerFailure = errors.New("server failure")

// breakerTransport wraps attempts in a circuit breaker.
type breakerTransport struct {
	breaker *gobreaker.CircuitBreaker[*http.Response]
	next    http.RoundTripper
}

func newBreakerTransport(next http.RoundTripper, cfg *clientConfig) http.RoundTripper {
	bc := cfg.breakerCfg
	if bc == nil {
		return next
	}

	name := cfg.serviceName
	if name == "" {
		name = "gimme"
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if bc.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= bc.ConsecutiveFailures {
				return true
			}
			if bc.FailureThreshold > 0 && counts.Requests < bc.FailureThreshold {
				return false
			}
			if bc.FailureRatio > 0 && counts.Requests > 0 {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return ratio >= bc.FailureRatio
			}
			return false
		},
		OnStateChange: bc.OnStateChange,
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			if errors.Is(err, errServerFailure) {
				return false
			}
			// Only connection-level failures trip the breaker; canceled
			// contexts and client mistakes do not.
			return !isNetworkError(err)
		},
	}

	return &breakerTransport{
		breaker: gobreaker.NewCircuitBreaker[*http.Response](st),
		next:    next,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose // caller owns the body
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			// Counted as a failure but the response is still delivered.
			return resp, errServerFailure
		}
		return resp, nil
	})

	if errors.Is(err, errServerFailure) {
		return resp, nil
	}
	return resp, err
}
