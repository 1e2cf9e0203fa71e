package gimme

import (
	"context"
	"net/http"
	"syscall"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig(consecutive uint32) BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Timeout:             time.Minute,
		ConsecutiveFailures: consecutive,
	}
}

func TestClient_Do_BreakerTripsOnConsecutiveNetworkFailures(t *testing.T) {
	mock := NewMockTransport().StubError(syscall.ECONNREFUSED)
	client := New(
		WithMockTransport(mock),
		WithBreaker(testBreakerConfig(2)),
	)

	for i := 0; i < 2; i++ {
		_, err := client.Do(context.Background(), Options{URL: "http://svc.internal/x"})
		var gerr *Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, "ECONNREFUSED", gerr.Code)
	}

	// Circuit is open now; the request is rejected before any dial.
	before := mock.RequestCount()
	_, err := client.Do(context.Background(), Options{URL: "http://svc.internal/x"})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, mock.RequestCount())
}

func TestClient_Do_BreakerCountsServerErrors(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusBadGateway, "bad")

	var transitions []gobreaker.State
	cfg := testBreakerConfig(2)
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	client := New(WithMockTransport(mock), WithBreaker(cfg))

	// The 5xx still surfaces as a SERVER ERROR while counting as a breaker
	// failure.
	for i := 0; i < 2; i++ {
		_, err := client.Do(context.Background(), Options{URL: "http://svc.internal/x"})
		var gerr *Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, "SERVER ERROR: 502", gerr.Msg)
	}

	_, err := client.Do(context.Background(), Options{URL: "http://svc.internal/x"})
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.NotEmpty(t, transitions)
	assert.Equal(t, gobreaker.StateOpen, transitions[len(transitions)-1])
}

func TestClient_Do_BreakerIgnoresClientErrors(t *testing.T) {
	mock := NewMockTransport().StubResponse(http.StatusNotFound, "")
	client := New(
		WithMockTransport(mock),
		WithBreaker(testBreakerConfig(2)),
	)

	for i := 0; i < 5; i++ {
		_, err := client.Do(context.Background(), Options{URL: "http://svc.internal/x"})
		var gerr *Error
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, "CLIENT ERROR: 404", gerr.Msg)
	}
}

func TestNewBreakerTransport_DisabledWithoutConfig(t *testing.T) {
	base := NewMockTransport()
	cfg := newClientConfig()
	assert.Equal(t, http.RoundTripper(base), newBreakerTransport(base, cfg))
}
