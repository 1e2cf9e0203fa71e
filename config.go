package gimme

import (
	"crypto/tls"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/TheTechy/gimme"

// TransportConfig holds the low-level transport parameters shared by every
// request a Client performs. Use DefaultTransportConfig() and override
// fields as needed.
//
// Keep-alives are disabled by default: the client intentionally carries no
// state across calls, so each request dials its own connection.
type TransportConfig struct {
	// DialTimeout is the maximum time to establish a TCP connection.
	// Default: 5s.
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval for the lifetime of a
	// single call's connection. Default: 30s.
	KeepAlive time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake. Default: 10s.
	TLSHandshakeTimeout time.Duration

	// ExpectContinueTimeout is the wait for a "100 Continue" response when
	// the Expect header is used. Default: 1s.
	ExpectContinueTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers after the
	// request is written. Zero defers to the per-call timeout.
	ResponseHeaderTimeout time.Duration

	// WriteBufferSize and ReadBufferSize size the connection buffers.
	// Default: 32KB each.
	WriteBufferSize int
	ReadBufferSize  int

	// MaxResponseHeaderBytes limits response header size. Zero uses the
	// net/http default.
	MaxResponseHeaderBytes int64

	// DisableKeepAlives forces a fresh connection per request.
	// Default: true.
	DisableKeepAlives bool
}

// DefaultTransportConfig returns the transport parameters used when no
// WithTransportConfig option is given.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		DialTimeout:           5 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		WriteBufferSize:       32 * 1024,
		ReadBufferSize:        32 * 1024,
		DisableKeepAlives:     true,
	}
}

// clientConfig holds the full client configuration assembled from options.
type clientConfig struct {
	transportCfg TransportConfig

	// Observability.
	serviceName    string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	metrics        *metrics

	// Resilience decorators.
	breakerCfg   *BreakerConfig
	rateLimitCfg *RateLimitConfig

	// Request decoration.
	requestID bool

	// Debugging.
	debug        bool
	logger       zerolog.Logger
	generateCurl bool

	// Test hook: replaces the base transport when set.
	mockTransport *MockTransport
}

// newClientConfig applies options over the defaults and initializes the
// instrumentation handles.
func newClientConfig(opts ...Option) *clientConfig {
	cfg := &clientConfig{
		transportCfg:   DefaultTransportConfig(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		logger:         zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.tracer = cfg.tracerProvider.Tracer(scope)
	cfg.meter = cfg.meterProvider.Meter(scope)
	cfg.metrics, _ = newMetrics(cfg.meter)

	return cfg
}

// buildBase creates the base transport for one verification mode.
func (cfg *clientConfig) buildBase(verifyTLS bool) http.RoundTripper {
	if cfg.mockTransport != nil {
		return cfg.mockTransport
	}

	tc := cfg.transportCfg
	dialer := &net.Dialer{
		Timeout:   tc.DialTimeout,
		KeepAlive: tc.KeepAlive,
	}

	return &http.Transport{
		DialContext:            dialer.DialContext,
		TLSHandshakeTimeout:    tc.TLSHandshakeTimeout,
		ExpectContinueTimeout:  tc.ExpectContinueTimeout,
		ResponseHeaderTimeout:  tc.ResponseHeaderTimeout,
		WriteBufferSize:        tc.WriteBufferSize,
		ReadBufferSize:         tc.ReadBufferSize,
		MaxResponseHeaderBytes: tc.MaxResponseHeaderBytes,
		DisableKeepAlives:      tc.DisableKeepAlives,
		DisableCompression:     true,
		TLSClientConfig:        &tls.Config{InsecureSkipVerify: !verifyTLS},
	}
}

// buildChain assembles the transport decorator chain around a base:
// base -> circuit breaker -> rate limiter -> instrumentation.
func (cfg *clientConfig) buildChain(verifyTLS bool) http.RoundTripper {
	t := cfg.buildBase(verifyTLS)
	t = newBreakerTransport(t, cfg)
	t = newRateLimitTransport(t, cfg.rateLimitCfg)
	return newOtelTransport(t, cfg)
}

// Option configures a Client.
type Option func(*clientConfig)

// WithTransportConfig replaces the default transport parameters.
func WithTransportConfig(tc TransportConfig) Option {
	return func(cfg *clientConfig) {
		cfg.transportCfg = tc
	}
}

// WithServiceName sets an identifier for this client, attached to spans and
// metrics as the "http.client.name" attribute.
func WithServiceName(name string) Option {
	return func(cfg *clientConfig) {
		cfg.serviceName = name
	}
}

// WithTracerProvider sets a custom OpenTelemetry TracerProvider. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *clientConfig) {
		cfg.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OpenTelemetry MeterProvider. The global
// provider is used by default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *clientConfig) {
		cfg.meterProvider = mp
	}
}

// WithBreaker enables a circuit breaker around every request this client
// performs. See BreakerConfig for the trip rules.
func WithBreaker(bc BreakerConfig) Option {
	return func(cfg *clientConfig) {
		cfg.breakerCfg = &bc
	}
}

// WithRateLimit enables client-side rate limiting. See RateLimitConfig.
func WithRateLimit(rc RateLimitConfig) Option {
	return func(cfg *clientConfig) {
		cfg.rateLimitCfg = &rc
	}
}

// WithRequestID injects a generated X-Request-Id header into each call.
// The same id is carried across every redirect hop of a call.
func WithRequestID() Option {
	return func(cfg *clientConfig) {
		cfg.requestID = true
	}
}

// WithDebug enables request/response debug logging.
func WithDebug() Option {
	return func(cfg *clientConfig) {
		cfg.debug = true
	}
}

// WithLogger replaces the default debug logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithGenerateCurl records an equivalent cURL command on each Result,
// available via Result.CurlCommand.
func WithGenerateCurl() Option {
	return func(cfg *clientConfig) {
		cfg.generateCurl = true
	}
}

// WithMockTransport routes all requests through a MockTransport instead of
// the network. Intended for tests.
func WithMockTransport(mock *MockTransport) Option {
	return func(cfg *clientConfig) {
		cfg.mockTransport = mock
	}
}
