package gimme

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/google/uuid"
)

// Client performs requests with a fixed configuration: transport settings,
// instrumentation, optional circuit breaker and rate limiter, and debug
// logging. A Client is safe for concurrent use; each call owns its own
// attempt state.
type Client struct {
	// verified is the transport chain with TLS verification on.
	verified *http.Client

	// insecure is the same chain with verification disabled, used when a
	// call sets RejectUnauthorized to false.
	insecure *http.Client

	cfg *clientConfig
}

// New creates a Client from the given options.
func New(opts ...Option) *Client {
	cfg := newClientConfig(opts...)

	// Redirects are followed by the executor loop, never by net/http.
	noFollow := func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		verified: &http.Client{
			Transport:     cfg.buildChain(true),
			CheckRedirect: noFollow,
		},
		insecure: &http.Client{
			Transport:     cfg.buildChain(false),
			CheckRedirect: noFollow,
		},
		cfg: cfg,
	}
}

// defaultClient backs the package-level Request function.
var defaultClient = New()

// Request performs a single request with the default client and returns the
// final status, headers, and buffered body. It is the package's sole entry
// point for callers that need no client configuration.
//
// Failures are returned as *Error values; see the package documentation for
// the error model.
func Request(ctx context.Context, opts Options) (*Result, error) {
	return defaultClient.Do(ctx, opts)
}

// Do executes one logical request: normalize, resolve, perform, follow
// redirects up to the configured bound, and collect the final body.
//
// The redirect loop is strictly sequential. Each hop drains and closes the
// prior response before the next attempt starts, so at most one network
// call is in flight per invocation. The timeout covers the whole loop.
func (c *Client) Do(ctx context.Context, opts Options) (*Result, error) {
	p, err := normalize(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if c.cfg.requestID && p.headers.Get("X-Request-Id") == "" {
		p.headers.Set("X-Request-Id", uuid.NewString())
	}

	var tracer *requestTracer
	if p.enableTrace {
		tracer = &requestTracer{totalStart: time.Now()}
		ctx = httptrace.WithClientTrace(ctx, tracer.clientTrace())
	}

	hc := c.verified
	if !p.verifyTLS {
		hc = c.insecure
	}

	for {
		req, err := p.buildRequest(ctx)
		if err != nil {
			return nil, err
		}

		if c.cfg.debug {
			logRequest(c.cfg.logger, req)
		}

		start := time.Now()
		resp, err := hc.Do(req)
		if err != nil {
			return nil, c.attemptError(ctx, err)
		}

		if c.cfg.debug {
			logResponse(c.cfg.logger, resp, time.Since(start))
		}

		if loc := resp.Header.Get("Location"); isRedirect(resp.StatusCode) &&
			loc != "" && p.follow && p.remaining > 0 {
			drain(resp)
			if err := p.redirectTo(loc); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 500 {
			drain(resp)
			return nil, &Error{Code: CodeErr, Msg: fmt.Sprintf("SERVER ERROR: %d", resp.StatusCode)}
		}
		if resp.StatusCode >= 400 {
			drain(resp)
			return nil, &Error{Code: CodeErr, Msg: fmt.Sprintf("CLIENT ERROR: %d", resp.StatusCode)}
		}

		// A 3xx that was not followed (redirects disabled, budget spent,
		// or no Location) is returned verbatim.
		res, err := c.collect(ctx, resp)
		if err != nil {
			return nil, err
		}

		if c.cfg.generateCurl {
			res.curl = generateCurlCommand(req, p.payload)
		}
		if tracer != nil {
			res.trace = tracer.toTraceInfo()
		}
		return res, nil
	}
}

// attemptError converts a transport-level failure into a structured *Error.
// A fired timeout takes precedence over whatever the aborted attempt
// reported.
func (c *Client) attemptError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCircuitOpen) {
		return err
	}
	return classifyTransport(err)
}

// collect buffers the response body in arrival order and packages the
// final result.
func (c *Client) collect(ctx context.Context, resp *http.Response) (*Result, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.attemptError(ctx, err)
	}

	return &Result{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   string(body),
	}, nil
}

// isRedirect reports whether status is in the 3xx range.
func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

// drain consumes and closes a response body so the attempt fully
// terminates before the next one starts.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
