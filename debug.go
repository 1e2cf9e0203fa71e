package gimme

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// logRequest logs an outgoing attempt.
func logRequest(logger zerolog.Logger, req *http.Request) {
	logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("host", req.URL.Host).
		Msg("gimme request")
}

// logResponse logs the headers of a received response.
func logResponse(logger zerolog.Logger, resp *http.Response, duration time.Duration) {
	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration_ms", duration).
		Int64("content_length", resp.ContentLength).
		Msg("gimme response")
}

// generateCurlCommand builds a cURL command reproducing the request.
// Headers are sorted for stable output.
func generateCurlCommand(req *http.Request, payload []byte) string {
	parts := []string{"curl"}

	if req.Method != http.MethodGet {
		parts = append(parts, "-X", req.Method)
	}

	parts = append(parts, fmt.Sprintf("'%s'", req.URL.String()))

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range req.Header[k] {
			parts = append(parts, "-H", fmt.Sprintf("'%s: %s'", k, v))
		}
	}

	if len(payload) > 0 {
		escaped := strings.ReplaceAll(string(payload), "'", "'\\''")
		parts = append(parts, "-d", fmt.Sprintf("'%s'", escaped))
	}

	return strings.Join(parts, " ")
}

// TraceInfo contains network timing for a call, collected when
// Options.EnableTrace is set. Durations are human-readable strings; phases
// that did not occur (cached DNS, plain HTTP) are "0s" or empty.
type TraceInfo struct {
	// DNSLookup is the name resolution duration.
	DNSLookup string

	// ConnTime is the TCP connection establishment duration.
	ConnTime string

	// TLSHandshake is the TLS handshake duration; empty for plain HTTP.
	TLSHandshake string

	// ServerTime is the time from request written to first response byte.
	ServerTime string

	// TotalTime spans the whole call, redirect hops included.
	TotalTime string
}

// String returns the trace formatted one phase per line.
func (t *TraceInfo) String() string {
	if t == nil {
		return "TraceInfo: nil (EnableTrace was not set)"
	}
	return fmt.Sprintf(
		"DNS Lookup:    %s\nTCP Connect:   %s\nTLS Handshake: %s\nServer Time:   %s\nTotal Time:    %s",
		t.DNSLookup, t.ConnTime, t.TLSHandshake, t.ServerTime, t.TotalTime,
	)
}

// requestTracer records timestamps from httptrace callbacks. When a call
// spans several redirect hops the per-phase timings reflect the last hop;
// TotalTime always spans the whole call.
type requestTracer struct {
	dnsStart   time.Time
	dnsEnd     time.Time
	connStart  time.Time
	connEnd    time.Time
	tlsStart   time.Time
	tlsEnd     time.Time
	reqStart   time.Time
	firstByte  time.Time
	totalStart time.Time
}

func (t *requestTracer) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(_ httptrace.DNSStartInfo) {
			t.dnsStart = time.Now()
		},
		DNSDone: func(_ httptrace.DNSDoneInfo) {
			t.dnsEnd = time.Now()
		},
		ConnectStart: func(_, _ string) {
			t.connStart = time.Now()
		},
		ConnectDone: func(_, _ string, _ error) {
			t.connEnd = time.Now()
		},
		TLSHandshakeStart: func() {
			t.tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, _ error) {
			t.tlsEnd = time.Now()
		},
		WroteRequest: func(_ httptrace.WroteRequestInfo) {
			t.reqStart = time.Now()
		},
		GotFirstResponseByte: func() {
			t.firstByte = time.Now()
		},
	}
}

func (t *requestTracer) toTraceInfo() *TraceInfo {
	info := &TraceInfo{
		DNSLookup:  "0s",
		ConnTime:   "0s",
		ServerTime: "0s",
		TotalTime:  "0s",
	}

	if !t.dnsStart.IsZero() && !t.dnsEnd.IsZero() {
		info.DNSLookup = t.dnsEnd.Sub(t.dnsStart).String()
	}
	if !t.connStart.IsZero() && !t.connEnd.IsZero() {
		info.ConnTime = t.connEnd.Sub(t.connStart).String()
	}
	if !t.tlsStart.IsZero() && !t.tlsEnd.IsZero() {
		info.TLSHandshake = t.tlsEnd.Sub(t.tlsStart).String()
	}
	if !t.reqStart.IsZero() && !t.firstByte.IsZero() {
		info.ServerTime = t.firstByte.Sub(t.reqStart).String()
	}
	if !t.totalStart.IsZero() {
		info.TotalTime = time.Since(t.totalStart).String()
	}

	return info
}
