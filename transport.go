package gimme

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ http.RoundTripper = (*otelTransport)(nil)

// otelTransport instruments each attempt with a client span and request
// metrics. Redirect hops produce one span each; the spans of a call share
// the caller's trace context.
type otelTransport struct {
	base http.RoundTripper
	cfg  *clientConfig
}

func newOtelTransport(base http.RoundTripper, cfg *clientConfig) http.RoundTripper {
	return &otelTransport{base: base, cfg: cfg}
}

// RoundTrip implements http.RoundTripper.
func (t *otelTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	ctx, span := t.cfg.tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.requestAttributes(req)...),
	)
	defer span.End()

	baseAttrs := t.baseAttributes()
	t.cfg.metrics.recordActiveStart(ctx, baseAttrs)
	defer t.cfg.metrics.recordActiveEnd(ctx, baseAttrs)

	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.cfg.metrics.recordError(ctx, errnoCode(err), baseAttrs)
		t.cfg.metrics.recordDuration(ctx, duration, baseAttrs)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	attrs := append(baseAttrs,
		attribute.String("http.request.method", req.Method),
		attribute.Int("http.response.status_code", resp.StatusCode),
	)
	t.cfg.metrics.recordDuration(ctx, duration, attrs)

	return resp, nil
}

func (t *otelTransport) baseAttributes() []attribute.KeyValue {
	if t.cfg.serviceName == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String("http.client.name", t.cfg.serviceName)}
}

func (t *otelTransport) requestAttributes(req *http.Request) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs, t.baseAttributes()...)
	attrs = append(attrs, attribute.String("http.request.method", req.Method))

	if req.URL != nil {
		attrs = append(attrs,
			attribute.String("url.full", req.URL.String()),
			attribute.String("url.scheme", req.URL.Scheme),
		)
		if host := req.URL.Hostname(); host != "" {
			attrs = append(attrs, attribute.String("server.address", host))
		}
		if port := req.URL.Port(); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				attrs = append(attrs, attribute.Int("server.port", p))
			}
		} else if req.URL.Scheme == "https" {
			attrs = append(attrs, attribute.Int("server.port", 443))
		} else {
			attrs = append(attrs, attribute.Int("server.port", 80))
		}
	}

	return attrs
}
