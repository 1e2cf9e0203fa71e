package gimme

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	mock := NewMockTransport().StubResponse(http.StatusOK, "ok")
	client := New(
		WithMockTransport(mock),
		WithDebug(),
		WithLogger(logger),
	)

	_, err := client.Do(context.Background(), Options{URL: "http://svc.internal/ping"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "gimme request")
	assert.Contains(t, out, "gimme response")
	assert.Contains(t, out, `"url":"http://svc.internal/ping"`)
	assert.Contains(t, out, `"status":200`)
}

func TestClient_Do_NoLoggingWithoutDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	mock := NewMockTransport().StubResponse(http.StatusOK, "ok")
	client := New(WithMockTransport(mock), WithLogger(logger))

	_, err := client.Do(context.Background(), Options{URL: "http://svc.internal/ping"})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestGenerateCurlCommand(t *testing.T) {
	type args struct {
		method  string
		url     string
		headers map[string]string
		payload string
	}

	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "given a bare GET, then only the url appears",
			args: args{method: http.MethodGet, url: "http://example.com/a"},
			want: "curl 'http://example.com/a'",
		},
		{
			name: "given a POST with payload, then method and data appear",
			args: args{
				method:  http.MethodPost,
				url:     "http://example.com/a",
				payload: "user=ann",
			},
			want: "curl -X POST 'http://example.com/a' -d 'user=ann'",
		},
		{
			name: "given headers, then they appear sorted",
			args: args{
				method: http.MethodGet,
				url:    "http://example.com/a",
				headers: map[string]string{
					"B-Header": "2",
					"A-Header": "1",
				},
			},
			want: "curl 'http://example.com/a' -H 'A-Header: 1' -H 'B-Header: 2'",
		},
		{
			name: "given a payload with quotes, then they are escaped",
			args: args{
				method:  http.MethodPost,
				url:     "http://example.com/a",
				payload: "it's",
			},
			want: `curl -X POST 'http://example.com/a' -d 'it'\''s'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.args.method, tt.args.url, strings.NewReader(tt.args.payload))
			require.NoError(t, err)
			req.Header = make(http.Header)
			for k, v := range tt.args.headers {
				req.Header.Set(k, v)
			}

			got := generateCurlCommand(req, []byte(tt.args.payload))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestTracer_ToTraceInfo(t *testing.T) {
	tracer := &requestTracer{}
	info := tracer.toTraceInfo()

	assert.Equal(t, "0s", info.DNSLookup)
	assert.Equal(t, "0s", info.ConnTime)
	assert.Empty(t, info.TLSHandshake)
	assert.Equal(t, "0s", info.ServerTime)
	assert.Equal(t, "0s", info.TotalTime)
	assert.Contains(t, info.String(), "DNS Lookup")
}

func TestTraceInfo_NilString(t *testing.T) {
	var info *TraceInfo
	assert.Contains(t, info.String(), "EnableTrace was not set")
}
