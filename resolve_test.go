package gimme

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	type args struct {
		opts Options
	}

	tests := []struct {
		name          string
		args          args
		wantErr       *Error
		wantURL       string
		wantMethod    string
		wantFollow    bool
		wantRemaining int
		wantTimeout   time.Duration
	}{
		{
			name:    "given empty url, then fails with URL MISSING",
			args:    args{opts: Options{}},
			wantErr: &Error{Code: "ERR", Msg: "URL MISSING"},
		},
		{
			name:          "given scheme-less url, then http is prepended",
			args:          args{opts: Options{URL: "example.com/path"}},
			wantURL:       "http://example.com/path",
			wantMethod:    http.MethodGet,
			wantFollow:    true,
			wantRemaining: 10,
			wantTimeout:   10 * time.Second,
		},
		{
			name:          "given https url, then scheme is preserved",
			args:          args{opts: Options{URL: "https://example.com"}},
			wantURL:       "https://example.com",
			wantMethod:    http.MethodGet,
			wantFollow:    true,
			wantRemaining: 10,
			wantTimeout:   10 * time.Second,
		},
		{
			name:          "given lowercase method, then it is upper-cased",
			args:          args{opts: Options{URL: "http://example.com", Method: "post"}},
			wantURL:       "http://example.com",
			wantMethod:    http.MethodPost,
			wantFollow:    true,
			wantRemaining: 10,
			wantTimeout:   10 * time.Second,
		},
		{
			name: "given explicit limits, then they override the defaults",
			args: args{opts: Options{
				URL:            "http://example.com",
				FollowRedirect: Bool(false),
				MaxRedirects:   Int(3),
				Timeout:        2 * time.Second,
			}},
			wantURL:       "http://example.com",
			wantMethod:    http.MethodGet,
			wantFollow:    false,
			wantRemaining: 3,
			wantTimeout:   2 * time.Second,
		},
		{
			name: "given negative max redirects, then it is clamped to zero",
			args: args{opts: Options{
				URL:          "http://example.com",
				MaxRedirects: Int(-5),
			}},
			wantURL:       "http://example.com",
			wantMethod:    http.MethodGet,
			wantFollow:    true,
			wantRemaining: 0,
			wantTimeout:   10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := normalize(tt.args.opts)

			if tt.wantErr != nil {
				require.Error(t, err)
				var gerr *Error
				require.ErrorAs(t, err, &gerr)
				assert.Equal(t, tt.wantErr.Code, gerr.Code)
				assert.Equal(t, tt.wantErr.Msg, gerr.Msg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, p.url.String())
			assert.Equal(t, tt.wantMethod, p.method)
			assert.Equal(t, tt.wantFollow, p.follow)
			assert.Equal(t, tt.wantRemaining, p.remaining)
			assert.Equal(t, tt.wantTimeout, p.timeout)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	opts := Options{URL: "example.com", Method: "post", Body: map[string]any{"a": 1}}

	first, err := normalize(opts)
	require.NoError(t, err)
	second, err := normalize(opts)
	require.NoError(t, err)

	assert.Equal(t, first.url.String(), second.url.String())
	assert.Equal(t, first.method, second.method)
	assert.Equal(t, first.payload, second.payload)
	assert.Equal(t, "example.com", opts.URL, "options must not be mutated")
}

func TestResolve_BodyEncoding(t *testing.T) {
	type args struct {
		opts Options
	}

	tests := []struct {
		name            string
		args            args
		wantQuery       string
		wantPayload     string
		wantContentType string
	}{
		{
			name: "given GET with body, then body becomes the query string",
			args: args{opts: Options{
				URL:    "http://example.com/search",
				Body:   map[string]any{"q": "go", "limit": 10},
				Method: "GET",
			}},
			wantQuery: "limit=10&q=go",
		},
		{
			name: "given POST with FORM body, then payload is url-encoded",
			args: args{opts: Options{
				URL:    "http://example.com/login",
				Method: "POST",
				Body:   map[string]any{"user": "ann", "pin": 1234},
			}},
			wantPayload:     "pin=1234&user=ann",
			wantContentType: "application/x-www-form-urlencoded",
		},
		{
			name: "given POST with JSON body, then payload is JSON",
			args: args{opts: Options{
				URL:         "http://example.com/items",
				Method:      "POST",
				ContentType: "json",
				Body:        map[string]any{"name": "x"},
			}},
			wantPayload:     `{"name":"x"}`,
			wantContentType: "application/json",
		},
		{
			name: "given unknown content type, then it behaves as FORM",
			args: args{opts: Options{
				URL:         "http://example.com/login",
				Method:      "POST",
				ContentType: "xml",
				Body:        map[string]any{"a": "b"},
			}},
			wantPayload:     "a=b",
			wantContentType: "application/x-www-form-urlencoded",
		},
		{
			name: "given no body, then no payload is prepared",
			args: args{opts: Options{
				URL:    "http://example.com",
				Method: "POST",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := normalize(tt.args.opts)
			require.NoError(t, err)

			if tt.wantQuery != "" {
				assert.Equal(t, tt.wantQuery, p.url.RawQuery)
				assert.Empty(t, p.payload)
			}
			assert.Equal(t, tt.wantPayload, string(p.payload))
			assert.Equal(t, tt.wantContentType, p.contentType)
		})
	}
}

func TestResolve_GETBodyMergesExistingQuery(t *testing.T) {
	p, err := normalize(Options{
		URL:  "http://example.com/s?page=2",
		Body: map[string]any{"q": "go"},
	})
	require.NoError(t, err)

	values, err := url.ParseQuery(p.url.RawQuery)
	require.NoError(t, err)
	assert.Equal(t, "2", values.Get("page"))
	assert.Equal(t, "go", values.Get("q"))
}

func TestPlan_Port(t *testing.T) {
	type args struct {
		rawURL string
	}

	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "given http url, then port defaults to 80",
			args: args{rawURL: "http://example.com"},
			want: 80,
		},
		{
			name: "given https url, then port defaults to 443",
			args: args{rawURL: "https://example.com"},
			want: 443,
		},
		{
			name: "given scheme-less url, then port resolves to 80",
			args: args{rawURL: "example.com"},
			want: 80,
		},
		{
			name: "given explicit port, then it wins",
			args: args{rawURL: "http://example.com:8080"},
			want: 8080,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := normalize(Options{URL: tt.args.rawURL})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.port())
		})
	}
}

func TestPlan_BuildRequest(t *testing.T) {
	p, err := normalize(Options{
		URL:     "http://example.com/items",
		Method:  "post",
		Body:    map[string]any{"name": "x"},
		Headers: map[string]string{"Authorization": "Bearer token"},
	})
	require.NoError(t, err)

	req, err := p.buildRequest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "Bearer token", req.Header.Get("Authorization"))
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	assert.Equal(t, defaultUserAgent, req.Header.Get("User-Agent"))
	assert.Equal(t, int64(len(p.payload)), req.ContentLength)

	// Mutating one attempt's headers must not leak into the next.
	req.Header.Set("X-Hop", "1")
	next, err := p.buildRequest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, next.Header.Get("X-Hop"))
}

func TestPlan_RedirectTo(t *testing.T) {
	type args struct {
		start    string
		location string
	}

	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "given absolute location, then it replaces the target",
			args: args{start: "http://a.example/one", location: "https://b.example/two"},
			want: "https://b.example/two",
		},
		{
			name: "given relative location, then it resolves against the current host",
			args: args{start: "http://a.example/one/two", location: "/three"},
			want: "http://a.example/three",
		},
		{
			name: "given relative location with query, then the query is kept",
			args: args{start: "http://a.example/one", location: "/two?x=1"},
			want: "http://a.example/two?x=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := normalize(Options{URL: tt.args.start})
			require.NoError(t, err)
			before := p.remaining

			require.NoError(t, p.redirectTo(tt.args.location))

			assert.Equal(t, tt.want, p.url.String())
			assert.Equal(t, before-1, p.remaining)
		})
	}
}
