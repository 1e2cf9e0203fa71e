package gimme

import (
	"net/http"
	"strings"
	"time"
)

// Content type enum values for Options.ContentType. Matching is
// case-insensitive and any unrecognized value behaves as ContentTypeForm.
const (
	ContentTypeForm = "FORM"
	ContentTypeJSON = "JSON"
)

const (
	defaultMethod       = http.MethodGet
	defaultMaxRedirects = 10
	defaultTimeout      = 10 * time.Second
)

// Options describes a single request. Only URL is required; every other
// field has a default applied during normalization.
//
// FollowRedirect, MaxRedirects, and RejectUnauthorized are pointers so the
// zero value of Options keeps their defaults (true, 10, and true). Use the
// Bool and Int helpers to set them in a literal:
//
//	gimme.Options{
//	    URL:          "example.com/login",
//	    MaxRedirects: gimme.Int(2),
//	}
type Options struct {
	// URL is the request target. A missing scheme defaults to http://.
	// Empty is a fatal input error: code "ERR", message "URL MISSING".
	URL string

	// Method is the HTTP method, upper-cased during normalization.
	// Default: GET.
	Method string

	// Body is a flat mapping of keys to scalar values. For GET requests it
	// is encoded into the query string; for other methods it becomes the
	// request payload, encoded per ContentType. Nil or empty means no body.
	Body map[string]any

	// ContentType selects the payload encoding for non-GET bodies:
	// ContentTypeJSON or ContentTypeForm. Default: ContentTypeForm.
	ContentType string

	// Headers are additional request headers. Default: none.
	Headers map[string]string

	// FollowRedirect controls whether 3xx responses with a Location header
	// are followed. Default: true.
	FollowRedirect *bool

	// MaxRedirects bounds the number of followed redirects; it is
	// decremented on each hop and never goes negative. Default: 10.
	MaxRedirects *int

	// Timeout bounds the entire call, including every redirect hop and
	// body collection. Default: 10s.
	Timeout time.Duration

	// RejectUnauthorized toggles TLS certificate verification.
	// Default: true (verify).
	RejectUnauthorized *bool

	// EnableTrace collects network timing information for this call,
	// available afterwards via Result.TraceInfo.
	EnableTrace bool
}

// Bool returns a pointer to v, for use in Options literals.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v, for use in Options literals.
func Int(v int) *int { return &v }

// normalize validates opts and resolves it into an immutable per-call plan.
// It is pure: opts is never mutated, and normalizing twice yields the same
// plan.
func normalize(opts Options) (*plan, error) {
	if opts.URL == "" {
		return nil, errURLMissing
	}

	rawURL := opts.URL
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "http://" + rawURL
	}

	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = defaultMethod
	}

	contentType := strings.ToUpper(opts.ContentType)
	if contentType != ContentTypeJSON {
		contentType = ContentTypeForm
	}

	headers := make(http.Header, len(opts.Headers))
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	follow := true
	if opts.FollowRedirect != nil {
		follow = *opts.FollowRedirect
	}

	remaining := defaultMaxRedirects
	if opts.MaxRedirects != nil {
		remaining = *opts.MaxRedirects
	}
	if remaining < 0 {
		remaining = 0
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	verify := true
	if opts.RejectUnauthorized != nil {
		verify = *opts.RejectUnauthorized
	}

	p := &plan{
		method:      method,
		headers:     headers,
		follow:      follow,
		remaining:   remaining,
		timeout:     timeout,
		verifyTLS:   verify,
		enableTrace: opts.EnableTrace,
	}

	if err := p.resolve(rawURL, opts.Body, contentType); err != nil {
		return nil, err
	}

	return p, nil
}
