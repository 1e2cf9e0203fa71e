package gimme

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Version is the library version, reported in the default User-Agent.
const Version = "1.0.0"

const defaultUserAgent = "gimme/" + Version

// plan is the resolved, per-call description of a request: parsed target,
// upper-cased method, encoded payload, and the redirect/timeout budget.
// A plan is built once by normalize and only its url and remaining counter
// change as redirects are followed.
type plan struct {
	url         *url.URL
	method      string
	headers     http.Header
	payload     []byte
	contentType string
	follow      bool
	remaining   int
	timeout     time.Duration
	verifyTLS   bool
	enableTrace bool
}

// resolve parses the normalized URL and encodes the body.
//
// GET bodies are merged into the query string and no payload is sent.
// Other methods get a payload encoded per the declared content type:
// URL-encoded form data for FORM, JSON for JSON.
func (p *plan) resolve(rawURL string, body map[string]any, contentType string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &Error{Code: CodeErr, Msg: err.Error()}
	}
	p.url = u

	if len(body) == 0 {
		return nil
	}

	if p.method == http.MethodGet {
		q := u.Query()
		for k, v := range body {
			q.Set(k, fmt.Sprint(v))
		}
		u.RawQuery = q.Encode()
		return nil
	}

	switch contentType {
	case ContentTypeJSON:
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Code: CodeErr, Msg: err.Error()}
		}
		p.payload = data
		p.contentType = "application/json"
	default:
		form := make(url.Values, len(body))
		for k, v := range body {
			form.Set(k, fmt.Sprint(v))
		}
		p.payload = []byte(form.Encode())
		p.contentType = "application/x-www-form-urlencoded"
	}

	return nil
}

// port returns the effective port of the current target: the explicit port
// when present, otherwise the scheme default (80 for http, 443 for https).
func (p *plan) port() int {
	if port := p.url.Port(); port != "" {
		n, _ := strconv.Atoi(port)
		return n
	}
	if p.url.Scheme == "https" {
		return 443
	}
	return 80
}

// buildRequest materializes the plan into an *http.Request for one attempt.
// Headers are cloned per attempt so hops never alias each other's header map.
func (p *plan) buildRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(p.payload) > 0 {
		body = bytes.NewReader(p.payload)
	}

	req, err := http.NewRequestWithContext(ctx, p.method, p.url.String(), body)
	if err != nil {
		return nil, &Error{Code: CodeErr, Msg: err.Error()}
	}

	req.Header = p.headers.Clone()
	if p.contentType != "" {
		req.Header.Set("Content-Type", p.contentType)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaultUserAgent)
	}

	return req, nil
}

// redirectTo advances the plan to the location of a followed redirect and
// consumes one unit of the redirect budget. Absolute locations replace the
// target wholesale; relative locations are resolved against the current URL.
func (p *plan) redirectTo(location string) error {
	next, err := p.url.Parse(location)
	if err != nil {
		return &Error{Code: CodeErr, Msg: err.Error()}
	}
	p.url = next
	p.remaining--
	return nil
}
