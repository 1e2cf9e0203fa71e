package gimme

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// Result is the outcome of a completed request: the final status code,
// response headers, and the fully buffered body. A Result never corresponds
// to a followed redirect or a 4xx/5xx response; those surface as errors.
type Result struct {
	// Status is the final HTTP status code.
	Status int

	// Header holds the final response headers.
	Header http.Header

	// Body is the response payload, chunks concatenated in arrival order.
	Body string

	curl  string
	trace *TraceInfo
}

// HeaderJSON returns the response headers serialized as a JSON object of
// header name to value list.
func (r *Result) HeaderJSON() (string, error) {
	data, err := json.Marshal(r.Header)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode unmarshals the body as JSON into target.
func (r *Result) Decode(target any) error {
	return json.Unmarshal([]byte(r.Body), target)
}

// CurlCommand returns the cURL equivalent of the final request. Only
// populated when the client was built with WithGenerateCurl.
func (r *Result) CurlCommand() string {
	return r.curl
}

// TraceInfo returns timing information for the call. Only populated when
// Options.EnableTrace was set.
func (r *Result) TraceInfo() *TraceInfo {
	return r.trace
}
