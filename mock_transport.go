package gimme

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
)

// MockTransport is a configurable http.RoundTripper for tests. Stubs match
// in registration order (first match wins); unmatched requests fall back to
// the default stub or fail. All recorded requests can be inspected
// afterwards.
type MockTransport struct {
	mu          sync.RWMutex
	stubs       []mockStub
	defaultStub *mockStub
	requests    []*http.Request
}

type mockStub struct {
	matcher func(*http.Request) bool
	status  int
	header  http.Header
	body    string
	err     error
}

// NewMockTransport creates an empty MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// StubResponse makes every unmatched request return the given response.
func (m *MockTransport) StubResponse(status int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultStub = &mockStub{status: status, header: make(http.Header), body: body}
	return m
}

// StubError makes every unmatched request fail with err.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultStub = &mockStub{err: err}
	return m
}

// StubPath stubs requests whose URL path equals path.
func (m *MockTransport) StubPath(path string, status int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.URL.Path == path
	}, status, body)
}

// StubRedirect stubs requests to path with a redirect to location.
func (m *MockTransport) StubRedirect(path string, status int, location string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	header := make(http.Header)
	header.Set("Location", location)
	m.stubs = append(m.stubs, mockStub{
		matcher: func(req *http.Request) bool { return req.URL.Path == path },
		status:  status,
		header:  header,
	})
	return m
}

// StubFunc stubs requests matching the predicate.
func (m *MockTransport) StubFunc(matcher func(*http.Request) bool, status int, body string) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{
		matcher: matcher,
		status:  status,
		header:  make(http.Header),
		body:    body,
	})
	return m
}

// StubFuncError stubs requests matching the predicate to fail with err.
func (m *MockTransport) StubFuncError(matcher func(*http.Request) bool, err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, mockStub{matcher: matcher, err: err})
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.stubs {
		if m.stubs[i].matcher(req) {
			return m.stubs[i].response(req)
		}
	}
	if m.defaultStub != nil {
		return m.defaultStub.response(req)
	}

	return nil, errors.New("no stub found for request: " + req.Method + " " + req.URL.String())
}

func (s *mockStub) response(req *http.Request) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode:    s.status,
		Status:        http.StatusText(s.status),
		Header:        s.header.Clone(),
		Body:          io.NopCloser(bytes.NewBufferString(s.body)),
		ContentLength: int64(len(s.body)),
		Request:       req,
	}, nil
}

// Requests returns a copy of all requests seen by this transport.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*http.Request{}, m.requests...)
}

// RequestCount returns the number of requests seen.
func (m *MockTransport) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil.
func (m *MockTransport) LastRequest() *http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears recorded requests and stubs.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.stubs = nil
	m.defaultStub = nil
}
