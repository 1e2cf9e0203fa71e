package gimme

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"
)

// CodeErr is the generic symbolic code used for input errors, HTTP-level
// failures (4xx/5xx), timeouts, and transport failures that cannot be
// mapped to a more specific code.
const CodeErr = "ERR"

// Error is the structured failure returned by Request and Client.Do.
//
// Code is a short symbolic reason: "ERR" for input, status, and timeout
// failures, or an errno-style code (ECONNREFUSED, ENOTFOUND, ...) for
// connection-level failures. Msg carries the human-readable detail, e.g.
// "CLIENT ERROR: 404" or the failing network operation name.
type Error struct {
	Code string
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Code + ": " + e.Msg
}

// errURLMissing is returned before any network activity when Options.URL
// is empty.
var errURLMissing = &Error{Code: CodeErr, Msg: "URL MISSING"}

// errTimeout is returned when the configured timeout fires before the
// response completes. The in-flight request is aborted first.
var errTimeout = &Error{Code: CodeErr, Msg: "timeout"}

// classifyTransport maps a connection-level failure to a structured *Error.
//
// The code mirrors the platform errno name where one can be recovered from
// the wrapped error chain; the message is the failing network operation
// (dial, read, write) when known. Deadline expiry always maps to the
// timeout error, regardless of how the transport reported it.
func classifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return errTimeout
	}

	code := errnoCode(err)

	msg := err.Error()
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op != "" {
		msg = opErr.Op
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if code == CodeErr {
			code = "ENOTFOUND"
		}
		msg = "getaddrinfo " + dnsErr.Name
	}

	return &Error{Code: code, Msg: msg}
}

// errnoCode recovers an errno-style symbolic code from the error chain.
func errnoCode(err error) string {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return "ECONNREFUSED"
	case errors.Is(err, syscall.ECONNRESET):
		return "ECONNRESET"
	case errors.Is(err, syscall.ECONNABORTED):
		return "ECONNABORTED"
	case errors.Is(err, syscall.ETIMEDOUT):
		return "ETIMEDOUT"
	case errors.Is(err, syscall.ENETUNREACH):
		return "ENETUNREACH"
	case errors.Is(err, syscall.EHOSTUNREACH):
		return "EHOSTUNREACH"
	case errors.Is(err, syscall.EPIPE):
		return "EPIPE"
	case errors.Is(err, syscall.EACCES):
		return "EACCES"
	}

	// Fallback for wrapped errors that lose the syscall chain.
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "connection refused"):
		return "ECONNREFUSED"
	case strings.Contains(errStr, "connection reset"):
		return "ECONNRESET"
	case strings.Contains(errStr, "no such host"):
		return "ENOTFOUND"
	case strings.Contains(errStr, "i/o timeout"):
		return "ETIMEDOUT"
	case strings.Contains(errStr, "broken pipe"):
		return "EPIPE"
	}
	return CodeErr
}

// isNetworkError reports whether err is a connection-level failure, as
// opposed to an HTTP-level or input failure. Used by the circuit breaker
// classifier.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT)
}
