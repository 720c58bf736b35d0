package httpx

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

// StatusCode extracts the upstream status code from err, or 0.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

// DecodeError reports a response body that could not be parsed. Decode
// failures are never retried: the origin answered, just not usefully.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err is worth another attempt: upstream status
// errors, connect failures, DNS failures and timeouts. Decode failures and
// anything else fail immediately.
func Retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
