package sonar

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
)

// ConnectionError means the server could not be reached, or did not answer
// within the call's timeout.
type ConnectionError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("connection timed out: GET %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("connection error: GET %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code   int
	Reason string
	URL    string
}

func (e *StatusError) Error() string {
	kind := "Client Error"
	if e.Code >= 500 {
		kind = "Server Error"
	}
	return fmt.Sprintf("%d %s: %s for url: %s", e.Code, kind, e.Reason, e.URL)
}

// RequestError covers every other client-side fault: a request that could
// not be built, or a response body that is not JSON.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsConnection reports whether err is (or wraps) a *ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// AsStatus extracts a *StatusError from err.
func AsStatus(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsRequest reports whether err is (or wraps) a *RequestError.
func IsRequest(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// classifyTransportError turns an error from http.Client.Do into one of the
// typed failures.
func classifyTransportError(rawURL string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConnectionError{URL: rawURL, Timeout: true, Err: err}
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return &ConnectionError{URL: rawURL, Timeout: true, Err: ue.Err}
	}

	inner := err
	if ue != nil {
		inner = ue.Err
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	var certErr *tls.CertificateVerificationError
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	switch {
	case errors.As(inner, &opErr),
		errors.As(inner, &dnsErr),
		errors.As(inner, &certErr),
		errors.As(inner, &authErr),
		errors.As(inner, &hostErr),
		errors.Is(inner, io.EOF),
		errors.Is(inner, io.ErrUnexpectedEOF):
		return &ConnectionError{URL: rawURL, Err: inner}
	}
	return &RequestError{Message: "request failed", Err: inner}
}
