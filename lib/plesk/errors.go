package plesk

import (
	"errors"
	"fmt"
)

var errMalformedResponse = errors.New("response body is not a packet")

// StatusError is a sanitized, user-presentable error with an HTTP-style
// status code. Operators return it instead of raw remote error text
// unless verbose errors were requested.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// ProtocolError is a structured error returned by the remote API itself,
// carrying the raw remote error text. Only surfaced to callers that asked
// for verbose errors.
type ProtocolError struct {
	ErrText string
	ErrCode int
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("remote api error %d: %s", e.ErrCode, e.ErrText)
}

// TransportError wraps network failures, timeouts and malformed response
// bodies. Always a distinct class from ProtocolError so callers never
// mistake "unreachable" for "rejected".
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// AuthenticationError means the remote host rejected the supplied
// credentials.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}
