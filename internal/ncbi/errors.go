package ncbi

import (
	"errors"
	"fmt"
)

// ProtocolError reports a response that lacks a field the caller needs,
// such as the Count element of an ESearch reply.
type ProtocolError struct {
	Endpoint string
	Field    string
	Query    string
}

func (e *ProtocolError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("%s: response has no %s field for query %q", e.Endpoint, e.Field, e.Query)
	}
	return fmt.Sprintf("%s: response has no %s field", e.Endpoint, e.Field)
}

// TransportError reports a failed exchange: the connection broke, the
// server answered with a non-200 status, or the body was unreadable.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s returned HTTP %d: %v", e.Endpoint, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError reports a single malformed input value.
type FormatError struct {
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed identifier %q: %s", e.Value, e.Reason)
}

// IsProtocol reports whether err wraps a *ProtocolError.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsTransport reports whether err wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
