package transport

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrTokenIssuance marks a failed anti-forgery token fetch. It never reaches
// callers of Request: issuance failures are logged and requests proceed
// without the header, which the backend is free to reject.
var ErrTokenIssuance = errors.New("transport: csrf token issuance failed")

// RequestError is the single error kind surfaced for failed requests:
// non-2xx responses, network failures wrapped during the round trip, and
// unparsable bodies on nominally successful responses.
type RequestError struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	// Message is human-readable: the backend's JSON "message" field when
	// present, otherwise a generic status-coded fallback.
	Message string

	cause error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.cause
}

// AsRequestError unwraps err into a *RequestError if it carries one.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

// newStatusError builds the error for a non-2xx response, preferring the
// backend's own message over the generic fallback.
func newStatusError(status int, body []byte) *RequestError {
	message := fmt.Sprintf("Request failed with status %d", status)
	if m := gjson.GetBytes(body, "message"); m.Type == gjson.String && m.Str != "" {
		message = m.Str
	}
	return &RequestError{Status: status, Message: message}
}
