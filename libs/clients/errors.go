package clients

import (
	"errors"

	errorutils "github.com/brave-intl/spectrocoin-callback/libs/errors"
)

var (
	// ErrUnableToDecode unable to decode body
	ErrUnableToDecode = "unable to decode response"
	// ErrProtocolError the error was within the data that went into the endpoint
	ErrProtocolError = "protocol error"
	// ErrUnableToEscapeURL the url could nto be escaped
	ErrUnableToEscapeURL = "unable to escape url"
	// ErrInvalidHost the host was invalid
	ErrInvalidHost = "invalid host"
	// ErrMalformedRequest the request was malformed
	ErrMalformedRequest = "malformed request"
	// ErrUnableToEncodeBody body could not be decoded
	ErrUnableToEncodeBody = "unable to encode body"
	// ErrTransport the request did not complete
	ErrTransport = "transport error"

	errUnexpectedStatus = errors.New("unexpected response status")
)

// HTTPState captures the state of the response to be read by lower fns in the stack
type HTTPState struct {
	Status int
	Path   string
	Body   interface{}
}

// NewHTTPError creates a new errors.ErrorBundle with an HTTPState wrapping the status, path and v.
func NewHTTPError(err error, path, message string, status int, v interface{}) error {
	return errorutils.New(err, message, HTTPState{
		Status: status,
		Path:   path,
		Body:   v,
	})
}

// StatusFromError returns the http status carried by err, if any.
func StatusFromError(err error) (int, bool) {
	var eb *errorutils.ErrorBundle
	if !errors.As(err, &eb) {
		return 0, false
	}

	state, ok := eb.Data().(HTTPState)
	if !ok {
		return 0, false
	}

	return state.Status, true
}
