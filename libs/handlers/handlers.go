package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/brave-intl/spectrocoin-callback/libs/requestutils"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

// AppError is error type for json HTTP responses
type AppError struct {
	Cause     error       `json:"-"`
	Message   string      `json:"message"`             // description of failure
	ErrorCode string      `json:"errorCode,omitempty"` // short error code string
	Code      int         `json:"code"`                // status code for some reason
	Data      interface{} `json:"data,omitempty"`      // application specific data
}

// Error makes app error an error
func (e *AppError) Error() string {
	msg := "error: " + e.Message
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap exposes the cause to errors.Is
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ServeHTTP responds according to the passed AppError
func (e *AppError) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(e.Code)
	if err := json.NewEncoder(w).Encode(e); err != nil {
		panic(err)
	}
}

// WrapError with an additional message as an AppError
func WrapError(err error, msg string, passedCode int) *AppError {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		code := passedCode
		if code == 0 {
			code = http.StatusBadRequest
		}
		return &AppError{
			Cause:   err,
			Message: msg,
			Code:    code,
		}
	}
	code := appErr.Code
	if code == 0 {
		code = passedCode
	}
	if len(msg) != 0 {
		msg = fmt.Sprintf("%s: ", msg)
	}
	return &AppError{
		Cause:   appErr.Cause,
		Message: fmt.Sprintf("%s%s", msg, appErr.Message),
		Code:    code,
		Data:    appErr.Data,
	}
}

// RenderContent writes v as json with status
func RenderContent(ctx context.Context, v interface{}, w http.ResponseWriter, status int) *AppError {
	b, err := json.Marshal(v)
	if err != nil {
		return WrapError(err, "Error encoding JSON", http.StatusInternalServerError)
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		return WrapError(err, "Error writing a response", http.StatusInternalServerError)
	}

	return nil
}

// AppHandler is an http.Handler with JSON requests / responses
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// ServeHTTP responds via the passed handler and handles returned errors
func (fn AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e := fn(w, r); e != nil {
		report(r, e)

		if e.Cause != nil {
			// Combine error with message
			e.Message = fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}

		e.ServeHTTP(w, r)
	}
}

// StatusHandler is an http.Handler for callers that only act on the status code,
// such as payment gateways delivering callbacks. Errors are logged and reported
// but only their status code is written, the body stays empty.
type StatusHandler func(http.ResponseWriter, *http.Request) *AppError

// ServeHTTP responds via the passed handler and writes the bare status of returned errors
func (fn StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e := fn(w, r); e != nil {
		report(r, e)

		w.WriteHeader(e.Code)
	}
}

func report(r *http.Request, e *AppError) {
	if e.Code >= 500 && e.Code <= 599 {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTags(map[string]string{
				"reqID": requestutils.GetRequestID(r.Context()),
			})
			sentry.CaptureException(e)
		})
	}

	l := zerolog.Ctx(r.Context())
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Err(e)
	})
}
