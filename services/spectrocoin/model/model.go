// Package model provides data that the spectrocoin callback service operates on.
package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	ErrNoCallbackData         Error = "model: callback carries no data"
	ErrInvalidCallback        Error = "model: invalid callback"
	ErrInvalidSignature       Error = "model: invalid callback signature"
	ErrInvalidOrderReference  Error = "model: invalid order reference"
	ErrOrderNotFound          Error = "model: order not found"
	ErrUpstreamAPI            Error = "model: upstream api error"
	ErrInvalidUpstreamOrder   Error = "model: invalid upstream order"
	ErrUnrecognizedStatus     Error = "model: unrecognized status"
	ErrLedger                 Error = "model: order ledger error"
	ErrMethodNotAllowed       Error = "model: method not allowed"
	ErrSignSecretNotSet       Error = "model: sign secret not set"
	ErrMerchantClientDisabled Error = "model: merchant api client is not configured"
)

// Error represents a kind of failure the pipeline can signal.
type Error string

func (e Error) Error() string {
	return string(e)
}

// FieldError describes a single invalid field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Reason
}

// ValidationError carries the field-level problems found while constructing a value.
//
// It unwraps to its Kind, so errors.Is(err, ErrInvalidCallback) holds for a failed callback.
type ValidationError struct {
	Kind   Error
	Fields []FieldError
}

// NewValidationError returns a ValidationError of the given kind.
func NewValidationError(kind Error, fields ...FieldError) *ValidationError {
	return &ValidationError{Kind: kind, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Kind.Error()
	}

	parts := make([]string, 0, len(e.Fields))
	for i := range e.Fields {
		parts = append(parts, e.Fields[i].String())
	}

	return e.Kind.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// FieldMap returns fields as a map suitable for rendering.
func (e *ValidationError) FieldMap() map[string]string {
	result := make(map[string]string, len(e.Fields))
	for i := range e.Fields {
		result[e.Fields[i].Field] = e.Fields[i].Reason
	}

	return result
}

// Variant identifies the wire format a callback arrived in.
type Variant string

const (
	VariantLegacy Variant = "legacy"
	VariantModern Variant = "modern"
)

// Notification is the single internal representation of a callback once its variant has been resolved.
type Notification struct {
	Variant       Variant
	OrderRef      string
	RawStatus     string
	MerchantAPIID string
	GatewayID     string
}

// OrderReference is a local order id embedded as the prefix of "{orderId}-{suffix}".
type OrderReference struct {
	Raw string
	ID  int64
}

// ParseOrderReference extracts the numeric prefix before the first "-".
//
// A reference without a separator is parsed as a whole. Zero is a valid id no order has.
func ParseOrderReference(raw string) (OrderReference, error) {
	prefix := raw
	if idx := strings.IndexByte(raw, '-'); idx >= 0 {
		prefix = raw[:idx]
	}

	id, err := strconv.ParseInt(strings.TrimSpace(prefix), 10, 64)
	if err != nil || id < 0 {
		return OrderReference{}, NewValidationError(ErrInvalidOrderReference, FieldError{
			Field:  "orderId",
			Reason: "must start with a numeric order id",
		})
	}

	return OrderReference{Raw: raw, ID: id}, nil
}

func (r OrderReference) String() string {
	return strconv.FormatInt(r.ID, 10)
}

// Order is the local order record as seen by the pipeline.
type Order struct {
	ID            int64     `db:"id"`
	StatusID      int       `db:"order_status_id"`
	PaymentMethod string    `db:"payment_method"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// HistoryEvent is a single append-only entry of order history.
type HistoryEvent struct {
	ID        int64       `db:"id"`
	OrderID   int64       `db:"order_id"`
	Code      HistoryCode `db:"order_status_id"`
	Comment   string      `db:"comment"`
	Notify    bool        `db:"notify"`
	CreatedAt time.Time   `db:"created_at"`
}

// NewHistoryEvent returns the event recorded for the status reported by the gateway.
func NewHistoryEvent(orderID int64, code HistoryCode, status Status) HistoryEvent {
	return HistoryEvent{
		OrderID: orderID,
		Code:    code,
		Comment: "SpectroCoin: status " + status.String(),
	}
}

// Outcome is the result of reconciling one notification.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeNoop         Outcome = "noop"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeError        Outcome = "error"
)

// OutcomeFromError classifies err as an outcome of reconciliation.
func OutcomeFromError(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, ErrOrderNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrUnrecognizedStatus):
		return OutcomeUnrecognized
	default:
		return OutcomeError
	}
}

// CallbackLogEntry is an audit record of a processed callback.
type CallbackLogEntry struct {
	ID            string    `db:"id"`
	Variant       Variant   `db:"variant"`
	OrderRef      string    `db:"order_ref"`
	OrderID       int64     `db:"order_id"`
	RawStatus     string    `db:"raw_status"`
	Status        string    `db:"status"`
	Outcome       Outcome   `db:"outcome"`
	GatewayID     string    `db:"gateway_id"`
	MerchantAPIID string    `db:"merchant_api_id"`
	CreatedAt     time.Time `db:"created_at"`
}
