// Package callback turns raw SpectroCoin webhook bodies into validated callbacks.
package callback

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
)

// Callback is a validated webhook payload of one of the two wire formats.
type Callback interface {
	Variant() model.Variant
	isCallback()
}

// legacyKeys lists the form keys of a legacy callback in their signing order, sign excluded.
var legacyKeys = []string{
	"merchantId",
	"apiId",
	"userId",
	"merchantApiId",
	"orderId",
	"payCurrency",
	"payAmount",
	"receiveCurrency",
	"receiveAmount",
	"receivedAmount",
	"description",
	"orderRequestId",
	"status",
}

const signKey = "sign"

type legacyFields struct {
	MerchantID      string `form:"merchantId"`
	APIID           string `form:"apiId"`
	UserID          string `form:"userId"`
	MerchantAPIID   string `form:"merchantApiId"`
	OrderID         string `form:"orderId" validate:"required"`
	PayCurrency     string `form:"payCurrency" validate:"omitempty,max=8"`
	PayAmount       string `form:"payAmount" validate:"omitempty,amount"`
	ReceiveCurrency string `form:"receiveCurrency" validate:"omitempty,max=8"`
	ReceiveAmount   string `form:"receiveAmount" validate:"omitempty,amount"`
	ReceivedAmount  string `form:"receivedAmount" validate:"omitempty,amount"`
	Description     string `form:"description"`
	OrderRequestID  string `form:"orderRequestId" validate:"omitempty,posint"`
	Status          string `form:"status" validate:"required"`
	Sign            string `form:"sign" validate:"required"`
}

// LegacyCallback is the signed form-encoded callback sent by old merchant projects.
type LegacyCallback struct {
	fields legacyFields
}

func (c *LegacyCallback) Variant() model.Variant { return model.VariantLegacy }

func (c *LegacyCallback) isCallback() {}

func (c *LegacyCallback) MerchantID() string      { return c.fields.MerchantID }
func (c *LegacyCallback) APIID() string           { return c.fields.APIID }
func (c *LegacyCallback) UserID() string          { return c.fields.UserID }
func (c *LegacyCallback) MerchantAPIID() string   { return c.fields.MerchantAPIID }
func (c *LegacyCallback) OrderID() string         { return c.fields.OrderID }
func (c *LegacyCallback) PayCurrency() string     { return c.fields.PayCurrency }
func (c *LegacyCallback) ReceiveCurrency() string { return c.fields.ReceiveCurrency }
func (c *LegacyCallback) Description() string     { return c.fields.Description }
func (c *LegacyCallback) OrderRequestID() string  { return c.fields.OrderRequestID }
func (c *LegacyCallback) Status() string          { return c.fields.Status }
func (c *LegacyCallback) Sign() string            { return c.fields.Sign }

func (c *LegacyCallback) PayAmount() decimal.Decimal      { return amountOrZero(c.fields.PayAmount) }
func (c *LegacyCallback) ReceiveAmount() decimal.Decimal  { return amountOrZero(c.fields.ReceiveAmount) }
func (c *LegacyCallback) ReceivedAmount() decimal.Decimal { return amountOrZero(c.fields.ReceivedAmount) }

// Notification returns the canonical representation of c.
func (c *LegacyCallback) Notification() model.Notification {
	return model.Notification{
		Variant:       model.VariantLegacy,
		OrderRef:      c.fields.OrderID,
		RawStatus:     c.fields.Status,
		MerchantAPIID: c.fields.MerchantAPIID,
	}
}

// NewLegacyCallback validates data and authenticates it with v.
//
// Keys outside of the legacy key set are ignored.
func NewLegacyCallback(data map[string]string, v *Verifier) (*LegacyCallback, error) {
	get := func(key string) string { return Sanitize(data[key]) }

	fields := legacyFields{
		MerchantID:      get("merchantId"),
		APIID:           get("apiId"),
		UserID:          get("userId"),
		MerchantAPIID:   get("merchantApiId"),
		OrderID:         get("orderId"),
		PayCurrency:     get("payCurrency"),
		PayAmount:       get("payAmount"),
		ReceiveCurrency: get("receiveCurrency"),
		ReceiveAmount:   get("receiveAmount"),
		ReceivedAmount:  get("receivedAmount"),
		Description:     get("description"),
		OrderRequestID:  get("orderRequestId"),
		Status:          get("status"),
		// The signature is compared as sent.
		Sign: strings.TrimSpace(data[signKey]),
	}

	if err := validate.Struct(fields); err != nil {
		return nil, toValidationError(err)
	}

	if err := v.Verify(canonicalPayload(data), fields.Sign); err != nil {
		return nil, err
	}

	return &LegacyCallback{fields: fields}, nil
}

// canonicalPayload builds the string the gateway signs from the raw values.
func canonicalPayload(data map[string]string) string {
	var b strings.Builder
	for i, key := range legacyKeys {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(data[key])
	}

	return b.String()
}

type modernFields struct {
	ID            string `json:"id" validate:"required,max=128"`
	MerchantAPIID string `json:"merchantApiId" validate:"required,max=128"`
}

// ModernCallback is the JSON callback which carries only a reference to the order.
type ModernCallback struct {
	fields modernFields
}

func (c *ModernCallback) Variant() model.Variant { return model.VariantModern }

func (c *ModernCallback) isCallback() {}

// ID returns the gateway order id to fetch the status for.
func (c *ModernCallback) ID() string { return c.fields.ID }

func (c *ModernCallback) MerchantAPIID() string { return c.fields.MerchantAPIID }

// NewModernCallback sanitizes and validates the two identifiers.
func NewModernCallback(id, merchantAPIID string) (*ModernCallback, error) {
	fields := modernFields{
		ID:            Sanitize(id),
		MerchantAPIID: Sanitize(merchantAPIID),
	}

	if err := validate.Struct(fields); err != nil {
		return nil, toValidationError(err)
	}

	return &ModernCallback{fields: fields}, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			if name := fld.Tag.Get(tag); name != "" && name != "-" {
				return name
			}
		}

		return fld.Name
	})

	mustRegister(v, "amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}

		return !d.IsNegative()
	})

	mustRegister(v, "posint", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseUint(fl.Field().String(), 10, 64)
		return err == nil && n > 0
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewValidationError(model.ErrInvalidCallback, model.FieldError{Field: "body", Reason: err.Error()})
	}

	result := model.NewValidationError(model.ErrInvalidCallback)
	for i := range verrs {
		result.Fields = append(result.Fields, model.FieldError{
			Field:  verrs[i].Field(),
			Reason: reasonFor(verrs[i]),
		})
	}

	return result
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "amount":
		return "must be a non-negative decimal"
	case "posint":
		return "must be a positive integer"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func amountOrZero(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}
