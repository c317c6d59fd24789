package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/brave-intl/spectrocoin-callback/libs/logging"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
)

const (
	mediaTypeJSON      = "application/json"
	mediaTypeMultipart = "multipart/form-data"

	maxMultipartMemory = 1 << 20
)

var errNoBoundary = errors.New("multipart: missing boundary")

// Parser dispatches a raw webhook body to the variant its content type selects.
type Parser struct {
	verifier *Verifier
}

// NewParser returns a Parser which authenticates legacy callbacks with v.
func NewParser(v *Verifier) *Parser {
	return &Parser{verifier: v}
}

// Parse returns the callback carried by body.
//
// A body with none of the expected fields yields model.ErrNoCallbackData.
func (p *Parser) Parse(ctx context.Context, contentType string, body []byte) (Callback, error) {
	if IsJSON(contentType) {
		return p.parseModern(body)
	}

	return p.parseLegacy(ctx, contentType, body)
}

// IsJSON reports whether contentType selects the modern format.
//
// Parameters such as charset are ignored.
func IsJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}

	return mt == mediaTypeJSON
}

func (p *Parser) parseLegacy(ctx context.Context, contentType string, body []byte) (Callback, error) {
	values, err := parseForm(contentType, body)
	if err != nil {
		return nil, model.NewValidationError(model.ErrInvalidCallback, model.FieldError{Field: "body", Reason: "is not form encoded"})
	}

	data := make(map[string]string, len(legacyKeys)+1)
	for _, key := range legacyKeys {
		if vals, ok := values[key]; ok && len(vals) > 0 {
			data[key] = vals[0]
		}
	}

	if vals, ok := values[signKey]; ok && len(vals) > 0 {
		data[signKey] = vals[0]
	}

	if len(data) == 0 {
		return nil, model.ErrNoCallbackData
	}

	cb, err := NewLegacyCallback(data, p.verifier)
	if err != nil {
		if errors.Is(err, model.ErrInvalidSignature) {
			logging.Logger(ctx, "spectrocoin").Warn().
				Str("func", "parseLegacy").
				Err(err).
				Strs("signed_keys", signedKeys(data)).
				Str("order_ref", Sanitize(data["orderId"])).
				Str("merchant_api_id", Sanitize(data["merchantApiId"])).
				Msg("legacy callback signature mismatch")
		}

		return nil, err
	}

	return cb, nil
}

// signedKeys returns the legacy keys present in data, in signing order.
func signedKeys(data map[string]string) []string {
	keys := make([]string, 0, len(legacyKeys))
	for _, key := range legacyKeys {
		if _, ok := data[key]; ok {
			keys = append(keys, key)
		}
	}

	return keys
}

// parseForm reads a multipart or url encoded form.
//
// Pairs are split on "&" only, so a raw ";" stays part of its value.
func parseForm(contentType string, body []byte) (map[string][]string, error) {
	if mt, params, err := mime.ParseMediaType(contentType); err == nil && mt == mediaTypeMultipart {
		return parseMultipart(body, params["boundary"])
	}

	values := make(map[string][]string)
	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}

		rawKey, rawVal, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, err
		}

		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, err
		}

		values[key] = append(values[key], val)
	}

	return values, nil
}

func parseMultipart(body []byte, boundary string) (map[string][]string, error) {
	if boundary == "" {
		return nil, errNoBoundary
	}

	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxMultipartMemory)
	if err != nil {
		return nil, err
	}

	defer func() { _ = form.RemoveAll() }()

	return form.Value, nil
}

func (p *Parser) parseModern(body []byte) (Callback, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, model.ErrNoCallbackData
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, model.NewValidationError(model.ErrInvalidCallback, model.FieldError{Field: "body", Reason: "must be a JSON object"})
	}

	id, err := scalarField(raw, "id")
	if err != nil {
		return nil, err
	}

	mapiID, err := scalarField(raw, "merchantApiId")
	if err != nil {
		return nil, err
	}

	return NewModernCallback(id, mapiID)
}

// scalarField returns the string form of a scalar JSON value, or an empty string when key is absent.
func scalarField(raw map[string]json.RawMessage, key string) (string, error) {
	val, ok := raw[key]
	if !ok {
		return "", nil
	}

	val = bytes.TrimSpace(val)
	if len(val) == 0 || bytes.Equal(val, []byte("null")) {
		return "", nil
	}

	switch val[0] {
	case '"':
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return "", model.NewValidationError(model.ErrInvalidCallback, model.FieldError{Field: key, Reason: "is not a valid string"})
		}

		return s, nil

	case '{', '[':
		return "", model.NewValidationError(model.ErrInvalidCallback, model.FieldError{Field: key, Reason: "must be a scalar value"})

	default:
		return string(val), nil
	}
}
