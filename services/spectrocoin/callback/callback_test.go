package callback_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"

	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/callback"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
)

const testSecret = "shared-sign-secret"

func signedForm(t *testing.T, v *callback.Verifier, data map[string]string) []byte {
	sign, err := v.SignFields(data)
	must.Equal(t, nil, err)

	values := url.Values{}
	for k, val := range data {
		values.Set(k, val)
	}
	values.Set("sign", sign)

	return []byte(values.Encode())
}

func TestParser_Legacy(t *testing.T) {
	ver := callback.NewVerifier(testSecret)
	p := callback.NewParser(ver)

	type tcExpected struct {
		orderRef string
		status   string
		fields   []string
		err      error
	}

	type testCase struct {
		name  string
		given func(t *testing.T) []byte
		exp   tcExpected
	}

	tests := []testCase{
		{
			name: "minimal_valid",
			given: func(t *testing.T) []byte {
				return signedForm(t, ver, map[string]string{"orderId": "500-abc", "status": "pending"})
			},
			exp: tcExpected{orderRef: "500-abc", status: "pending"},
		},

		{
			name: "full_valid",
			given: func(t *testing.T) []byte {
				return signedForm(t, ver, map[string]string{
					"merchantId":      "1387551",
					"apiId":           "105548",
					"userId":          "u-1",
					"merchantApiId":   "mapi-1",
					"orderId":         "12-3",
					"payCurrency":     "BTC",
					"payAmount":       "0.0001",
					"receiveCurrency": "EUR",
					"receiveAmount":   "10.50",
					"receivedAmount":  "0",
					"description":     "Order #12",
					"orderRequestId":  "991",
					"status":          "3",
				})
			},
			exp: tcExpected{orderRef: "12-3", status: "3"},
		},

		{
			name: "invalid_sign",
			given: func(t *testing.T) []byte {
				body := signedForm(t, callback.NewVerifier("other-secret"), map[string]string{"orderId": "500-abc", "status": "pending"})
				return body
			},
			exp: tcExpected{err: model.ErrInvalidSignature},
		},

		{
			name: "sign_not_base64",
			given: func(t *testing.T) []byte {
				return []byte("orderId=500-abc&status=pending&sign=%21%21%21")
			},
			exp: tcExpected{err: model.ErrInvalidSignature},
		},

		{
			name: "tampered_status",
			given: func(t *testing.T) []byte {
				body := signedForm(t, ver, map[string]string{"orderId": "500-abc", "status": "pending"})
				return []byte(strings.Replace(string(body), "status=pending", "status=paid", 1))
			},
			exp: tcExpected{err: model.ErrInvalidSignature},
		},

		{
			name: "missing_order_id",
			given: func(t *testing.T) []byte {
				return signedForm(t, ver, map[string]string{"status": "pending"})
			},
			exp: tcExpected{err: model.ErrInvalidCallback, fields: []string{"orderId"}},
		},

		{
			name: "missing_sign",
			given: func(t *testing.T) []byte {
				return []byte("orderId=500-abc&status=pending")
			},
			exp: tcExpected{err: model.ErrInvalidCallback, fields: []string{"sign"}},
		},

		{
			name: "negative_amount",
			given: func(t *testing.T) []byte {
				return signedForm(t, ver, map[string]string{"orderId": "1", "status": "paid", "payAmount": "-1"})
			},
			exp: tcExpected{err: model.ErrInvalidCallback, fields: []string{"payAmount"}},
		},

		{
			name: "bad_order_request_id",
			given: func(t *testing.T) []byte {
				return signedForm(t, ver, map[string]string{"orderId": "1", "status": "paid", "orderRequestId": "x"})
			},
			exp: tcExpected{err: model.ErrInvalidCallback, fields: []string{"orderRequestId"}},
		},

		{
			name: "no_data",
			given: func(t *testing.T) []byte {
				return []byte("foo=bar&baz=1")
			},
			exp: tcExpected{err: model.ErrNoCallbackData},
		},

		{
			name: "empty_body",
			given: func(t *testing.T) []byte {
				return nil
			},
			exp: tcExpected{err: model.ErrNoCallbackData},
		},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			actual, err := p.Parse(context.Background(), "application/x-www-form-urlencoded", tc.given(t))
			must.Equal(t, true, errors.Is(err, tc.exp.err), err)

			if tc.exp.err != nil {
				should.Nil(t, actual)

				if len(tc.exp.fields) > 0 {
					var verr *model.ValidationError
					must.Equal(t, true, errors.As(err, &verr))

					for _, f := range tc.exp.fields {
						should.Contains(t, verr.FieldMap(), f)
					}
				}

				return
			}

			cb, ok := actual.(*callback.LegacyCallback)
			must.Equal(t, true, ok)

			should.Equal(t, model.VariantLegacy, cb.Variant())

			n := cb.Notification()
			should.Equal(t, tc.exp.orderRef, n.OrderRef)
			should.Equal(t, tc.exp.status, n.RawStatus)
		})
	}
}

func TestLegacyCallback_Accessors(t *testing.T) {
	ver := callback.NewVerifier(testSecret)

	data := map[string]string{
		"orderId":       "700-x",
		"status":        "paid",
		"payAmount":     "0.00012",
		"receiveAmount": "15.5",
		"merchantApiId": "mapi-1",
		"description":   "  <b>Order</b>\n #700  ",
	}

	sign, err := ver.SignFields(data)
	must.Equal(t, nil, err)
	data["sign"] = sign

	actual, err := callback.NewLegacyCallback(data, ver)
	must.Equal(t, nil, err)

	should.Equal(t, "700-x", actual.OrderID())
	should.Equal(t, "paid", actual.Status())
	should.Equal(t, "mapi-1", actual.MerchantAPIID())
	should.Equal(t, "Order #700", actual.Description())
	should.Equal(t, true, decimal.RequireFromString("0.00012").Equal(actual.PayAmount()))
	should.Equal(t, true, decimal.RequireFromString("15.5").Equal(actual.ReceiveAmount()))
	should.Equal(t, true, actual.ReceivedAmount().IsZero())
}

func TestParser_Modern(t *testing.T) {
	p := callback.NewParser(callback.NewVerifier(testSecret))

	type tcGiven struct {
		contentType string
		body        string
	}

	type tcExpected struct {
		id     string
		mapiID string
		fields []string
		err    error
	}

	type testCase struct {
		name  string
		given tcGiven
		exp   tcExpected
	}

	tests := []testCase{
		{
			name:  "valid",
			given: tcGiven{contentType: "application/json", body: `{"id":"uuid-1","merchantApiId":"mapi-1"}`},
			exp:   tcExpected{id: "uuid-1", mapiID: "mapi-1"},
		},

		{
			name:  "valid_with_charset",
			given: tcGiven{contentType: "application/json; charset=utf-8", body: `{"id":"uuid-1","merchantApiId":"mapi-1","extra":[1]}`},
			exp:   tcExpected{id: "uuid-1", mapiID: "mapi-1"},
		},

		{
			name:  "numeric_id",
			given: tcGiven{contentType: "application/json", body: `{"id":123,"merchantApiId":"mapi-1"}`},
			exp:   tcExpected{id: "123", mapiID: "mapi-1"},
		},

		{
			name:  "sanitized",
			given: tcGiven{contentType: "application/json", body: `{"id":"  <i>uuid-1</i> ","merchantApiId":"mapi-1\n"}`},
			exp:   tcExpected{id: "uuid-1", mapiID: "mapi-1"},
		},

		{
			name:  "missing_id",
			given: tcGiven{contentType: "application/json", body: `{"merchantApiId":"mapi-1"}`},
			exp:   tcExpected{err: model.ErrInvalidCallback, fields: []string{"id"}},
		},

		{
			name:  "missing_merchant_api_id",
			given: tcGiven{contentType: "application/json", body: `{"id":"uuid-1"}`},
			exp:   tcExpected{err: model.ErrInvalidCallback, fields: []string{"merchantApiId"}},
		},

		{
			name:  "blank_after_sanitize",
			given: tcGiven{contentType: "application/json", body: `{"id":"<b></b>","merchantApiId":"mapi-1"}`},
			exp:   tcExpected{err: model.ErrInvalidCallback, fields: []string{"id"}},
		},

		{
			name:  "null_id",
			given: tcGiven{contentType: "application/json", body: `{"id":null,"merchantApiId":"mapi-1"}`},
			exp:   tcExpected{err: model.ErrInvalidCallback, fields: []string{"id"}},
		},

		{
			name:  "object_id",
			given: tcGiven{contentType: "application/json", body: `{"id":{"a":1},"merchantApiId":"mapi-1"}`},
			exp:   tcExpected{err: model.ErrInvalidCallback, fields: []string{"id"}},
		},

		{
			name:  "array_body",
			given: tcGiven{contentType: "application/json", body: `["uuid-1"]`},
			exp:   tcExpected{err: model.ErrInvalidCallback, fields: []string{"body"}},
		},

		{
			name:  "string_body",
			given: tcGiven{contentType: "application/json", body: `"uuid-1"`},
			exp:   tcExpected{err: model.ErrInvalidCallback},
		},

		{
			name:  "null_body",
			given: tcGiven{contentType: "application/json", body: `null`},
			exp:   tcExpected{err: model.ErrInvalidCallback},
		},

		{
			name:  "malformed",
			given: tcGiven{contentType: "application/json", body: `{"id":`},
			exp:   tcExpected{err: model.ErrInvalidCallback},
		},

		{
			name:  "empty",
			given: tcGiven{contentType: "application/json", body: "  \n"},
			exp:   tcExpected{err: model.ErrNoCallbackData},
		},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			actual, err := p.Parse(context.Background(), tc.given.contentType, []byte(tc.given.body))
			must.Equal(t, true, errors.Is(err, tc.exp.err), err)

			if tc.exp.err != nil {
				if len(tc.exp.fields) > 0 {
					var verr *model.ValidationError
					must.Equal(t, true, errors.As(err, &verr))

					for _, f := range tc.exp.fields {
						should.Contains(t, verr.FieldMap(), f)
					}
				}

				return
			}

			cb, ok := actual.(*callback.ModernCallback)
			must.Equal(t, true, ok)

			should.Equal(t, model.VariantModern, cb.Variant())
			should.Equal(t, tc.exp.id, cb.ID())
			should.Equal(t, tc.exp.mapiID, cb.MerchantAPIID())
		})
	}
}

func TestIsJSON(t *testing.T) {
	should.Equal(t, true, callback.IsJSON("application/json"))
	should.Equal(t, true, callback.IsJSON("Application/JSON; charset=UTF-8"))
	should.Equal(t, false, callback.IsJSON("application/x-www-form-urlencoded"))
	should.Equal(t, false, callback.IsJSON(""))
	should.Equal(t, false, callback.IsJSON("text/plain"))
}

func TestVerifier(t *testing.T) {
	ver := callback.NewVerifier(testSecret)

	sign, err := ver.Sign("orderId=1&status=paid")
	must.Equal(t, nil, err)

	should.Equal(t, nil, ver.Verify("orderId=1&status=paid", sign))

	raw, err := base64.StdEncoding.DecodeString(sign)
	must.Equal(t, nil, err)

	t.Run("url_safe_encoding", func(t *testing.T) {
		should.Equal(t, nil, ver.Verify("orderId=1&status=paid", base64.URLEncoding.EncodeToString(raw)))
	})

	t.Run("mismatch", func(t *testing.T) {
		err := ver.Verify("orderId=2&status=paid", sign)
		should.Equal(t, true, errors.Is(err, model.ErrInvalidSignature))
	})

	t.Run("empty_sign", func(t *testing.T) {
		err := ver.Verify("orderId=1&status=paid", "")
		should.Equal(t, true, errors.Is(err, model.ErrInvalidSignature))
	})

	t.Run("no_secret", func(t *testing.T) {
		empty := callback.NewVerifier("")

		_, err := empty.Sign("orderId=1")
		should.Equal(t, model.ErrSignSecretNotSet, err)

		err = empty.Verify("orderId=1&status=paid", sign)
		should.Equal(t, true, errors.Is(err, model.ErrInvalidSignature))
	})
}

func TestSanitize(t *testing.T) {
	type testCase struct {
		name  string
		given string
		exp   string
	}

	tests := []testCase{
		{name: "empty"},
		{name: "plain", given: "uuid-1", exp: "uuid-1"},
		{name: "trim", given: "  uuid-1\t", exp: "uuid-1"},
		{name: "tags", given: "<script>x</script>uuid", exp: "xuuid"},
		{name: "collapse", given: "a \n\n b", exp: "a b"},
		{name: "control", given: "a\x00b\x07c", exp: "abc"},
		{name: "octets", given: "a%20b", exp: "ab"},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			should.Equal(t, tc.exp, callback.Sanitize(tc.given))
		})
	}
}

func TestParser_Legacy_SignatureMismatchLog(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	ctx := l.WithContext(context.Background())

	body := signedForm(t, callback.NewVerifier("rotated-secret"), map[string]string{
		"merchantApiId": "mapi-1",
		"orderId":       "500-abc",
		"status":        "paid",
	})

	_, err := callback.NewParser(callback.NewVerifier(testSecret)).Parse(ctx, "application/x-www-form-urlencoded", body)
	must.Equal(t, true, errors.Is(err, model.ErrInvalidSignature))

	var entry struct {
		Message       string   `json:"message"`
		SignedKeys    []string `json:"signed_keys"`
		OrderRef      string   `json:"order_ref"`
		MerchantAPIID string   `json:"merchant_api_id"`
	}
	must.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	should.Equal(t, "legacy callback signature mismatch", entry.Message)
	should.Equal(t, []string{"merchantApiId", "orderId", "status"}, entry.SignedKeys)
	should.Equal(t, "500-abc", entry.OrderRef)
	should.Equal(t, "mapi-1", entry.MerchantAPIID)

	sign, err := url.ParseQuery(string(body))
	must.NoError(t, err)

	should.NotContains(t, buf.String(), testSecret)
	should.NotContains(t, buf.String(), "rotated-secret")
	should.NotContains(t, buf.String(), sign.Get("sign"))
}

func TestParser_Legacy_FormEncodings(t *testing.T) {
	ver := callback.NewVerifier(testSecret)
	p := callback.NewParser(ver)

	data := map[string]string{
		"orderId":     "500-abc",
		"status":      "pending",
		"description": "Order #500; 2 items",
	}

	sign, err := ver.SignFields(data)
	must.NoError(t, err)

	type testCase struct {
		name  string
		given func(t *testing.T) (string, []byte)
	}

	tests := []testCase{
		{
			name: "raw_semicolon",
			given: func(t *testing.T) (string, []byte) {
				body := "orderId=500-abc&status=pending&description=Order+%23500;+2+items&sign=" + url.QueryEscape(sign)
				return "application/x-www-form-urlencoded", []byte(body)
			},
		},

		{
			name: "multipart",
			given: func(t *testing.T) (string, []byte) {
				return multipartForm(t, data, sign)
			},
		},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			contentType, body := tc.given(t)

			actual, err := p.Parse(context.Background(), contentType, body)
			must.NoError(t, err)

			legacy, ok := actual.(*callback.LegacyCallback)
			must.True(t, ok)

			should.Equal(t, "500-abc", legacy.Notification().OrderRef)
			should.Equal(t, "Order #500; 2 items", legacy.Description())
		})
	}
}

func TestParser_Legacy_MultipartWithoutBoundary(t *testing.T) {
	_, err := callback.NewParser(callback.NewVerifier(testSecret)).Parse(context.Background(), "multipart/form-data", []byte("orderId=1"))
	should.Equal(t, true, errors.Is(err, model.ErrInvalidCallback))
}

func multipartForm(t *testing.T, data map[string]string, sign string) (string, []byte) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range data {
		must.NoError(t, w.WriteField(k, v))
	}
	must.NoError(t, w.WriteField("sign", sign))
	must.NoError(t, w.Close())

	return w.FormDataContentType(), buf.Bytes()
}
