package callback

import (
	"encoding/base64"
	"strings"

	"github.com/brave-intl/spectrocoin-callback/libs/cryptography"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
)

// Verifier authenticates legacy callbacks with the shared sign secret.
type Verifier struct {
	key cryptography.HMACKey
}

// NewVerifier returns a Verifier for secret.
//
// A Verifier without a secret rejects every signature.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return &Verifier{}
	}

	return &Verifier{key: cryptography.NewHMACHasher([]byte(secret))}
}

// Sign returns the base64 encoded signature of payload.
func (v *Verifier) Sign(payload string) (string, error) {
	if v == nil || v.key == nil {
		return "", model.ErrSignSecretNotSet
	}

	mac, err := v.key.HMACSha256([]byte(payload))
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(mac), nil
}

// Verify checks sign against payload in constant time.
func (v *Verifier) Verify(payload, sign string) error {
	if v == nil || v.key == nil {
		return model.NewValidationError(model.ErrInvalidSignature, model.FieldError{Field: signKey, Reason: "sign secret is not configured"})
	}

	given, ok := decodeSign(sign)
	if !ok {
		return model.NewValidationError(model.ErrInvalidSignature, model.FieldError{Field: signKey, Reason: "is not valid base64"})
	}

	ok, err := cryptography.VerifyHMACSha256(v.key, []byte(payload), given)
	if err != nil {
		return model.NewValidationError(model.ErrInvalidSignature, model.FieldError{Field: signKey, Reason: "could not be computed"})
	}

	if !ok {
		return model.NewValidationError(model.ErrInvalidSignature, model.FieldError{Field: signKey, Reason: "does not match payload"})
	}

	return nil
}

// SignFields signs the legacy key set in data, as the gateway does.
func (v *Verifier) SignFields(data map[string]string) (string, error) {
	return v.Sign(canonicalPayload(data))
}

func decodeSign(sign string) ([]byte, bool) {
	sign = strings.TrimSpace(sign)
	if sign == "" {
		return nil, false
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(sign); err == nil {
			return raw, true
		}
	}

	return nil, false
}
