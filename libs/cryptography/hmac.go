package cryptography

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// ErrEmptyPayload is returned when there is nothing to hash.
var ErrEmptyPayload = errors.New("cryptography: empty hmac payload")

// HMACKey an interface for hashing to hmac-sha256
type HMACKey interface {
	// HMACSha256 does the appropriate hashing
	HMACSha256(payload []byte) ([]byte, error)
}

// HMACHasher is an in process HMACKey.
type HMACHasher struct {
	secret []byte
}

// NewHMACHasher creates a new HMACKey for hashing
func NewHMACHasher(secret []byte) HMACKey {
	return &HMACHasher{secret: secret}
}

// HMACSha256 hashes using an in process secret
func (hmh *HMACHasher) HMACSha256(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	mac := hmac.New(sha256.New, hmh.secret)
	if _, err := mac.Write(payload); err != nil {
		return nil, err
	}

	return mac.Sum(nil), nil
}

// VerifyHMACSha256 reports whether mac is the hmac of payload under key, in constant time.
func VerifyHMACSha256(key HMACKey, payload, mac []byte) (bool, error) {
	expected, err := key.HMACSha256(payload)
	if err != nil {
		return false, err
	}

	return hmac.Equal(expected, mac), nil
}
