package cryptography

import (
	"encoding/hex"
	"testing"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestHMACSha256(t *testing.T) {
	// RFC 4231 test case 2
	hasher := NewHMACHasher([]byte("Jefe"))

	sum, err := hasher.HMACSha256([]byte("what do ya want for nothing?"))
	must.NoError(t, err)
	should.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", hex.EncodeToString(sum))
}

func TestHMACSha256_Empty(t *testing.T) {
	_, err := NewHMACHasher([]byte("secret")).HMACSha256(nil)
	should.ErrorIs(t, err, ErrEmptyPayload)
}

func TestVerifyHMACSha256(t *testing.T) {
	key := NewHMACHasher([]byte("secret"))

	mac, err := key.HMACSha256([]byte("orderId=1&status=2"))
	must.NoError(t, err)

	ok, err := VerifyHMACSha256(key, []byte("orderId=1&status=2"), mac)
	must.NoError(t, err)
	should.True(t, ok)

	ok, err = VerifyHMACSha256(key, []byte("orderId=1&status=3"), mac)
	must.NoError(t, err)
	should.False(t, ok)

	ok, err = VerifyHMACSha256(key, nil, mac)
	should.ErrorIs(t, err, ErrEmptyPayload)
	should.False(t, ok)
}
