package middleware

import (
	"context"
	"crypto/sha256"
	"net/http"

	"github.com/brave-intl/spectrocoin-callback/libs/requestutils"
	uuid "github.com/satori/go.uuid"
	"github.com/shengdoushi/base58"
)

const maxRequestIDLen = 64

// RequestIDTransfer puts the request id in the context and echoes it in the response.
//
// Ids that are too long or not printable ascii are replaced with a generated one.
func RequestIDTransfer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestutils.RequestIDHeaderKey)
		if !isValidRequestID(reqID) {
			reqID = NewRequestID()
		}

		w.Header().Set(requestutils.RequestIDHeaderKey, reqID)
		ctx := context.WithValue(r.Context(), requestutils.RequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewRequestID returns a random 16 character base58 id.
func NewRequestID() string {
	sum := sha256.Sum256(uuid.NewV4().Bytes())
	return base58.Encode(sum[:], base58.BitcoinAlphabet)[:16]
}

func isValidRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}

	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}
