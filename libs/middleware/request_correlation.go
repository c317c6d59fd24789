package middleware

import (
	"net/http"
)

// CorrelationIDHeaderKey is echoed back so that gateway deliveries can be matched to responses.
const CorrelationIDHeaderKey = "X-Correlation-ID"

// RequestCorrelation copies the correlation id of the request onto the response
func RequestCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if corrID := r.Header.Get(CorrelationIDHeaderKey); corrID != "" {
			w.Header().Set(CorrelationIDHeaderKey, corrID)
		}
		next.ServeHTTP(w, r)
	})
}
