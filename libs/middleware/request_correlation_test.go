package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestCorrelation(t *testing.T) {
	handler := RequestCorrelation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(CorrelationIDHeaderKey, "corr-1")

	rw := httptest.NewRecorder()
	handler.ServeHTTP(rw, req)
	assert.Equal(t, "corr-1", rw.Header().Get(CorrelationIDHeaderKey))

	rw = httptest.NewRecorder()
	handler.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, "", rw.Header().Get(CorrelationIDHeaderKey))
}
