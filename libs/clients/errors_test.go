package clients

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromError(t *testing.T) {
	cause := errors.New("order lookup failed")
	bundle := NewHTTPError(cause, "merchants/orders/1", "request failed", http.StatusNotFound, nil)

	status, ok := StatusFromError(fmt.Errorf("wrapped: %w", bundle))
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
	assert.ErrorIs(t, bundle, cause)
}

func TestStatusFromError_NoState(t *testing.T) {
	status, ok := StatusFromError(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, 0, status)
}
