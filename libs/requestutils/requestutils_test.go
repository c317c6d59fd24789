package requestutils

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestReadWithLimit(t *testing.T) {
	b, err := ReadWithLimit(context.Background(), io.NopCloser(strings.NewReader("merchantId=1&sign=x")), 10)
	must.NoError(t, err)
	should.Equal(t, "merchantId", string(b))
}

func TestSetRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestID, "req-1")

	req, err := http.NewRequest(http.MethodGet, "http://localhost", nil)
	must.NoError(t, err)

	SetRequestID(ctx, req)
	should.Equal(t, "req-1", req.Header.Get(RequestIDHeaderKey))

	other, err := http.NewRequest(http.MethodGet, "http://localhost", nil)
	must.NoError(t, err)

	SetRequestID(context.Background(), other)
	should.Equal(t, "", other.Header.Get(RequestIDHeaderKey))
}
