package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"
	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func TestWrapError(t *testing.T) {
	cause := errors.New("cause")

	err := WrapError(cause, "failed", 0)
	should.Equal(t, http.StatusBadRequest, err.Code)
	should.ErrorIs(t, err, cause)

	nested := WrapError(WrapError(cause, "inner", http.StatusNotFound), "outer", http.StatusInternalServerError)
	should.Equal(t, http.StatusNotFound, nested.Code)
	should.Equal(t, "outer: inner", nested.Message)
}

func TestAppHandler_ServeHTTP(t *testing.T) {
	h := AppHandler(func(w http.ResponseWriter, r *http.Request) *AppError {
		return WrapError(errors.New("cause"), "failed", http.StatusNotFound)
	})

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))

	should.Equal(t, http.StatusNotFound, rw.Code)

	var body AppError
	must.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	should.Equal(t, "failed: cause", body.Message)
}

func TestStatusHandler_ServeHTTP(t *testing.T) {
	type testCase struct {
		name    string
		given   *AppError
		expCode int
		expBody string
	}

	tests := []testCase{
		{
			name:    "error_has_empty_body",
			given:   WrapError(errors.New("secret detail"), "failed", http.StatusInternalServerError),
			expCode: http.StatusInternalServerError,
		},

		{
			name:    "success_writes_through",
			expCode: http.StatusOK,
			expBody: "*ok*",
		},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			h := StatusHandler(func(w http.ResponseWriter, r *http.Request) *AppError {
				if tc.given != nil {
					return tc.given
				}

				_, _ = w.Write([]byte("*ok*"))
				return nil
			})

			rw := httptest.NewRecorder()
			h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", nil))

			should.Equal(t, tc.expCode, rw.Code)
			should.Equal(t, tc.expBody, rw.Body.String())
		})
	}
}

func TestHealthCheckHandler(t *testing.T) {
	type tcExpected struct {
		code   int
		status map[string]string
	}

	type testCase struct {
		name   string
		checks map[string]HealthCheck
		exp    tcExpected
	}

	tests := []testCase{
		{
			name: "no_checks",
			exp:  tcExpected{code: http.StatusOK},
		},

		{
			name: "healthy",
			checks: map[string]HealthCheck{
				"ledger": func(ctx context.Context) error { return nil },
			},
			exp: tcExpected{code: http.StatusOK, status: map[string]string{"ledger": "ok"}},
		},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			rw := httptest.NewRecorder()
			HealthCheckHandler("1.0.0", "now", "abc", tc.checks).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/health-check", nil))

			should.Equal(t, tc.exp.code, rw.Code)
			should.Equal(t, "application/json", rw.Header().Get("content-type"))

			var actual HealthCheckResponse
			must.NoError(t, json.Unmarshal(rw.Body.Bytes(), &actual))

			should.Equal(t, "1.0.0", actual.Version)
			should.Equal(t, tc.exp.status, actual.ServiceStatus)
		})
	}
}

func TestHealthCheckHandler_Unhealthy(t *testing.T) {
	checks := map[string]HealthCheck{
		"ledger":   func(ctx context.Context) error { return errors.New("connection refused") },
		"upstream": func(ctx context.Context) error { return nil },
	}

	rw := httptest.NewRecorder()
	HealthCheckHandler("1.0.0", "now", "abc", checks).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/health-check", nil))

	should.Equal(t, http.StatusServiceUnavailable, rw.Code)

	var actual struct {
		Message string              `json:"message"`
		Code    int                 `json:"code"`
		Data    HealthCheckResponse `json:"data"`
	}
	must.NoError(t, json.Unmarshal(rw.Body.Bytes(), &actual))

	should.Equal(t, "unhealthy", actual.Message)
	should.Equal(t, http.StatusServiceUnavailable, actual.Code)
	should.Equal(t, map[string]string{"ledger": "connection refused", "upstream": "ok"}, actual.Data.ServiceStatus)
}

func TestRenderContent(t *testing.T) {
	rw := httptest.NewRecorder()
	must.Nil(t, RenderContent(context.Background(), map[string]string{"status": "ok"}, rw, http.StatusAccepted))

	should.Equal(t, http.StatusAccepted, rw.Code)
	should.JSONEq(t, `{"status":"ok"}`, rw.Body.String())

	appErr := RenderContent(context.Background(), func() {}, httptest.NewRecorder(), http.StatusOK)
	must.NotNil(t, appErr)
	should.Equal(t, http.StatusInternalServerError, appErr.Code)
}
