package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/brave-intl/spectrocoin-callback/libs/logging"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthCheckResponse - response structure for healthchecks
type HealthCheckResponse struct {
	BuildTime string `json:"buildTime"`
	Commit    string `json:"commit"`
	Version   string `json:"version"`
	// dependency name to "ok" or the error it failed with
	ServiceStatus map[string]string `json:"serviceStatus,omitempty"`
}

// Healthy is false when any dependency failed its check.
func (hcr HealthCheckResponse) Healthy() bool {
	for _, v := range hcr.ServiceStatus {
		if v != "ok" {
			return false
		}
	}
	return true
}

// HealthCheckHandler runs checks on every request.
//
// A failing check answers 503 with the per dependency status in the error data.
func HealthCheckHandler(version, buildTime, commit string, checks map[string]HealthCheck) AppHandler {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) *AppError {
		ctx := r.Context()

		hcr := HealthCheckResponse{
			Commit:    commit,
			BuildTime: buildTime,
			Version:   version,
		}

		if len(names) > 0 {
			hcr.ServiceStatus = make(map[string]string, len(names))
		}

		for _, name := range names {
			hcr.ServiceStatus[name] = "ok"
			if err := checks[name](ctx); err != nil {
				logging.Logger(ctx, "handlers").Warn().Err(err).Str("check", name).Msg("health check failed")
				hcr.ServiceStatus[name] = err.Error()
			}
		}

		if !hcr.Healthy() {
			return &AppError{
				Message: "unhealthy",
				Code:    http.StatusServiceUnavailable,
				Data:    hcr,
			}
		}

		return RenderContent(ctx, hcr, w, http.StatusOK)
	}
}
