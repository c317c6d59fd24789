package cmd

import (
	"context"
	"net/http"
	"time"

	rootcmd "github.com/brave-intl/spectrocoin-callback/cmd"
	appctx "github.com/brave-intl/spectrocoin-callback/libs/context"
	"github.com/brave-intl/spectrocoin-callback/libs/handlers"
	"github.com/brave-intl/spectrocoin-callback/libs/middleware"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	chiware "github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	timeout = 10 * time.Second
)

func init() {
	rootcmd.RootCmd.AddCommand(ServeCmd)

	// address - sets the address of the server to be started
	ServeCmd.PersistentFlags().String("address", ":8080",
		"the default address to bind to")
	rootcmd.Must(viper.BindPFlag("address", ServeCmd.PersistentFlags().Lookup("address")))
	rootcmd.Must(viper.BindEnv("address", "ADDR"))

	ServeCmd.PersistentFlags().String("metrics-address", ":9090",
		"the address the prometheus metrics are served on")
	rootcmd.Must(viper.BindPFlag("metrics-address", ServeCmd.PersistentFlags().Lookup("metrics-address")))
	rootcmd.Must(viper.BindEnv("metrics-address", "METRICS_ADDR"))

	ServeCmd.PersistentFlags().String("sentry-dsn", "",
		"the sentry dsn errors are reported to")
	rootcmd.Must(viper.BindPFlag("sentry-dsn", ServeCmd.PersistentFlags().Lookup("sentry-dsn")))
	rootcmd.Must(viper.BindEnv("sentry-dsn", "SENTRY_DSN"))

	ServeCmd.PersistentFlags().Int("rate-limit-per-min", 600,
		"rate limit per minute value, applied in production")
	rootcmd.Must(viper.BindPFlag("rate-limit-per-min", ServeCmd.PersistentFlags().Lookup("rate-limit-per-min")))
	rootcmd.Must(viper.BindEnv("rate-limit-per-min", "RATE_LIMIT_PER_MIN"))
}

// ServeCmd the serve command
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "entrypoint to serve a micro-service",
}

// SetupSentry initializes error reporting when a dsn is configured.
func SetupSentry(ctx context.Context) error {
	dsn := viper.GetString("sentry-dsn")
	if dsn == "" {
		return nil
	}

	release, _ := ctx.Value(appctx.CommitCTXKey).(string)

	return sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Release:     release,
		Environment: viper.GetString("environment"),
	})
}

// SetupRouter sets up a router, checks are reported by the health check endpoint
func SetupRouter(ctx context.Context, checks map[string]handlers.HealthCheck) *chi.Mux {
	logger, err := appctx.GetLogger(ctx)
	rootcmd.Must(err)

	r := chi.NewRouter()
	r.Use(
		chiware.RequestID,
		chiware.RealIP,
		chiware.Heartbeat("/"),
		chiware.Timeout(timeout),
		middleware.RequestIDTransfer,
		middleware.RequestCorrelation,
	)

	if viper.GetString("environment") == "production" {
		rl, ok := ctx.Value(appctx.RateLimitPerMinuteCTXKey).(int)
		if !ok || rl <= 0 {
			rl = 600
		}
		r.Use(middleware.RateLimiter(ctx, rl))
	}

	// Also handles panic recovery
	r.Use(
		hlog.NewHandler(*logger),
		hlog.UserAgentHandler("user_agent"),
		hlog.RequestIDHandler("req_id", "Request-Id"),
		middleware.RequestLogger(logger))

	version, _ := ctx.Value(appctx.VersionCTXKey).(string)
	commit, _ := ctx.Value(appctx.CommitCTXKey).(string)
	buildTime, _ := ctx.Value(appctx.BuildTimeCTXKey).(string)

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_time", buildTime).
		Str("address", viper.GetString("address")).
		Str("environment", viper.GetString("environment")).
		Msg("server starting")

	r.Get("/health-check", handlers.HealthCheckHandler(version, buildTime, commit, checks).ServeHTTP)

	return r
}

// ServeMetrics serves prometheus metrics on the metrics address until the process exits.
func ServeMetrics(ctx context.Context) {
	logger, err := appctx.GetLogger(ctx)
	rootcmd.Must(err)

	go func() {
		err := http.ListenAndServe(viper.GetString("metrics-address"), middleware.Metrics())
		if err != nil {
			sentry.CaptureException(err)
			logger.Panic().Err(err).Msg("metrics HTTP server start failed!")
		}
	}()
}
