package cmd

import (
	"context"
	"net/http"
	"time"

	appctx "github.com/brave-intl/spectrocoin-callback/libs/context"
	"github.com/brave-intl/spectrocoin-callback/libs/handlers"
	"github.com/brave-intl/spectrocoin-callback/libs/middleware"
	"github.com/brave-intl/spectrocoin-callback/services/cmd"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/callback"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/handler"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunSpectroCoinServer starts the callback service and blocks until the server stops.
func RunSpectroCoinServer(command *cobra.Command, args []string) error {
	ctx := command.Context()
	logger, err := appctx.GetLogger(ctx)
	if err != nil {
		return err
	}

	ctx = context.WithValue(ctx, appctx.DatabaseURLCTXKey, viper.GetString("database-url"))
	ctx = context.WithValue(ctx, appctx.DatabaseMigrationsURLCTXKey, viper.GetString("database-migrations-url"))
	ctx = context.WithValue(ctx, appctx.SpectroCoinSignSecretCTXKey, viper.GetString("spectrocoin-sign-secret"))
	ctx = context.WithValue(ctx, appctx.SpectroCoinProjectIDCTXKey, viper.GetString("spectrocoin-project-id"))
	ctx = context.WithValue(ctx, appctx.SpectroCoinClientIDCTXKey, viper.GetString("spectrocoin-client-id"))
	ctx = context.WithValue(ctx, appctx.SpectroCoinClientSecretCTXKey, viper.GetString("spectrocoin-client-secret"))
	ctx = context.WithValue(ctx, appctx.SpectroCoinTestModeCTXKey, viper.GetBool("spectrocoin-test-mode"))
	ctx = context.WithValue(ctx, appctx.SpectroCoinAPIURLCTXKey, viper.GetString("spectrocoin-api-url"))
	ctx = context.WithValue(ctx, appctx.SpectroCoinAPITimeoutCTXKey, viper.GetDuration("spectrocoin-api-timeout"))
	ctx = context.WithValue(ctx, appctx.RateLimitPerMinuteCTXKey, viper.GetInt("rate-limit-per-min"))
	ctx = context.WithValue(ctx, appctx.SpectroCoinHistoryCodesCTXKey, model.HistoryCodes{
		Processing: model.HistoryCode(viper.GetInt("history-processing-id")),
		Complete:   model.HistoryCode(viper.GetInt("history-complete-id")),
		Failed:     model.HistoryCode(viper.GetInt("history-failed-id")),
		Expired:    model.HistoryCode(viper.GetInt("history-expired-id")),
	})

	cfg := spectrocoin.NewConfigFromContext(ctx)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := cmd.SetupSentry(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to initialize sentry")
	}

	// make sure exceptions go to sentry
	defer sentry.Flush(time.Second * 2)

	svc, err := spectrocoin.InitService(ctx, cfg)
	if err != nil {
		return err
	}

	h := handler.NewCallback(callback.NewParser(callback.NewVerifier(cfg.SignSecret)), svc)

	r := cmd.SetupRouter(ctx, map[string]handlers.HealthCheck{"ledger": svc.Ping})
	r.HandleFunc(
		"/v1/spectrocoin/callback",
		middleware.InstrumentHandler("SpectroCoinCallback", handlers.StatusHandler(h.Handle)).ServeHTTP,
	)

	cmd.ServeMetrics(ctx)

	srv := http.Server{
		Addr:         viper.GetString("address"),
		Handler:      chi.ServerBaseContext(ctx, r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	if err = srv.ListenAndServe(); err != nil {
		sentry.CaptureException(err)
		logger.Error().Err(err).Msg("HTTP server start failed!")
		return err
	}

	return nil
}
