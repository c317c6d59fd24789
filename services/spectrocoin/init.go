package spectrocoin

import (
	"context"
	"fmt"

	"github.com/brave-intl/spectrocoin-callback/libs/clients/spectrocoin"
	"github.com/brave-intl/spectrocoin-callback/libs/datastore"
	"github.com/brave-intl/spectrocoin-callback/libs/logging"
)

// InitService connects to the ledger database, migrating it, and builds the service for cfg.
func InitService(ctx context.Context, cfg Config) (*Service, error) {
	lg := logging.Logger(ctx, "spectrocoin").With().Str("func", "InitService").Logger()

	pg, err := datastore.NewPostgres(cfg.DatabaseURL, cfg.MigrationsURL, cfg.MigrationsURL != "")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger datastore: %w", err)
	}

	ledger := NewLedger(pg)

	mcfg := cfg.MerchantConfig()
	if !mcfg.Enabled() {
		lg.Warn().Msg("merchant api credentials not set, modern callbacks will fail")
		return NewService(ledger, ledger, nil, cfg.HistoryCodes, cfg.ProjectID), nil
	}

	merchant, err := spectrocoin.New(mcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize merchant api client: %w", err)
	}

	lg.Info().Str("api_url", mcfg.BaseURL).Bool("test_mode", cfg.TestMode).Msg("merchant api client configured")

	return NewService(ledger, ledger, merchant, cfg.HistoryCodes, cfg.ProjectID), nil
}
