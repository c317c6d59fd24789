package spectrocoin

import (
	"context"
	"fmt"
	"time"

	"github.com/brave-intl/spectrocoin-callback/libs/clients/spectrocoin"
	appctx "github.com/brave-intl/spectrocoin-callback/libs/context"
	errorutils "github.com/brave-intl/spectrocoin-callback/libs/errors"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
)

const (
	ErrIncompleteCredentials model.Error = "config: project id, client id and client secret must be set together"
	ErrNoCredentials         model.Error = "config: neither a sign secret nor merchant api credentials are set"
	ErrNoDatabaseURL         model.Error = "config: database url is not set"
	ErrInvalidHistoryCode    model.Error = "config: history codes must be positive"
)

// Config is the runtime configuration of the service.
type Config struct {
	DatabaseURL   string
	MigrationsURL string

	SignSecret   string
	ProjectID    string
	ClientID     string
	ClientSecret string
	TestMode     bool
	APIURL       string
	APITimeout   time.Duration

	HistoryCodes model.HistoryCodes
}

// NewConfigFromContext reads the configuration placed into ctx by the serve command.
func NewConfigFromContext(ctx context.Context) Config {
	str := func(key appctx.CTXKey) string {
		v, _ := appctx.GetStringFromContext(ctx, key)
		return v
	}

	testMode, _ := appctx.GetBoolFromContext(ctx, appctx.SpectroCoinTestModeCTXKey)

	timeout, err := appctx.GetDurationFromContext(ctx, appctx.SpectroCoinAPITimeoutCTXKey)
	if err != nil {
		timeout = 10 * time.Second
	}

	codes, ok := ctx.Value(appctx.SpectroCoinHistoryCodesCTXKey).(model.HistoryCodes)
	if !ok {
		codes = model.DefaultHistoryCodes
	}

	return Config{
		DatabaseURL:   str(appctx.DatabaseURLCTXKey),
		MigrationsURL: str(appctx.DatabaseMigrationsURLCTXKey),
		SignSecret:    str(appctx.SpectroCoinSignSecretCTXKey),
		ProjectID:     str(appctx.SpectroCoinProjectIDCTXKey),
		ClientID:      str(appctx.SpectroCoinClientIDCTXKey),
		ClientSecret:  str(appctx.SpectroCoinClientSecretCTXKey),
		TestMode:      testMode,
		APIURL:        str(appctx.SpectroCoinAPIURLCTXKey),
		APITimeout:    timeout,
		HistoryCodes:  codes,
	}
}

// Validate returns every problem found with c.
func (c Config) Validate() error {
	errs := &errorutils.MultiError{}

	if c.DatabaseURL == "" {
		errs.Append(ErrNoDatabaseURL)
	}

	set := 0
	for _, v := range []string{c.ProjectID, c.ClientID, c.ClientSecret} {
		if v != "" {
			set++
		}
	}

	if set != 0 && set != 3 {
		errs.Append(ErrIncompleteCredentials)
	}

	if c.SignSecret == "" && set == 0 {
		errs.Append(ErrNoCredentials)
	}

	codes := c.HistoryCodes
	for _, hc := range []struct {
		name string
		code model.HistoryCode
	}{
		{name: "processing", code: codes.Processing},
		{name: "complete", code: codes.Complete},
		{name: "failed", code: codes.Failed},
		{name: "expired", code: codes.Expired},
	} {
		if hc.code <= 0 {
			errs.Append(fmt.Errorf("%w: %s is %d", ErrInvalidHistoryCode, hc.name, hc.code))
		}
	}

	if errs.Count() > 0 {
		return errs
	}

	return nil
}

// MerchantConfig returns the merchant api client configuration.
func (c Config) MerchantConfig() spectrocoin.Config {
	return spectrocoin.Config{
		BaseURL:      spectrocoin.BaseURLFor(c.TestMode, c.APIURL),
		ProjectID:    c.ProjectID,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Timeout:      c.APITimeout,
	}
}
