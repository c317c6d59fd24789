package context

import "errors"

// CTXKey - a type for context keys
type CTXKey string

const (
	// EnvironmentCTXKey - the key used for service context
	EnvironmentCTXKey CTXKey = "environment"
	// DebugLoggingCTXKey - context key for debug logging
	DebugLoggingCTXKey CTXKey = "debug_logging"
	// LogLevelCTXKey - context key for application logging level
	LogLevelCTXKey CTXKey = "log_level"
	// LogWriterCTXKey - context key for a log writer override
	LogWriterCTXKey CTXKey = "log_writer"

	// VersionCTXKey - context key for version of code
	VersionCTXKey CTXKey = "version"
	// CommitCTXKey - context key for the commit of the code
	CommitCTXKey CTXKey = "commit"
	// BuildTimeCTXKey - context key for the build time of code
	BuildTimeCTXKey CTXKey = "build_time"

	// RateLimitPerMinuteCTXKey - the context key for getting the rate limit
	RateLimitPerMinuteCTXKey CTXKey = "rate_limit_per_min"
	// RateLimiterBurstCTXKey - context key for allowing a bursting rate limiter
	RateLimiterBurstCTXKey CTXKey = "rate_limit_burst"

	// DatabaseURLCTXKey - the context key for the ledger database url
	DatabaseURLCTXKey CTXKey = "database_url"
	// DatabaseMigrationsURLCTXKey - the context key for the migrations source url
	DatabaseMigrationsURLCTXKey CTXKey = "database_migrations_url"

	// SpectroCoinSignSecretCTXKey - the context key for the legacy callback signing secret
	SpectroCoinSignSecretCTXKey CTXKey = "spectrocoin_sign_secret"
	// SpectroCoinProjectIDCTXKey - the context key for the merchant project id
	SpectroCoinProjectIDCTXKey CTXKey = "spectrocoin_project_id"
	// SpectroCoinClientIDCTXKey - the context key for the merchant api client id
	SpectroCoinClientIDCTXKey CTXKey = "spectrocoin_client_id"
	// SpectroCoinClientSecretCTXKey - the context key for the merchant api client secret
	SpectroCoinClientSecretCTXKey CTXKey = "spectrocoin_client_secret"
	// SpectroCoinTestModeCTXKey - the context key for selecting the test api
	SpectroCoinTestModeCTXKey CTXKey = "spectrocoin_test_mode"
	// SpectroCoinAPIURLCTXKey - the context key for an api base url override
	SpectroCoinAPIURLCTXKey CTXKey = "spectrocoin_api_url"
	// SpectroCoinAPITimeoutCTXKey - the context key for the merchant api timeout
	SpectroCoinAPITimeoutCTXKey CTXKey = "spectrocoin_api_timeout"
	// SpectroCoinHistoryCodesCTXKey - the context key for the local history codes statuses map to
	SpectroCoinHistoryCodesCTXKey CTXKey = "spectrocoin_history_codes"
)

var (
	// ErrNotInContext - error you get when you ask for something not in the context.
	ErrNotInContext = errors.New("failed to get value from context")
	// ErrValueWrongType - error you get when you ask for something, and it is not the type you expected
	ErrValueWrongType = errors.New("context value of wrong type")
)
