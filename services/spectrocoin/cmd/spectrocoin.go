package cmd

import (
	"time"

	rootcmd "github.com/brave-intl/spectrocoin-callback/cmd"
	"github.com/brave-intl/spectrocoin-callback/services/cmd"
	"github.com/spf13/cobra"
)

func init() {
	cmd.ServeCmd.AddCommand(spectrocoinCmd)

	rootcmd.NewFlagBuilder(spectrocoinCmd).
		Flag().String("database-url", "",
		"the postgres url of the order ledger").
		Bind("database-url").
		Env("DATABASE_URL").
		Flag().String("database-migrations-url", "file:///src/migrations",
		"the migrations source, migrations are skipped when empty").
		Bind("database-migrations-url").
		Env("DATABASE_MIGRATIONS_URL").
		Flag().String("spectrocoin-sign-secret", "",
		"the shared secret legacy callbacks are signed with").
		Bind("spectrocoin-sign-secret").
		Env("SPECTROCOIN_SIGN_SECRET").
		Flag().String("spectrocoin-project-id", "",
		"the merchant api project id").
		Bind("spectrocoin-project-id").
		Env("SPECTROCOIN_PROJECT_ID").
		Flag().String("spectrocoin-client-id", "",
		"the merchant api oauth client id").
		Bind("spectrocoin-client-id").
		Env("SPECTROCOIN_CLIENT_ID").
		Flag().String("spectrocoin-client-secret", "",
		"the merchant api oauth client secret").
		Bind("spectrocoin-client-secret").
		Env("SPECTROCOIN_CLIENT_SECRET").
		Flag().Bool("spectrocoin-test-mode", false,
		"use the merchant test api").
		Bind("spectrocoin-test-mode").
		Env("SPECTROCOIN_TEST_MODE").
		Flag().String("spectrocoin-api-url", "",
		"overrides the merchant api base url").
		Bind("spectrocoin-api-url").
		Env("SPECTROCOIN_API_URL").
		Flag().Duration("spectrocoin-api-timeout", 10*time.Second,
		"the merchant api request timeout").
		Bind("spectrocoin-api-timeout").
		Env("SPECTROCOIN_API_TIMEOUT").
		Flag().Int("history-processing-id", 2,
		"the order status a pending payment moves the order to").
		Bind("history-processing-id").
		Env("HISTORY_PROCESSING_ID").
		Flag().Int("history-complete-id", 15,
		"the order status a paid payment moves the order to").
		Bind("history-complete-id").
		Env("HISTORY_COMPLETE_ID").
		Flag().Int("history-failed-id", 7,
		"the order status a failed payment moves the order to").
		Bind("history-failed-id").
		Env("HISTORY_FAILED_ID").
		Flag().Int("history-expired-id", 14,
		"the order status an expired payment moves the order to").
		Bind("history-expired-id").
		Env("HISTORY_EXPIRED_ID")
}

var spectrocoinCmd = &cobra.Command{
	Use:   "spectrocoin",
	Short: "provides the spectrocoin payment callback service",
	Run:   rootcmd.Perform("spectrocoin", RunSpectroCoinServer),
}
