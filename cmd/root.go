package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brave-intl/spectrocoin-callback/libs/clients"
	appctx "github.com/brave-intl/spectrocoin-callback/libs/context"
	errorutils "github.com/brave-intl/spectrocoin-callback/libs/errors"
	"github.com/brave-intl/spectrocoin-callback/libs/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// RootCmd is the base command (what the binary is called)
	RootCmd = &cobra.Command{
		Use:   "spectrocoin-callback",
		Short: "spectrocoin-callback ingests SpectroCoin payment callbacks and reconciles order status",
	}
	ctx = context.Background()
)

// Execute - the main entrypoint for all subcommands
func Execute(version, commit, buildTime string) {
	// setup context with logging, but first we need to setup the environment
	var logger *zerolog.Logger
	ctx = context.WithValue(ctx, appctx.EnvironmentCTXKey, viper.GetString("environment"))
	ctx = context.WithValue(ctx, appctx.DebugLoggingCTXKey, viper.GetBool("debug"))
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	ctx, logger = logging.SetupLoggerWithLevel(ctx, level)

	ctx = context.WithValue(ctx, appctx.VersionCTXKey, version)
	ctx = context.WithValue(ctx, appctx.CommitCTXKey, commit)
	ctx = context.WithValue(ctx, appctx.BuildTimeCTXKey, buildTime)

	// execute the root cmd
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("./spectrocoin-callback command encountered an error")
		os.Exit(1)
	}
}

func init() {
	// env - defaults to local
	RootCmd.PersistentFlags().String("environment", "local",
		"the default environment")
	Must(viper.BindPFlag("environment", RootCmd.PersistentFlags().Lookup("environment")))
	Must(viper.BindEnv("environment", "ENV"))

	// debug logging - defaults to off
	RootCmd.PersistentFlags().Bool("debug", false, "turn on debug logging")
	Must(viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug")))
	Must(viper.BindEnv("debug", "DEBUG"))

	RootCmd.PersistentFlags().String("log-level", "info", "the log level (trace, debug, info, warn, error)")
	Must(viper.BindPFlag("log-level", RootCmd.PersistentFlags().Lookup("log-level")))
	Must(viper.BindEnv("log-level", "LOG_LEVEL"))

	RootCmd.AddCommand(VersionCmd)
}

// VersionCmd is the command to get the code's version information
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "get the version of this binary",
	Run:   versionRun,
}

func versionRun(command *cobra.Command, args []string) {
	version, _ := command.Context().Value(appctx.VersionCTXKey).(string)
	commit, _ := command.Context().Value(appctx.CommitCTXKey).(string)
	buildTime, _ := command.Context().Value(appctx.BuildTimeCTXKey).(string)
	fmt.Printf("version: %s\ncommit: %s\nbuild time: %s\n",
		version, commit, buildTime,
	)
}

// Perform performs a run
func Perform(action string, fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		err := fn(cmd, args)
		if err != nil {
			logger := logging.FromContext(cmd.Context())

			log := logger.Err(err).Str("action", action)
			var bundle *errorutils.ErrorBundle
			if errors.As(err, &bundle) {
				if state, ok := bundle.Data().(clients.HTTPState); ok {
					log = log.Int("status", state.Status).
						Str("path", state.Path).
						Interface("data", state.Body)
				}
			}
			log.Msg("failed")
		}
		<-time.After(10 * time.Millisecond)
		if err != nil {
			os.Exit(1)
		}
	}
}
