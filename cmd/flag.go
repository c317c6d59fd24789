package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// FlagBuilder creates a flag builder
type FlagBuilder struct {
	commands []*cobra.Command
	key      string
}

func init() {
	viper.AutomaticEnv()
}

// Bind runs the BindPFlag function
func (fb *FlagBuilder) Bind(key string) *FlagBuilder {
	return fb.loopCommands(func(command *cobra.Command) {
		Must(viper.BindPFlag(key, command.Flags().Lookup(key)))
	})
}

// SetKey sets the key to be shared across methods
func (fb *FlagBuilder) SetKey(key string) *FlagBuilder {
	if fb.key != "" {
		Must(fmt.Errorf("key has already been set to '%s' cannot set to '%s' try calling .Flag() before starting to define a new flag", fb.key, key))
	}
	fb.key = key
	return fb
}

// Flag resets the builder to allow for chaining
func (fb *FlagBuilder) Flag() *FlagBuilder {
	fb.key = ""
	return fb
}

// String attaches a string flag to the command
func (fb *FlagBuilder) String(key string, defaultValue string, description string) *FlagBuilder {
	return fb.SetKey(key).
		loopCommands(func(command *cobra.Command) {
			command.Flags().String(key, defaultValue, description)
		})
}

// Duration attaches a duration flag to the command
func (fb *FlagBuilder) Duration(key string, defaultValue time.Duration, description string) *FlagBuilder {
	return fb.SetKey(key).
		loopCommands(func(command *cobra.Command) {
			command.Flags().Duration(key, defaultValue, description)
		})
}

// Int attaches an int flag to the command
func (fb *FlagBuilder) Int(key string, defaultValue int, description string) *FlagBuilder {
	return fb.SetKey(key).
		loopCommands(func(command *cobra.Command) {
			command.Flags().Int(key, defaultValue, description)
		})
}

// Bool attaches a bool flag to the command
func (fb *FlagBuilder) Bool(key string, defaultValue bool, description string) *FlagBuilder {
	return fb.SetKey(key).
		loopCommands(func(command *cobra.Command) {
			command.Flags().Bool(key, defaultValue, description)
		})
}

// Env attaches an env
func (fb *FlagBuilder) Env(env string) *FlagBuilder {
	Must(viper.BindEnv(fb.key, env))
	return fb
}

// NewFlagBuilder creates a new FlagBuilder from one command
func NewFlagBuilder(command *cobra.Command) *FlagBuilder {
	fb := &FlagBuilder{}
	if command != nil {
		fb.commands = append(fb.commands, command)
	}
	return fb
}

func (fb *FlagBuilder) loopCommands(iterator func(*cobra.Command)) *FlagBuilder {
	for _, command := range fb.commands {
		iterator(command)
	}
	return fb
}

// Must helper to make sure there is no errors
func Must(err error) {
	if err != nil {
		log.Printf("failed to initialize: %s\n", err.Error())
		// exit with failure
		os.Exit(1)
	}
}
