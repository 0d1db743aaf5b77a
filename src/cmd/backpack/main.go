// Package main provides the backpack CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sasquatch-backpack/src/config"
	"sasquatch-backpack/src/logger"
)

const (
	exitPublishError = 1
	exitUsage        = 2
)

var (
	appConfig *config.Config
	log       logger.Logger
)

// exitError carries the process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: exitUsage, err: err}
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "backpack",
	Short: "Sasquatch backpack - publish external data sources to Sasquatch",
	Long: `backpack queries external data sources and publishes new entries to Kafka
through the Sasquatch REST proxy or a direct broker connection.

Entries already published are remembered in a membership cache
(BACKPACK_REDIS_URL) so repeated runs only send what is new.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appConfig, err = config.LoadFromEnv()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		log = logger.NewConsoleLogger(appConfig.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})
	rootCmd.AddCommand(newEarthquakeCmd())
	rootCmd.AddCommand(newTestRedisCmd())
	rootCmd.AddCommand(newServeCmd())
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return exitPublishError
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
