package main

import (
	"fmt"
	"os"

	"situationroom/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfg config.Config

// rootCmd runs the server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "situationroom",
	Short: "Election situation room form engine",
	Long: `situationroom serves form definitions, collects submissions and pushes
live report updates to dashboards.

Available subcommands:
  serve    - Run the HTTP server (default)
  migrate  - Apply database migrations
  seed     - Load reference data
  user     - Manage accounts`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the production logger at the configured level
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
