// =============================================================================
// POS Sales Report - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (salesreport)
//   ├── processCmd (salesreport process)
//   ├── analyzeCmd (salesreport analyze <file>)
//   ├── serveCmd   (salesreport serve)
//   └── versionCmd (salesreport version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the layered configuration (defaults, file, env, flags)
//   2. Sets up the zerolog logger
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-sales-report/internal/config"
	"github.com/ginjaninja78/pos-sales-report/internal/logger"
	"github.com/ginjaninja78/pos-sales-report/internal/pipeline"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// When empty, salesreport.yaml in the working directory is used if present.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// cfg and log are set by the root command before any subcommand runs.
var (
	cfg *config.Config
	log zerolog.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "salesreport",
	Short: "POS Sales Report - Turn POS receipt-line exports into sales analysis workbooks",
	Long: `salesreport reads receipt-line exports from the POS system (Shift_JIS CSV
or xlsx, two boilerplate lines before the header) and produces the sales
analysis: daily, monthly, hourly, per-product, ranking and weekday views,
written as one Excel workbook with optional charts.

Example Usage:
  salesreport process                      # Process every export in the input directory
  salesreport analyze sales.csv            # Print every view of one export
  salesreport analyze sales.csv --weekday wed
  salesreport serve --addr :8080           # Serve the HTTP API
  salesreport process --config ./my.yaml   # Use a custom configuration file`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main(). SIGINT and SIGTERM
// cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file (default is ./"+config.DefaultConfigFile+" when present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().String("stores", "", "Path to a store directory YAML overriding the built-in one")
	rootCmd.PersistentFlags().String("encoding", "", "Input CSV encoding (shift_jis or utf-8)")
}

// initConfig loads the configuration with the invoked command's flags as
// the highest-precedence layer, then builds the logger.
func initConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if verbose {
		loaded.LogLevel = "debug"
	}

	cfg = loaded
	log = logger.New(cfg.LogLevel, cfg.LogPretty)
	return nil
}

// newConverter builds the pipeline shared by every command.
func newConverter() (*pipeline.Converter, error) {
	dir, err := cfg.LoadDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to load store directory: %w", err)
	}
	log.Debug().Int("stores", len(dir.Order())).Msg("loaded store directory")
	return pipeline.New(cfg, dir, log), nil
}
