// =============================================================================
// Nota Fiscal Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'generate', 'serve') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (nfgen)
//   ├── generateCmd (nfgen generate)
//   ├── serveCmd    (nfgen serve)
//   └── versionCmd  (nfgen version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the main configuration
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/config"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nfgen",
	Short: "Nota Fiscal Generator - Build anonymized NF-e test documents",
	Long: `Nota Fiscal Generator produces NF-e XML documents from a mock template.

For every run it injects the seller and buyer CNPJs, the buyer address and a
list of installments, assigns a fresh document Id, anonymizes names and
e-mails, refreshes timestamps and recomputes every total.

Example Usage:
  nfgen generate                                # Defaults, one installment
  nfgen generate --order order.yaml             # Order from a YAML file
  nfgen generate --installments parcelas.csv    # Installments from CSV or XLSX
  nfgen generate -i                             # Interactive prompts
  nfgen serve                                   # Browser form on :8501`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
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
		"config.yaml",
		"Path to the main configuration file (a missing file means defaults)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// loadRuntime loads the main configuration and builds the logger from it.
func loadRuntime() (*config.MainConfig, *zap.Logger, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	logCfg := &logger.Config{
		Level:  mainConfig.LogLevel,
		Format: mainConfig.LogFormat,
		Output: mainConfig.LogOutput,
	}
	if verbose {
		logCfg.Level = "debug"
	}

	return mainConfig, logger.New(logCfg), nil
}
