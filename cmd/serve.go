// =============================================================================
// Nota Fiscal Generator - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the browser front end.
//
// COMMAND USAGE:
//   nfgen serve [--addr :8501]
//
// STARTUP:
//   1. Load configuration
//   2. Remove generated files older than output_retention (if set)
//   3. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/nota-fiscal-generator/internal/converter"
	"github.com/ginjaninja78/nota-fiscal-generator/internal/server"
	"github.com/ginjaninja78/nota-fiscal-generator/pkg/utils"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the nota fiscal form over HTTP",
	Long: `The serve command starts an HTTP server with a form pre-filled with the
default order. Submitting it generates a nota fiscal and downloads it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe() error {
	mainConfig, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	if serveAddr != "" {
		mainConfig.Server.Addr = serveAddr
	}
	if !verbose && mainConfig.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	retention, err := mainConfig.Retention()
	if err != nil {
		return err
	}
	if retention > 0 {
		removed, err := utils.CleanOldOutputs(mainConfig.OutputDir, mainConfig.FilePrefix, retention)
		if err != nil {
			log.Warn("output sweep failed", zap.Error(err))
		} else {
			log.Info("output sweep done", zap.Int("removed", removed), zap.Duration("retention", retention))
		}
	}

	conv, err := converter.NewFromConfig(mainConfig, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(mainConfig, conv, log).Run(ctx)
}
