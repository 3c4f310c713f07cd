// =============================================================================
// POS Sales Report - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which starts the HTTP API. The
// server stops gracefully on SIGINT or SIGTERM.
//
// COMMAND USAGE:
//   salesreport serve [--addr :8080]
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-sales-report/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sales analysis over HTTP",
	Long: `The serve command starts the HTTP API. Each request uploads one export
(multipart field "file") and receives the analysis as JSON, a heatmap PNG
or the workbook download. Nothing is stored between requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conv, err := newConverter()
		if err != nil {
			return err
		}
		srv := server.New(conv, cfg, log)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-cmd.Context().Done():
		}

		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		log.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from server.addr)")
	serveCmd.Flags().Bool("embed-charts", false, "Embed charts in downloaded workbooks by default")
}
