// =============================================================================
// Meal Voucher Generator - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which starts the browser surface:
// an upload page, a tier toggle, printing and roster download.
//
// COMMAND USAGE:
//   vouchers serve [--addr :8080] [--tier MAP]
//
// The server stops gracefully on SIGINT or SIGTERM.
//
// =============================================================================

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/meal-vouchers/internal/server"
)

// serveAddr is the listen address.
var serveAddr string

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload and print page over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		handler := server.NewHandler(appConfig, logger)
		return server.Serve(cmd.Context(), serveAddr, handler, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
}
