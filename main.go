// =============================================================================
// Meal Voucher Generator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Meal Voucher Generator CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   vouchers render   - Render printable vouchers from reservation exports
//   vouchers inspect  - Summarize the vouchers an export would produce
//   vouchers serve    - Serve the upload and print page over HTTP
//   vouchers version  - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Pipeline stages (parse, rules, group, render)
//   - pkg/           : Shared utilities (files, logging)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/meal-vouchers/cmd"
)

func main() {
	cmd.Execute()
}
