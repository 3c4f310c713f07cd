// =============================================================================
// POS Sales Report - Main Entry Point
// =============================================================================
//
// This is the main entry point for the salesreport CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   salesreport process   - Process every export in the input directory
//   salesreport analyze   - Print the report views of one export
//   salesreport serve     - Serve the HTTP API
//   salesreport version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline stages, report views, charts and the HTTP server
//   - pkg/       : Shared file management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/pos-sales-report/cmd"
)

func main() {
	cmd.Execute()
}
