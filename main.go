// =============================================================================
// Nota Fiscal Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   nfgen generate      - Generate one nota fiscal XML file
//   nfgen serve         - Serve the generator form over HTTP
//   nfgen version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Order handling, document mutation, output, server
//   - pkg/           : Shared file utilities
//   - templates/     : The embedded NF-e template
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/nota-fiscal-generator/cmd"
)

func main() {
	cmd.Execute()
}
