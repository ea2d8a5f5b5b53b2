// =============================================================================
// Nota Fiscal Generator - Version Command
// =============================================================================
//
// This file defines the 'version' command, which displays the application
// version and build information.
//
// COMMAND USAGE:
//   nfgen version
//
// OUTPUT:
//   Nota Fiscal Generator
//   Version:    1.0.0
//   Build Date: 2024-01-01
//   Go Version: go1.22.0 (linux/amd64)
//   Template:   nfe-order-details.mock.xml (embedded)
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/nota-fiscal-generator/templates"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/ginjaninja78/nota-fiscal-generator/cmd.Version=1.0.0'"

// Version is the application version.
// Set at build time using ldflags.
var Version = "1.0.0"

// BuildDate is the date the application was built.
// Set at build time using ldflags.
var BuildDate = "unknown"

// =============================================================================
// VERSION COMMAND DEFINITION
// =============================================================================

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, Go runtime and the embedded NF-e template.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), versionInfo())
	},
}

func versionInfo() string {
	return fmt.Sprintf("Nota Fiscal Generator\nVersion:    %s\nBuild Date: %s\nGo Version: %s (%s/%s)\nTemplate:   %s (embedded)\n",
		Version, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH, templates.DefaultNFeName)
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the version command with the root command.
func init() {
	rootCmd.AddCommand(versionCmd)
}
