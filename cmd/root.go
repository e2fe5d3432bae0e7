package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cryptvfs",
	Short: "Read-only inspector for ITG2-style encrypted arcade/patch files",
	Long: `cryptvfs is a read-only command-line tool for parsing, verifying, and
decrypting the encrypted-file format used by an arcade rhythm-game platform's
".kry" (dongle-keyed, arcade) and ".patch" (secret-keyed) file variants.
The CLI injects no dongle capability, so opening an arcade file without
--patch fails with a dongle-unavailable error.

Commands:
  stat    Print header metadata for one or more files
  verify  Run the key-verification handshake without decrypting the body
  cat     Decrypt a byte range and write it to stdout
  batch   Verify many files concurrently and report a combined result`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Only global output control flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}
