// Package main provides the velvet_rope CLI: the HTTP API server and a
// terminal runner for the whole pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "velvet_rope",
	Short: "Velvet Rope event applicant pipeline",
	Long: `Velvet Rope turns a roster of event applicants into a simulated party:
upload -> profiles -> pitches -> bouncer -> guest list -> venue -> party.

State persists between invocations, in PostgreSQL when DATABASE_URL is set
and in a JSON file under --state-dir otherwise.`,
	SilenceUsage: true,
}

var (
	rootConfigPath  string
	rootStateDir    string
	rootDatabaseURL string
	rootLogFile     string
	rootLogLevel    string
	rootSeed        uint64
	rootVerbose     bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVar(&rootStateDir, "state-dir", "", "Directory for the pipeline state file (default .velvet-rope)")
	flags.StringVar(&rootDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	flags.StringVar(&rootLogFile, "log-file", "", "Also write JSON logs to this file")
	flags.StringVar(&rootLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.Uint64Var(&rootSeed, "seed", 0, "Seed for the fallback simulation and synthetic bouncer (0 uses the clock)")
	flags.BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed progress")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
