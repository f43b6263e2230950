// proofengine evaluates regulatory compliance queries against stored evidence.
//
// Usage:
//
//	proofengine serve [--addr=:8080] [--archive=<dir>] [--watch] [--rate=<req/s>]
//	proofengine query <id> [--from --to] [--output table|markdown|json]
//	proofengine regulation <regulation> [--from --to] [--output ...]
//	proofengine summary [--from --to] [--output ...]
//	proofengine catalog validate
//	proofengine evidence import <file.json>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/proofengine/internal/logging"
	"github.com/gyaneshwarpardhi/proofengine/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	dbPath     string
}

var rootCmd = &cobra.Command{
	Use:   "proofengine",
	Short: "Prove regulatory compliance from recorded evidence",
	Long: "proofengine runs declarative compliance queries (GDPR, DORA, ...) against\n" +
		"an evidence store and reports a verdict, a confidence score and the gaps.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "configs/queries.yaml", "Path to the query catalog YAML")
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&rootFlags.dbPath, "db", store.DefaultDBPath, "Path to the SQLite evidence store")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(regulationCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(evidenceCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
