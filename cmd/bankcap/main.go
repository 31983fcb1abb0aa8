// bankcap extracts the largest banks by market capitalization, converts
// their market caps into GBP, EUR and INR, and loads the result into a
// CSV file and a relational table.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/seenimoa/bankcap/internal/config"
	"github.com/seenimoa/bankcap/internal/pipeline"
	"github.com/seenimoa/bankcap/internal/progress"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bankcap",
	Short: "ETL job for the largest banks by market capitalization",
	Long: `bankcap extracts the list of the largest banks by market capitalization,
converts each market cap from USD into GBP, EUR and INR, saves the
result to a CSV file and a database table, and runs report queries
against the table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		slog.SetDefault(newLogger(cfg.Logging))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/bankcap.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger builds the diagnostic logger. It writes to stderr so report
// output on stdout stays clean.
func newLogger(lc config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(lc.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Skip config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bankcap %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full extract, transform, load and report job",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := slog.Default().With("run_id", uuid.NewString())

		pl, err := progress.Open(cfg.Logging.ProgressPath)
		if err != nil {
			return err
		}
		defer pl.Close()
		logger.Debug("progress log opened", "path", pl.Path())

		p, err := pipeline.New(cfg,
			pipeline.WithProgress(pl),
			pipeline.WithOutput(cmd.OutOrStdout()),
			pipeline.WithLogger(logger),
		)
		if err != nil {
			return err
		}

		res, err := p.Run(ctx)
		if err != nil {
			logger.Error("run failed", "error", err)
			return err
		}
		logger.Info("run finished", "banks", len(res.Rows), "queries", len(res.Reports))
		return nil
	},
}

// --- Query Command ---

var queryCmd = &cobra.Command{
	Use:   "query [sql...]",
	Short: "Run read-only queries against the loaded table",
	Long: `Run one or more read-only SQL statements against the store without
re-running the job. With no arguments the configured report queries run.

Examples:
  bankcap query
  bankcap query 'SELECT Name, MC_EUR_Billion FROM Largest_banks LIMIT 3'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if format, _ := cmd.Flags().GetString("format"); format != "" {
			cfg.Report.Format = format
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		_, err := pipeline.Query(ctx, cfg, cmd.OutOrStdout(), args)
		return err
	},
}

func init() {
	queryCmd.Flags().String("format", "", "output format override (text, json, html)")
}

// --- Config Command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and where each value comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Describe(cfg, config.Defaults())

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(settings)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tVALUE\tSOURCE")
		for _, s := range settings {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Key, s.Value, s.Source)
		}
		return w.Flush()
	},
}

func init() {
	configCmd.Flags().Bool("json", false, "print settings as JSON")
}

// runContext is used by tests to drive commands without a terminal.
func runContext(ctx context.Context, args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
