// varscope — rule-based anomaly detection for financial statements.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/varscope/api"
	"github.com/seenimoa/varscope/internal/account"
	"github.com/seenimoa/varscope/internal/analysis"
	"github.com/seenimoa/varscope/internal/batch"
	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/internal/loader"
	"github.com/seenimoa/varscope/internal/report"
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
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "varscope",
	Short: "varscope — financial statement anomaly detection",
	Long: `varscope
Rule-based anomaly detection for comparative financial statements:
variance analysis, inter-account correlation rules, sign-change and
recurring-item checks, with severity-ranked findings and reports.`,
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
		setupLogging(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(serveCmd)
}

// setupLogging installs the default slog logger per config.
func setupLogging(lc config.LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(lc.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("varscope %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a financial statement file or directory",
	Long: `Load a comparative financial statement (CSV file, or a directory with
balance sheet and income statement files), run the full detection
pipeline, and write a report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if format == "" {
			format = cfg.Report.Format
		}
		if format == "" {
			format = string(report.FormatText)
		}

		pipeline, err := analysis.NewPipeline(cfg)
		if err != nil {
			return err
		}

		mapper := account.NewMapper(cfg.Accounts)
		ld := loader.NewLoader(mapper, slog.Default())

		snap, err := ld.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}

		issues := loader.Validate(snap)
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "%s: %s\n", issue.Severity, issue.Message)
		}
		if !loader.Analyzable(issues) {
			return fmt.Errorf("%s: snapshot failed validation", path)
		}

		result := pipeline.Run(snap)

		gen := report.NewGenerator(filepath.Base(path))
		w := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return gen.Write(w, result, report.Format(format))
	},
}

func init() {
	analyzeCmd.Flags().String("format", "", "report format: text, html, csv (default from config)")
	analyzeCmd.Flags().StringP("output", "o", "", "write report to file instead of stdout")
}

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [paths...]",
	Short: "Analyze multiple statement files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = string(report.FormatText)
		}
		if outputDir == "" {
			outputDir = cfg.Report.OutputDir
		}

		pipeline, err := analysis.NewPipeline(cfg)
		if err != nil {
			return err
		}

		mapper := account.NewMapper(cfg.Accounts)
		ld := loader.NewLoader(mapper, slog.Default())

		proc := batch.NewProcessor(pipeline, ld, concurrency, slog.Default())
		proc.OnProgress(func(e batch.Event) {
			if e.Stage == "done" || e.Stage == "failed" {
				fmt.Fprintf(os.Stderr, "%-10s %s\n", e.Stage, e.File)
			}
		})

		results, summary, err := proc.Run(cmd.Context(), args)
		if err != nil {
			return err
		}

		if outputDir != "" {
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}
			for _, fr := range results {
				if fr.Err != nil {
					continue
				}
				name := strings.TrimSuffix(filepath.Base(fr.Path), filepath.Ext(fr.Path))
				out := filepath.Join(outputDir, name+"."+format)
				if err := writeReport(out, fr, report.Format(format)); err != nil {
					return err
				}
			}
		}

		fmt.Printf("\nBatch complete: %d files, %d failed, %d anomalies\n",
			summary.Files, summary.Failed, summary.TotalAnomalies)
		for sev, n := range summary.BySeverity {
			fmt.Printf("  %-8s %d\n", sev, n)
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Files)
		}
		return nil
	},
}

func writeReport(path string, fr batch.FileResult, format report.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	gen := report.NewGenerator(filepath.Base(fr.Path))
	return gen.Write(f, fr.Result, format)
}

func init() {
	batchCmd.Flags().Int("concurrency", 4, "number of files analyzed in parallel")
	batchCmd.Flags().String("format", "", "report format: text, html, csv")
	batchCmd.Flags().String("output-dir", "", "directory for per-file reports (default from config)")
}

// --- Rules Command ---

var rulesCmd = &cobra.Command{
	Use:   "rules [id]",
	Short: "List the rule violation catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := analysis.NewPipeline(cfg)
		if err != nil {
			return err
		}
		reg := pipeline.Registry()

		if len(args) == 1 {
			rv, ok := reg.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown rule: %s", args[0])
			}
			fmt.Printf("%s  %s\n", rv.RuleID, rv.RuleName)
			fmt.Printf("  category:  %s\n", rv.Category)
			fmt.Printf("  threshold: %.1f\n", rv.ThresholdValue)
			fmt.Printf("  %s\n", rv.Description)
			return nil
		}

		for _, rv := range reg.All() {
			fmt.Printf("%-6s %-12s %s\n", rv.RuleID, rv.Category, rv.RuleName)
		}
		return nil
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting varscope API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}
