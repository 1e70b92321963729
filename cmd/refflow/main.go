package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"refflow/internal/trace"
	"refflow/internal/version"
)

// errIssuesFound makes the process exit with status 1 without printing an error.
var errIssuesFound = errors.New("issues found")

var rootCmd = &cobra.Command{
	Use:           "refflow",
	Short:         "Whole-program type inference for by-reference parameters",
	Long:          `refflow analyses lowered PHP programs and reports type issues, following values through by-reference parameters until the inferred types stop changing`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("config", "", "path to .refflow.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 1000, "maximum number of diagnostics to keep")

	rootCmd.PersistentFlags().String("trace", "", "trace output path (\"-\" for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson|logfmt)")
	rootCmd.PersistentFlags().Int("trace-ring-size", trace.DefaultRingSize, "events kept by the ring tracer")
	rootCmd.PersistentFlags().Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")

	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this path")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this path")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a runtime trace to this path")
}

// main executes the root command. Issues exit with status 1, failures with
// status 2.
func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errIssuesFound) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "refflow:", err)
		os.Exit(2)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
