package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"refflow/internal/analysis"
	"refflow/internal/config"
	"refflow/internal/diag"
	"refflow/internal/diagfmt"
	"refflow/internal/ir"
	"refflow/internal/observ"
	"refflow/internal/source"
	"refflow/internal/statecache"
	"refflow/internal/trace"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [file.ir.json|directory]...",
	Short: "Analyse a program and report issues",
	Long: `Analyse the files selected by the project configuration, or the given
files and directories, and print the issues found. The exit status is 1 when
errors or warnings are reported.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "", "output format (pretty|markdown|json); default from markdown_issue_messages")
	analyzeCmd.Flags().String("path-mode", "auto", "how file paths are printed (auto|absolute|relative|basename)")
	analyzeCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	analyzeCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	analyzeCmd.Flags().Bool("quick", false, "single pass; by-value calls are not re-analysed")
	analyzeCmd.Flags().IntP("jobs", "j", 0, "worker processes (0: processes from the configuration)")
	analyzeCmd.Flags().Int("max-passes", 0, "pass bound (0: max_passes from the configuration)")
	analyzeCmd.Flags().Int("minimum-severity", -1, "lowest severity level reported (0|5|10)")
	analyzeCmd.Flags().Uint64("seed", 0, "file order seed for randomize_file_order (0: time based)")
	analyzeCmd.Flags().Bool("no-cache", false, "ignore stored_state_file_path")
}

type analyzeFlags struct {
	format     string
	pathMode   diagfmt.PathMode
	withNotes  bool
	ui         uiMode
	seed       uint64
	noCache    bool
	quiet      bool
	timings    bool
	maxDiags   int
	colorValue string
}

func readAnalyzeFlags(cmd *cobra.Command) (analyzeFlags, error) {
	var (
		fl  analyzeFlags
		err error
	)
	flags := cmd.Flags()
	if fl.format, err = flags.GetString("format"); err != nil {
		return fl, fmt.Errorf("failed to get format flag: %w", err)
	}
	pathMode, err := flags.GetString("path-mode")
	if err != nil {
		return fl, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	var ok bool
	if fl.pathMode, ok = diagfmt.ParsePathMode(pathMode); !ok {
		return fl, fmt.Errorf("unknown path mode %q", pathMode)
	}
	if fl.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return fl, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return fl, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if fl.ui, err = readUIMode(uiValue); err != nil {
		return fl, err
	}
	if fl.seed, err = flags.GetUint64("seed"); err != nil {
		return fl, fmt.Errorf("failed to get seed flag: %w", err)
	}
	if fl.noCache, err = flags.GetBool("no-cache"); err != nil {
		return fl, fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	root := cmd.Root().PersistentFlags()
	if fl.quiet, err = root.GetBool("quiet"); err != nil {
		return fl, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if fl.timings, err = root.GetBool("timings"); err != nil {
		return fl, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if fl.maxDiags, err = root.GetInt("max-diagnostics"); err != nil {
		return fl, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if fl.colorValue, err = root.GetString("color"); err != nil {
		return fl, fmt.Errorf("failed to get color flag: %w", err)
	}
	return fl, nil
}

// loadConfig reads --config, or discovers the project file from the working
// directory.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	return config.Discover(".")
}

// applyOverrides layers analyze flags and positional paths over cfg.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.FileList = nil
		cfg.DirectoryList = nil
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", arg, err)
			}
			cfg.FileList = append(cfg.FileList, abs)
		}
		cfg.ExpandFileList = true
	}

	flags := cmd.Flags()
	if flags.Changed("quick") {
		quick, err := flags.GetBool("quick")
		if err != nil {
			return fmt.Errorf("failed to get quick flag: %w", err)
		}
		cfg.QuickMode = quick
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs > 0 {
		cfg.Processes = jobs
	}
	passes, err := flags.GetInt("max-passes")
	if err != nil {
		return fmt.Errorf("failed to get max-passes flag: %w", err)
	}
	if passes > 0 {
		cfg.MaxPasses = passes
	}
	sev, err := flags.GetInt("minimum-severity")
	if err != nil {
		return fmt.Errorf("failed to get minimum-severity flag: %w", err)
	}
	if sev >= 0 {
		cfg.MinimumSeverity = sev
	}
	return cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fl, err := readAnalyzeFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, &cfg, args); err != nil {
		return err
	}

	stopTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer stopTrace()
	stopProfiling, err := setupProfiling(cmd, &cfg)
	if err != nil {
		return err
	}
	defer stopProfiling()

	span, ctx := trace.Start(cmd.Context(), trace.ScopeDriver, "refflow.analyze")
	defer span.End("")
	tr := trace.FromContext(ctx)
	defer dumpTraceOnPanic(cmd, tr)

	timer := observ.NewTimer()
	fileSet := source.NewFileSetWithBase(cfg.Root)
	var files []*ir.File
	err = timer.Track("load", func() (string, error) {
		var loadErr error
		files, loadErr = ir.LoadDir(fileSet, ir.Sources{
			Root:        cfg.Root,
			Files:       cfg.FileList,
			Directories: cfg.DirectoryList,
			Exclude:     cfg.ExcludeFileList,
			ExpandFiles: cfg.ExpandFileList,
		})
		return fmt.Sprintf("%d files", len(files)), loadErr
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no input files: set file_list or directory_list, or pass paths")
	}
	if cfg.DumpAST {
		return dumpFiles(cmd.OutOrStdout(), files)
	}

	var (
		cache *statecache.Store
		key   statecache.Digest
		seed  *analysis.Summary
	)
	if cfg.StoredStateFilePath != "" && !fl.noCache {
		cache = statecache.Open(cfg.ProjectPath(cfg.StoredStateFilePath))
		key = statecache.Key(sourceFiles(fileSet, files), cfg)
		payload, ok, loadErr := cache.Load(key)
		switch {
		case errors.Is(loadErr, statecache.ErrMismatch):
			trace.Point(tr, trace.ScopeDriver, "state.mismatch", span.ID(), cache.Path())
		case loadErr != nil:
			if !fl.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignoring stored state: %v\n", loadErr)
			}
		case ok:
			seed = payload.Summary
		}
	}

	bag := diag.NewBag(fl.maxDiags)
	filter, err := diag.NewFilterReporter(diag.BagReporter{Bag: bag}, cfg.MinimumSeverity, cfg.SuppressIssueTypes)
	if err != nil {
		return err
	}
	dedup := diag.NewDedupReporter(filter)
	opts := analysis.Options{
		Files:    files,
		FileSet:  fileSet,
		Config:   cfg,
		Reporter: dedup,
		Seed:     seed,
	}
	shuffleSeed := fl.seed
	if shuffleSeed == 0 {
		shuffleSeed = uint64(time.Now().UnixNano())
	}

	var res *analysis.Result
	err = timer.Track("analyze", func() (string, error) {
		var runErr error
		res, runErr = runAnalysis(ctx, fl, cfg, fileSet, opts, shuffleSeed)
		if res == nil {
			return "", runErr
		}
		note := fmt.Sprintf("%d passes", res.Passes)
		if res.Rounds > 1 {
			note += fmt.Sprintf(", %d rounds", res.Rounds)
		}
		if !res.Converged {
			note += ", not converged"
		}
		return note, runErr
	})
	if err != nil {
		dumpTrace(cmd, tr)
		return err
	}

	if cache != nil {
		if err := cache.Save(key, displayPaths(fileSet, files), res); err != nil && !fl.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to store state: %v\n", err)
		}
	}

	format := fl.format
	if format == "" {
		format = "pretty"
		if cfg.MarkdownIssueMessages {
			format = "markdown"
		}
	}
	if fl.timings && format == "json" {
		observ.ReportTimings(diag.BagReporter{Bag: bag}, timer)
	}
	bag.Sort()
	trace.Point(tr, trace.ScopeDriver, "diagnostics", span.ID(),
		fmt.Sprintf("%d kept, %d repeats dropped", bag.Len(), dedup.Suppressed()))
	if err := render(cmd, fl, format, bag, fileSet); err != nil {
		return err
	}
	if fl.timings && format != "json" {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}

	errs, warns, infos := diagfmt.Counts(bag)
	if !fl.quiet && format != "json" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d errors, %d warnings, %d infos\n", errs, warns, infos)
	}
	if errs+warns > 0 {
		return errIssuesFound
	}
	return nil
}

func runAnalysis(ctx context.Context, fl analyzeFlags, cfg config.Config, fileSet *source.FileSet, opts analysis.Options, shuffleSeed uint64) (*analysis.Result, error) {
	if !shouldUseTUI(fl.ui, cfg.ProgressBar) || fl.quiet {
		return analysis.RunParallel(ctx, opts, shuffleSeed)
	}
	title := fmt.Sprintf("analyzing %d files", len(opts.Files))
	return runAnalysisWithUI(ctx, title, displayPaths(fileSet, opts.Files), opts, shuffleSeed)
}

func render(cmd *cobra.Command, fl analyzeFlags, format string, bag *diag.Bag, fileSet *source.FileSet) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		return diagfmt.JSON(out, bag, fileSet, diagfmt.JSONOpts{PathMode: fl.pathMode, IncludeNotes: fl.withNotes})
	case "pretty", "markdown":
		stdout, _ := out.(*os.File)
		useColor, err := colorMode(fl.colorValue, stdout)
		if err != nil {
			return err
		}
		opts := diagfmt.PrettyOpts{Color: useColor, PathMode: fl.pathMode, ShowNotes: fl.withNotes}
		if format == "markdown" {
			opts.Markdown = true
			return diagfmt.Markdown(out, bag, fileSet, opts)
		}
		return diagfmt.Pretty(out, bag, fileSet, opts)
	default:
		return fmt.Errorf("unknown format %q (expected pretty|markdown|json)", format)
	}
}

func sourceFiles(fileSet *source.FileSet, files []*ir.File) []*source.File {
	out := make([]*source.File, 0, len(files))
	for _, f := range files {
		out = append(out, fileSet.Get(f.ID))
	}
	return out
}

func displayPaths(fileSet *source.FileSet, files []*ir.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, fileSet.DisplayPath(f.ID))
	}
	return out
}

var dumpJSON = jsoniter.Config{
	EscapeHTML:    false,
	SortMapKeys:   true,
	IndentionStep: 2,
}.Froze()

// dumpFiles prints the decoded program, one document per file.
func dumpFiles(w io.Writer, files []*ir.File) error {
	for _, f := range files {
		data, err := dumpJSON.Marshal(f)
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	}
	return nil
}
