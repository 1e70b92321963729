// Package config holds the process configuration of an analysis run.
//
// Every option is a typed field with a documented default; the whole value
// is passed explicitly to the driver. Core packages never read it.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project configuration file looked up by Find.
const FileName = ".refflow.toml"

// Severity levels accepted by minimum_severity.
const (
	SeverityLow      = 0
	SeverityNormal   = 5
	SeverityCritical = 10
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config enumerates every option of a run.
type Config struct {
	// Root is the project directory; relative paths are joined against it.
	Root string `toml:"-"`

	FileList                     []string `toml:"file_list"`
	DirectoryList                []string `toml:"directory_list"`
	ExcludeFileList              []string `toml:"exclude_file_list"`
	ExcludeAnalysisDirectoryList []string `toml:"exclude_analysis_directory_list"`
	ExpandFileList               bool     `toml:"expand_file_list"`

	QuickMode           bool     `toml:"quick_mode"`
	MinimumSeverity     int      `toml:"minimum_severity"`
	SuppressIssueTypes  []string `toml:"suppress_issue_types"`
	MaxPasses           int      `toml:"max_passes"`
	Processes           int      `toml:"processes"`
	RandomizeFileOrder  bool     `toml:"randomize_file_order"`
	ReadTypeAnnotations bool     `toml:"read_type_annotations"`

	AllowMissingProperties bool `toml:"allow_missing_properties"`
	NullCastsAsAnyType     bool `toml:"null_casts_as_any_type"`
	ScalarImplicitCast     bool `toml:"scalar_implicit_cast"`

	// Carried for compatibility; the analyzer does not implement them.
	BackwardCompatibilityChecks          bool     `toml:"backward_compatibility_checks"`
	ParentConstructorRequired            []string `toml:"parent_constructor_required"`
	AnalyzeSignatureCompatibility        bool     `toml:"analyze_signature_compatibility"`
	DeadCodeDetection                    bool     `toml:"dead_code_detection"`
	DeadCodeDetectionPreferFalseNegative bool     `toml:"dead_code_detection_prefer_false_negative"`
	DumpAST                              bool     `toml:"dump_ast"`

	StoredStateFilePath   string  `toml:"stored_state_file_path"`
	ProgressBar           bool    `toml:"progress_bar"`
	ProgressBarSampleRate float64 `toml:"progress_bar_sample_rate"`
	ProfilerEnabled       bool    `toml:"profiler_enabled"`
	MarkdownIssueMessages bool    `toml:"markdown_issue_messages"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BackwardCompatibilityChecks:          true,
		AnalyzeSignatureCompatibility:        true,
		MinimumSeverity:                      SeverityLow,
		ReadTypeAnnotations:                  true,
		DeadCodeDetectionPreferFalseNegative: true,
		ProgressBarSampleRate:                0.005,
		Processes:                            1,
		MaxPasses:                            8,
	}
}

// Load decodes path over Default. Unknown keys are rejected and the result is
// validated. Root becomes the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: %w: unknown keys: %s", path, ErrInvalid, strings.Join(keys, ", "))
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	cfg.Root = abs
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges. All problems are reported, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}
	switch c.MinimumSeverity {
	case SeverityLow, SeverityNormal, SeverityCritical:
	default:
		bad("minimum_severity must be 0, 5 or 10, got %d", c.MinimumSeverity)
	}
	if c.MaxPasses < 1 {
		bad("max_passes must be at least 1, got %d", c.MaxPasses)
	}
	if c.Processes < 1 {
		bad("processes must be at least 1, got %d", c.Processes)
	}
	if c.ProgressBarSampleRate <= 0 || c.ProgressBarSampleRate > 1 {
		bad("progress_bar_sample_rate must be in (0, 1], got %g", c.ProgressBarSampleRate)
	}
	for _, list := range []struct {
		key   string
		paths []string
	}{
		{"file_list", c.FileList},
		{"directory_list", c.DirectoryList},
		{"exclude_file_list", c.ExcludeFileList},
		{"exclude_analysis_directory_list", c.ExcludeAnalysisDirectoryList},
	} {
		for _, p := range list.paths {
			if strings.TrimSpace(p) == "" {
				bad("%s contains an empty path", list.key)
			}
		}
	}
	return errors.Join(errs...)
}

// ProjectPath joins rel against the project root. Absolute paths pass through.
func (c *Config) ProjectPath(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	root := c.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, rel)
}

// IsExcludedFromAnalysis reports whether path lies in an
// exclude_analysis_directory_list entry: such files contribute declarations
// but are neither analysed nor reported on.
func (c *Config) IsExcludedFromAnalysis(path string) bool {
	for _, dir := range c.ExcludeAnalysisDirectoryList {
		if pathWithin(c.ProjectPath(dir), c.ProjectPath(path)) {
			return true
		}
	}
	return false
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Find walks up from startDir to locate FileName.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest FileName above startDir, or Default rooted at
// startDir when none exists.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		cfg := Default()
		abs, err := filepath.Abs(startDir)
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve start directory: %w", err)
		}
		cfg.Root = abs
		return cfg, nil
	}
	return Load(path)
}

func pathWithin(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
