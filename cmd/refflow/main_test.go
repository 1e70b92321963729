package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"refflow/internal/config"
)

const program = `{
  "path": "main.php",
  "functions": [
    {"name": "fill", "line": 1, "params": [{"name": "v", "line": 1, "by_ref": true}],
     "body": [{"op": "assign", "line": 2, "target": {"op": "var", "name": "v"}, "value": {"op": "lit", "type": "int"}}]}
  ],
  "main": [
    {"op": "call", "line": 5, "value": {"op": "call", "name": "fill", "args": [{"op": "var", "name": "x"}]}},
    {"op": "assign", "line": 6, "target": {"op": "var", "name": "z"}, "value": {"op": "var", "name": "missing"}}
  ]
}`

func project(t *testing.T, settings string) string {
	t.Helper()
	dir := t.TempDir()
	content := "directory_list = [\".\"]\n" + settings
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.ir.json"), []byte(program), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeReportsIssues(t *testing.T) {
	dir := project(t, "")
	out, err := execute(t, "analyze", "--config", filepath.Join(dir, config.FileName),
		"--ui", "off", "--format", "pretty", "--quiet")
	if !errors.Is(err, errIssuesFound) {
		t.Fatalf("err = %v, want issues found", err)
	}
	if !strings.Contains(out, "main.ir.json:6:") || !strings.Contains(out, "UndeclaredVariable") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestAnalyzeJSONWithStoredState(t *testing.T) {
	dir := project(t, "stored_state_file_path = \".refflow/state.msgpack\"\nsuppress_issue_types = [\"UndeclaredVariable\"]\n")
	cfgPath := filepath.Join(dir, config.FileName)
	for range 2 {
		out, err := execute(t, "analyze", "--config", cfgPath, "--ui", "off", "--format", "json", "--quiet")
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		if !strings.Contains(out, `"diagnostics"`) {
			t.Fatalf("output:\n%s", out)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".refflow", "state.msgpack")); err != nil {
		t.Fatalf("stored state: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	dir := project(t, "max_passes = 3\n")
	out, err := execute(t, "config", "show", "--config", filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "max_passes = 3") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, `"tool": "refflow"`) {
		t.Fatalf("output:\n%s", out)
	}
	versionFormat = "pretty"
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	path, err := writeDefaultConfig(dir, false)
	if err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	if _, err := writeDefaultConfig(dir, false); err == nil {
		t.Fatal("second init overwrote the file")
	}
	if _, err := writeDefaultConfig(dir, true); err != nil {
		t.Fatalf("forced init: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxPasses != config.Default().MaxPasses || len(cfg.DirectoryList) != 1 {
		t.Fatalf("loaded %+v", cfg)
	}
}
