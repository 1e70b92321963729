package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("a.ir.json", []byte("{}"), 0)
	id2 := fs.Add("a.ir.json", []byte("{\"path\":\"a.php\"}"), 0)
	if id1 == id2 {
		t.Fatalf("expected a new FileID for the second version")
	}

	latest, ok := fs.GetLatest("a.ir.json")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	// старая версия остаётся доступной
	if got := string(fs.Get(id1).Content); got != "{}" {
		t.Fatalf("old content lost: %q", got)
	}
	if fs.Get(id1).Hash == fs.Get(id2).Hash {
		t.Fatalf("different content must hash differently")
	}
	if len(fs.Latest()) != 1 {
		t.Fatalf("Latest should collapse versions, got %d", len(fs.Latest()))
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.ir.json")
	content := []byte("\xEF\xBB\xBF{\r\n}\r\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "{\n}\n" {
		t.Fatalf("unexpected normalized content %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected BOM and CRLF flags, got %b", f.Flags)
	}
	if got := fs.DisplayPath(id); got != "crlf.ir.json" {
		t.Fatalf("DisplayPath = %q", got)
	}
}

func TestFileSetGetOutOfRange(t *testing.T) {
	fs := NewFileSet()
	if fs.Get(3) != nil {
		t.Fatalf("expected nil for unknown file")
	}
	if got := fs.DisplayPath(3); got != "<file 3>" {
		t.Fatalf("DisplayPath = %q", got)
	}
}

func TestRelativePathOutsideBaseFallsBackToAbsolute(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "base")
	target := filepath.Join(tmp, "other", "file.ir.json")

	got, err := RelativePath(target, base)
	if err != nil {
		t.Fatalf("RelativePath returned error: %v", err)
	}
	if want := normalizePath(target); got != want {
		t.Fatalf("RelativePath = %q, want %q", got, want)
	}
}
