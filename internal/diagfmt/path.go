package diagfmt

import (
	"path/filepath"

	"refflow/internal/diag"
	"refflow/internal/source"
)

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return fs.DisplayPath(id)
	}
	switch mode {
	case PathModeAbsolute:
		if f.Flags&source.FileVirtual != 0 {
			return f.Path
		}
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeRelative:
		if rel, err := source.RelativePath(f.Path, fs.BaseDir()); err == nil {
			return rel
		}
		return f.Path
	case PathModeBasename:
		return source.BaseName(f.Path)
	default:
		return diag.DisplayPath(fs, id)
	}
}
