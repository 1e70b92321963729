package ir

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"refflow/internal/source"
)

// Ext is the file extension of lowered scripts.
const Ext = ".ir.json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decode parses one lowered script. Unknown fields are rejected.
func Decode(data []byte) (*File, error) {
	d := json.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	var f File
	if err := d.Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile registers path in fileSet, decodes and validates it.
func LoadFile(fileSet *source.FileSet, path string) (*File, error) {
	id, err := fileSet.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return decodeRegistered(fileSet, id)
}

// LoadVirtual is LoadFile for in-memory content.
func LoadVirtual(fileSet *source.FileSet, name string, content []byte) (*File, error) {
	id := fileSet.AddVirtual(name, content)
	return decodeRegistered(fileSet, id)
}

func decodeRegistered(fileSet *source.FileSet, id source.FileID) (*File, error) {
	sf := fileSet.Get(id)
	f, err := Decode(sf.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", sf.Path, err)
	}
	f.ID = id
	if f.Path == "" {
		f.Path = fileSet.DisplayPath(id)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Sources selects the input files of a run.
type Sources struct {
	Root        string
	Files       []string
	Directories []string
	Exclude     []string
	// ExpandFiles lets Files name directories, walked like Directories.
	ExpandFiles bool
}

// Collect resolves Sources into a sorted, deduplicated list of paths.
func Collect(src Sources) ([]string, error) {
	seen := make(map[string]struct{})
	excluded := make(map[string]struct{}, len(src.Exclude))
	for _, p := range src.Exclude {
		excluded[filepath.Clean(src.abs(p))] = struct{}{}
	}
	var out []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, skip := excluded[path]; skip {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	walk := func(dir string) error {
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if _, skip := excluded[filepath.Clean(path)]; skip {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, Ext) {
				add(path)
			}
			return nil
		})
	}

	for _, p := range src.Files {
		path := src.abs(p)
		if src.ExpandFiles {
			if st, err := os.Stat(path); err == nil && st.IsDir() {
				if err := walk(path); err != nil {
					return nil, fmt.Errorf("walk %s: %w", p, err)
				}
				continue
			}
		}
		add(path)
	}
	for _, dir := range src.Directories {
		if err := walk(src.abs(dir)); err != nil {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}

	// Сортируем для детерминированного порядка
	sort.Strings(out)
	return out, nil
}

func (src Sources) abs(p string) string {
	if filepath.IsAbs(p) || src.Root == "" {
		return p
	}
	return filepath.Join(src.Root, p)
}

// LoadAll loads every path, stopping at the first failure.
func LoadAll(fileSet *source.FileSet, paths []string) ([]*File, error) {
	files := make([]*File, 0, len(paths))
	for _, path := range paths {
		f, err := LoadFile(fileSet, path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// LoadDir collects and loads the files selected by src.
func LoadDir(fileSet *source.FileSet, src Sources) ([]*File, error) {
	paths, err := Collect(src)
	if err != nil {
		return nil, err
	}
	return LoadAll(fileSet, paths)
}
