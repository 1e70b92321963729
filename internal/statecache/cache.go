// Package statecache persists the analysis summary of a finished run so the
// next run over the same program can start from it.
package statecache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"refflow/internal/analysis"
)

// Current schema version - increment when Payload format changes
const schemaVersion uint16 = 1

// ErrMismatch reports a stored state written for another program or schema.
var ErrMismatch = errors.New("stored state does not match the program")

// Payload is the on-disk form of a stored state.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16 `msgpack:"schema"`
	Key    Digest `msgpack:"key"`

	Files     []string          `msgpack:"files"`
	Passes    int               `msgpack:"passes"`
	Converged bool              `msgpack:"converged"`
	Summary   *analysis.Summary `msgpack:"summary"`
}

// Store reads and writes one state file. Thread-safe for concurrent access.
type Store struct {
	mu   sync.RWMutex
	path string
}

// Open returns a store for path. Nothing is touched until Load or Save.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Save serializes the result of a run keyed by key. The file is replaced
// atomically.
func (s *Store) Save(key Digest, files []string, res *analysis.Result) (err error) {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := &Payload{
		Schema:    schemaVersion,
		Key:       key,
		Files:     files,
		Passes:    res.Passes,
		Converged: res.Converged,
		Summary:   res.Summary,
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// после Rename файла уже нет
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode state: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	err = os.Rename(tmp, s.path)
	return err
}

// Load returns the stored summary for key. A missing file is not an error;
// a file written for another key or schema returns ErrMismatch.
func (s *Store) Load(key Digest) (*Payload, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode state %s: %w", s.path, err)
	}
	if payload.Schema != schemaVersion || payload.Key != key {
		return nil, false, ErrMismatch
	}
	if payload.Summary == nil {
		payload.Summary = analysis.NewSummary()
	}
	return &payload, true, nil
}

// Drop removes the state file.
func (s *Store) Drop() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
