package statecache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"refflow/internal/config"
	"refflow/internal/source"
)

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash)
type Digest [32]byte

// String renders the digest as hex.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports an unset digest.
func (d Digest) IsZero() bool { return d == Digest{} }

// Combine builds H(content || dep1 || dep2 ...). The order of deps must be
// deterministic.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Key identifies one program under one configuration: every input file's
// path and content hash, plus the options that change what is inferred.
// Files must be passed in a deterministic order.
func Key(files []*source.File, cfg config.Config) Digest {
	knobs := sha256.Sum256([]byte(inferenceKnobs(cfg)))
	deps := make([]Digest, 0, len(files))
	for _, f := range files {
		path := sha256.Sum256([]byte(f.Path))
		deps = append(deps, Combine(f.Hash, path))
	}
	return Combine(knobs, deps...)
}

func inferenceKnobs(cfg config.Config) string {
	flags := []bool{
		cfg.QuickMode,
		cfg.ReadTypeAnnotations,
		cfg.AllowMissingProperties,
	}
	b := make([]byte, 0, 16)
	b = append(b, "schema="...)
	b = strconv.AppendUint(b, uint64(schemaVersion), 10)
	for _, f := range flags {
		b = append(b, ',')
		b = strconv.AppendBool(b, f)
	}
	return string(b)
}
