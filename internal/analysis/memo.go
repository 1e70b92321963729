package analysis

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"refflow/internal/codebase"
	"refflow/internal/element"
	"refflow/internal/types"
)

// memoEntry is the outcome of one analysed call. reads holds the union key
// of every shared element the body observed, as first seen.
type memoEntry struct {
	effects []types.UnionType
	result  types.UnionType
	reads   map[element.ID]string
}

// recording collects what a call body touches outside its own locals and
// by-reference targets. A body that writes shared state is not memoised:
// a replay would skip the write.
type recording struct {
	owners map[element.ID]struct{}
	reads  map[element.ID]string
	impure bool
}

func newRecording(binds []binding) *recording {
	rec := &recording{owners: make(map[element.ID]struct{}), reads: make(map[element.ID]string)}
	for _, b := range binds {
		if b.owner.IsValid() {
			rec.owners[b.owner] = struct{}{}
		}
	}
	return rec
}

// shared reports whether owner outlives every call: globals, properties
// and constants.
func (a *Analyzer) shared(owner element.ID) bool {
	switch a.store.Kind(owner) {
	case element.KindProperty, element.KindConstant:
		return true
	case element.KindVariable:
		return a.store.Flags(owner)&element.FlagGlobal != 0
	}
	return false
}

func (a *Analyzer) noteRead(owner element.ID) {
	if len(a.recs) == 0 || !a.shared(owner) {
		return
	}
	key := a.store.UnionType(owner).Key()
	for _, rec := range a.recs {
		if _, own := rec.owners[owner]; own {
			continue
		}
		if _, seen := rec.reads[owner]; !seen {
			rec.reads[owner] = key
		}
	}
}

func (a *Analyzer) noteWrite(owner element.ID) {
	if len(a.recs) == 0 || !a.shared(owner) {
		return
	}
	for _, rec := range a.recs {
		if _, own := rec.owners[owner]; !own {
			rec.impure = true
		}
	}
}

// current reports whether every shared element m observed still holds the
// union it had when m was recorded.
func (a *Analyzer) current(m *memoEntry) bool {
	for id, key := range m.reads {
		if a.store.UnionType(id).Key() != key {
			return false
		}
	}
	return true
}

// memoKey digests the callee and the call-site part of what its analysis
// depends on: argument unions and the identity of aliased caller elements.
// Shared state is checked separately through memoEntry.reads.
func memoKey(fn *codebase.Function, binds []binding) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(fn.Name)
	_, _ = h.WriteString(strconv.FormatUint(uint64(fn.Result), 10))
	for _, b := range binds {
		_, _ = h.Write(separatorByte)
		if b.owner.IsValid() {
			_, _ = h.WriteString("&" + strconv.FormatUint(uint64(b.owner), 10) + "=")
		}
		_, _ = h.WriteString(b.value.Key())
	}
	return h.Sum64()
}
