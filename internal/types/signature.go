package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// SignatureParam describes one formal parameter of a callable type.
type SignatureParam struct {
	Type     TypeID
	ByRef    bool
	Variadic bool
}

// Signature stores metadata for callable types.
type Signature struct {
	Params []SignatureParam
	Result TypeID // NoTypeID when the result is unspecified
}

func (s Signature) key() string {
	var b strings.Builder
	for _, p := range s.Params {
		if p.ByRef {
			b.WriteByte('&')
		}
		if p.Variadic {
			b.WriteString("...")
		}
		b.WriteString(strconv.FormatUint(uint64(p.Type), 10))
		b.WriteByte(',')
	}
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(s.Result), 10))
	return b.String()
}

// Callable creates or finds a callable type with the given signature.
func (in *Interner) Callable(sig Signature) TypeID {
	key := sig.key()
	if id, ok := in.sigIdx[key]; ok {
		return id
	}
	slot, err := safecast.Conv[uint32](len(in.sigs))
	if err != nil {
		panic(fmt.Errorf("signature overflow: %w", err))
	}
	in.sigs = append(in.sigs, Signature{
		Params: slices.Clone(sig.Params),
		Result: sig.Result,
	})
	id := in.internRaw(Type{Kind: KindCallable, Payload: slot})
	in.sigIdx[key] = id
	return id
}

// Signature retrieves callable metadata by TypeID.
func (in *Interner) Signature(id TypeID) (*Signature, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindCallable {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.sigs) {
		return nil, false
	}
	return &in.sigs[tt.Payload], true
}
