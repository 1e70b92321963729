package element

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// NewPassByReference binds a callee parameter to a caller-side target.
// No type state is copied; the proxy is a view onto target's owner.
func (s *Store) NewPassByReference(param, target ID) ID {
	p := s.entry(param)
	if p.kind != KindParameter {
		panic(contractf("proxy parameter #%d is a %s", param, p.kind))
	}
	s.entry(target) // released or unknown targets fail here
	return s.alloc(entry{
		kind:  KindPassByReference,
		proxy: proxyLink{param: param, target: target},
	})
}

// ProxyParameter returns the parameter a proxy is bound to.
func (s *Store) ProxyParameter(id ID) ID {
	e := s.entry(id)
	if e.kind != KindPassByReference {
		panic(contractf("#%d is not a proxy", id))
	}
	return e.proxy.param
}

// ProxyTarget returns the immediate target of a proxy (possibly another proxy).
func (s *Store) ProxyTarget(id ID) ID {
	e := s.entry(id)
	if e.kind != KindPassByReference {
		panic(contractf("#%d is not a proxy", id))
	}
	return e.proxy.target
}

// Resolve follows proxy links until it reaches the owning element.
// Non-proxies resolve to themselves.
func (s *Store) Resolve(id ID) (ID, error) {
	cur := id
	var chain []ID
	for {
		e := s.entry(cur)
		if e.kind != KindPassByReference {
			return cur, nil
		}
		chain = append(chain, cur)
		for _, seen := range chain {
			if seen == e.proxy.target {
				return NoID, &ChainError{Start: id, Chain: append(chain, e.proxy.target)}
			}
		}
		cur = e.proxy.target
	}
}

var separator = []byte{0xff}

// Fingerprint digests the canonical union keys of ids' owners in order.
func (s *Store) Fingerprint(ids []ID) uint64 {
	h := xxhash.New()
	for _, id := range ids {
		_, _ = h.WriteString(fmt.Sprintf("%d=", id))
		_, _ = h.WriteString(s.owner(id).union.Key())
		_, _ = h.Write(separator)
	}
	return h.Sum64()
}
