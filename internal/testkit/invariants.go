// Package testkit holds structural checks shared by package tests.
package testkit

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"refflow/internal/codebase"
	"refflow/internal/element"
	"refflow/internal/symbols"
)

// CheckStore verifies arena bookkeeping: the live counter matches the
// unreleased slots and every unreleased element resolves to an owner.
func CheckStore(s *element.Store) error {
	if s == nil {
		return fmt.Errorf("nil store")
	}
	var errs []error
	live := 0
	for i := 1; i <= s.Len(); i++ {
		id, err := toID(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if s.IsReleased(id) {
			continue
		}
		live++
		owner, err := s.Resolve(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("#%d: %w", id, err))
			continue
		}
		if s.Kind(owner) == element.KindPassByReference {
			errs = append(errs, fmt.Errorf("#%d resolves to proxy #%d", id, owner))
		}
	}
	if live != s.Live() {
		errs = append(errs, fmt.Errorf("live counter %d, %d unreleased slots", s.Live(), live))
	}
	return errors.Join(errs...)
}

// CheckQuiescent verifies the state after a completed run: only persistent
// elements survive, none of them is a proxy, and the scope table is sound.
func CheckQuiescent(cb *codebase.Codebase, table *symbols.Table) error {
	if cb == nil {
		return fmt.Errorf("nil codebase")
	}
	s := cb.Store()
	errs := []error{CheckStore(s)}

	persistent := make(map[element.ID]struct{}, len(cb.Persistent()))
	for _, id := range cb.Persistent() {
		persistent[id] = struct{}{}
		if s.IsReleased(id) {
			errs = append(errs, fmt.Errorf("persistent #%d was released", id))
			continue
		}
		if s.Kind(id) == element.KindPassByReference {
			errs = append(errs, fmt.Errorf("persistent #%d is a proxy", id))
		}
	}
	for i := 1; i <= s.Len(); i++ {
		id, err := toID(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if s.IsReleased(id) {
			continue
		}
		if _, ok := persistent[id]; !ok {
			errs = append(errs, fmt.Errorf("transient %s #%d %q outlived the run", s.Kind(id), id, s.Name(id)))
		}
	}
	if table != nil {
		errs = append(errs, table.Validate())
	}
	return errors.Join(errs...)
}

func toID(index int) (element.ID, error) {
	value, err := safecast.Conv[uint32](index)
	if err != nil {
		return element.NoID, fmt.Errorf("element index overflow: %w", err)
	}
	return element.ID(value), nil
}
