package symbols

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"refflow/internal/source"
)

// Validate walks the arena checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	var errs []error

	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scope := t.Scopes.data[idx]
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", scopeID))
		}
		if scope.Released {
			if len(scope.Names) != 0 || len(scope.Locals) != 0 {
				errs = append(errs, fmt.Errorf("released scope %d still holds bindings", scopeID))
			}
			continue
		}
		if len(scope.Order) != len(scope.Names) {
			errs = append(errs, fmt.Errorf("scope %d order has %d names, index has %d", scopeID, len(scope.Order), len(scope.Names)))
		}
		seen := make(map[source.StringID]struct{}, len(scope.Order))
		for _, key := range scope.Order {
			if _, dup := seen[key]; dup {
				errs = append(errs, fmt.Errorf("scope %d lists name %d twice", scopeID, key))
			}
			seen[key] = struct{}{}
			id, ok := scope.Names[key]
			if !ok {
				errs = append(errs, fmt.Errorf("scope %d order references unbound name %d", scopeID, key))
				continue
			}
			if !id.IsValid() {
				errs = append(errs, fmt.Errorf("scope %d binds name %d to no element", scopeID, key))
			}
		}
	}

	for file, root := range t.fileRoot {
		scope := t.Scopes.Get(root)
		if scope == nil || scope.Kind != ScopeFile || scope.File != file {
			errs = append(errs, fmt.Errorf("file %d root %d is not a file scope", file, root))
		}
	}

	return errors.Join(errs...)
}

func toScopeID(index int) (ScopeID, error) {
	value, err := safecast.Conv[uint32](index)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope index overflow: %w", err)
	}
	return ScopeID(value), nil
}
