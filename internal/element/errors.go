package element

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContract marks misuse of the element API (panics only).
	ErrContract = errors.New("element: contract violation")
	// ErrReleased marks access to a released proxy or local (panics only).
	ErrReleased = errors.New("element: use of released element")
	// ErrProxyCycle is returned when a by-reference chain loops.
	ErrProxyCycle = errors.New("element: by-reference chain does not terminate")
)

// ChainError describes a cyclic proxy chain.
type ChainError struct {
	Start ID
	Chain []ID
}

func (e *ChainError) Error() string {
	parts := make([]string, 0, len(e.Chain))
	for _, id := range e.Chain {
		parts = append(parts, fmt.Sprintf("#%d", id))
	}
	return fmt.Sprintf("%v: %s", ErrProxyCycle, strings.Join(parts, " -> "))
}

func (e *ChainError) Unwrap() error { return ErrProxyCycle }

func contractf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContract, fmt.Sprintf(format, args...))
}
