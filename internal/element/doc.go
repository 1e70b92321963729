// Package element implements the typed-element model: every declared program
// entity (variable, parameter, property, constant) owns one mutable
// types.UnionType slot plus flags and declaration context.
//
// # Storage
//
// Elements live in a Store arena and are addressed by ID. Nothing outside the
// store holds an element by pointer, so "the same storage under two names" is
// simply two names mapping to one ID, or a proxy whose target is that ID.
//
// # By-reference proxies
//
// KindPassByReference elements bind a callee Parameter (for the name) to a
// caller-side target (for everything else). Reads and writes of the union
// slot, flags, context, file ref, deprecation and internal status resolve the
// proxy chain to its ultimate owner and act there; Name comes from the
// parameter. A proxy never owns type state of its own. Proxies are created
// per call-site analysis and released afterwards; any access to a released
// element panics with ErrReleased.
//
// Resolve walks chains (a proxy may target another proxy) and reports cycles
// as *ChainError instead of looping.
package element
