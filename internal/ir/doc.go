// Package ir defines the lowered program description consumed by the
// analyzer. Parsing source text is someone else's job; every script arrives
// as one JSON document (*.ir.json) listing declarations and a small
// statement language sufficient to drive type propagation.
package ir
