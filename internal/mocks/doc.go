// Package mocks provides hand-written test doubles for the interfaces the
// pipeline depends on. Every mock accepts per-method function fields that
// override its default behaviour and records its calls for verification.
package mocks
