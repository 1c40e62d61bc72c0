// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the PostgreSQL and in-memory
// stores provide the implementations.
package tx

import (
	"context"
)

// ReadOnlyManager runs a group of reads against one consistent snapshot.
//
// All store reads issued through the ctx passed to fn observe the same state,
// so a concurrent revoke is either fully visible or not visible at all.
// Nested calls reuse the snapshot already present in ctx.
type ReadOnlyManager interface {
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyFunc adapts a plain function to ReadOnlyManager.
type ReadOnlyFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// ReadOnly implements ReadOnlyManager.
func (f ReadOnlyFunc) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// Passthrough runs fn directly, for stores that are already immutable.
var Passthrough ReadOnlyManager = ReadOnlyFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
