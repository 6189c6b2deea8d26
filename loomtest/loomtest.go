// Package loomtest provides helpers for testing code that resolves
// resources from a loom injector: fail-fast resolution, typed value
// assertions, provider replacement and cycle-path checks.
package loomtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomdi/loom"
)

// Injector is the surface shared by loom.SyncInjector and
// loom.AsyncInjector that the helpers need.
type Injector interface {
	Require(ctx context.Context, name string) (any, error)
	Apply(modules ...*loom.Module) error
	Provide(name string, value any, opts ...loom.ProviderOption) error
	ProvideFunc(name string, deps []string, fn loom.ProviderFunc, opts ...loom.ProviderOption) error
	OrderedDependencies(names ...string) ([]string, error)
	Has(name string) bool
}

// RequireResolve resolves name or fails the test.
func RequireResolve(t *testing.T, in Injector, name string) any {
	t.Helper()

	v, err := in.Require(context.Background(), name)
	require.NoError(t, err, "resolving %q", name)
	return v
}

// RequireValue resolves name and asserts the value's type.
func RequireValue[T any](t *testing.T, in Injector, name string) T {
	t.Helper()

	v := RequireResolve(t, in, name)
	typed, ok := v.(T)
	require.True(t, ok, "resource %q has unexpected type %T", name, v)
	return typed
}

// RequireApply applies modules or fails the test.
func RequireApply(t *testing.T, in Injector, modules ...*loom.Module) {
	t.Helper()

	require.NoError(t, in.Apply(modules...))
}

// RequireOrder asserts the resolution order for the given roots.
func RequireOrder(t *testing.T, in Injector, want []string, roots ...string) {
	t.Helper()

	order, err := in.OrderedDependencies(roots...)
	require.NoError(t, err)
	require.Equal(t, want, order)
}

// RequireCycle asserts err is a cycle error with the given path.
func RequireCycle(t *testing.T, err error, path ...string) {
	t.Helper()

	require.Error(t, err)
	require.True(t, loom.IsCycle(err), "expected cycle error, got %v", err)
	require.Equal(t, path, loom.CyclePath(err))
}

// Replace overrides an existing resource with a fixed value, evicting any
// cached one. Typical for swapping fakes into a wired-up module set.
func Replace(t *testing.T, in Injector, name string, value any) {
	t.Helper()

	require.NoError(t, in.Provide(name, value, loom.WithReplace()))
}

// ReplaceFunc overrides an existing resource with a provider function.
func ReplaceFunc(t *testing.T, in Injector, name string, deps []string, fn loom.ProviderFunc) {
	t.Helper()

	require.NoError(t, in.ProvideFunc(name, deps, fn, loom.WithReplace()))
}
