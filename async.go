package loom

import (
	"context"

	"github.com/loomdi/loom/internal/registry"
)

// AsyncInjector resolves resources with a single cooperative scheduling
// loop owned by this instance. Synchronous providers run inline;
// asynchronous providers may suspend, letting independent branches of the
// same request interleave without threads. Two injectors never share
// scheduling state.
type AsyncInjector struct {
	*injector
}

// NewAsync creates an asynchronous injector. The injector provides itself
// under the name "injector".
func NewAsync(opts ...Option) *AsyncInjector {
	in := &AsyncInjector{injector: newInjector(true, opts)}
	// Fresh registry; self-registration cannot collide.
	_ = in.Provide(SelfName, in)
	return in
}

// ProvideAsync registers an asynchronous provider: its body may suspend by
// returning a continuation, and the scheduling loop resumes it after other
// ready resources have advanced.
func (in *AsyncInjector) ProvideAsync(name string, deps []string, fn AsyncProviderFunc, opts ...ProviderOption) error {
	cfg := newProviderConfig(opts)
	return in.bind(name, deps, nil, registry.StartFunc(fn), moduleScope{}, cfg, false)
}

// Require resolves one named resource. The call drives the scheduling loop
// until the resource's closure settles; a provider only begins once all of
// its dependencies' values are available.
func (in *AsyncInjector) Require(ctx context.Context, name string) (any, error) {
	return in.require(ctx, name)
}

// RequireAll resolves several names in one request. Independent branches
// make concurrent progress inside the loop; the call returns once every
// requested name settles.
func (in *AsyncInjector) RequireAll(ctx context.Context, names ...string) (map[string]any, error) {
	return in.requireAll(ctx, names)
}

// MustRequire is Require, panicking on error.
func (in *AsyncInjector) MustRequire(ctx context.Context, name string) any {
	v, err := in.require(ctx, name)
	if err != nil {
		panic(err)
	}
	return v
}

// Create invokes the constructor with resolved arguments and then runs the
// new instance's injection points, if it declares any.
func (in *AsyncInjector) Create(ctx context.Context, ctor Routine, opts ...InjectOption) (any, error) {
	return in.create(ctx, ctor, opts)
}

// Inject resolves a routine's parameters and invokes it, or runs every
// injection point of an instance implementing PostConstructor.
func (in *AsyncInjector) Inject(ctx context.Context, target any, opts ...InjectOption) (any, error) {
	return in.inject(ctx, target, opts)
}
