package loom

import "context"

// SyncInjector resolves resources on a single blocking call stack with no
// suspension points. Resolving a resource whose closure contains an
// asynchronous provider fails with an async-in-sync-context error.
type SyncInjector struct {
	*injector
}

// NewSync creates a synchronous injector and applies the given modules.
// The injector provides itself under the name "injector".
func NewSync(opts ...Option) *SyncInjector {
	in := &SyncInjector{injector: newInjector(false, opts)}
	// Fresh registry; self-registration cannot collide.
	_ = in.Provide(SelfName, in)
	return in
}

// Require resolves one named resource, resolving and memoizing its
// transitive dependencies first.
func (in *SyncInjector) Require(ctx context.Context, name string) (any, error) {
	return in.require(ctx, name)
}

// RequireAll resolves several names in a single request and returns their
// values keyed by the names as given.
func (in *SyncInjector) RequireAll(ctx context.Context, names ...string) (map[string]any, error) {
	return in.requireAll(ctx, names)
}

// MustRequire is Require, panicking on error.
func (in *SyncInjector) MustRequire(ctx context.Context, name string) any {
	v, err := in.require(ctx, name)
	if err != nil {
		panic(err)
	}
	return v
}

// Create invokes the constructor with resolved arguments and then runs the
// new instance's injection points, if it declares any.
func (in *SyncInjector) Create(ctx context.Context, ctor Routine, opts ...InjectOption) (any, error) {
	return in.create(ctx, ctor, opts)
}

// Inject resolves a routine's parameters and invokes it, or runs every
// injection point of an instance implementing PostConstructor.
func (in *SyncInjector) Inject(ctx context.Context, target any, opts ...InjectOption) (any, error) {
	return in.inject(ctx, target, opts)
}
