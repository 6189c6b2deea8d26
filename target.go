package loom

import (
	"context"

	"github.com/loomdi/loom/internal/sched"
)

// Routine is a callable unit of work known to the engine by name: a
// provider body, a constructor, a bound method or a free function. The
// discovery mechanism that extracts names and parameter lists from real
// signatures is an external concern; the engine consumes only this
// description.
type Routine interface {
	// Name is the routine's unqualified name.
	Name() string
	// Params lists the declared dependency names in order.
	Params() []string
	// Call invokes the routine with resolved values matching Params.
	Call(ctx context.Context, args []any) (any, error)
}

// Continuation is the rest of a suspended asynchronous routine. Returning a
// non-nil continuation suspends again; a nil continuation completes with
// the given value or error.
type Continuation = sched.Continuation

// ProviderFunc is the body of a synchronous provider. args holds the
// resolved dependency values in declaration order.
type ProviderFunc func(ctx context.Context, args []any) (any, error)

// AsyncProviderFunc is the body of an asynchronous provider. Returning a
// non-nil Continuation is a suspension point: the scheduling loop advances
// other ready resources before resuming it.
type AsyncProviderFunc func(ctx context.Context, args []any) (any, Continuation, error)

// Func is the basic Routine implementation.
type Func struct {
	name   string
	params []string
	fn     ProviderFunc
}

func NewFunc(name string, params []string, fn ProviderFunc) *Func {
	return &Func{name: name, params: params, fn: fn}
}

func (f *Func) Name() string { return f.name }

func (f *Func) Params() []string {
	out := make([]string, len(f.params))
	copy(out, f.params)
	return out
}

func (f *Func) Call(ctx context.Context, args []any) (any, error) {
	return f.fn(ctx, args)
}

// PostConstructor marks a type with declared injection points. After
// Create builds an instance, or when an instance is passed to Inject, each
// returned routine is resolved and invoked. Implementing the interface is
// the static registration step that replaces runtime method tagging.
type PostConstructor interface {
	InjectionPoints() []Routine
}

// InjectOption adjusts the naming scope a target's parameters are
// qualified in.
type InjectOption func(*injectConfig)

type injectConfig struct {
	namespace string
	aliases   map[string]string
	using     []string
}

// InNamespace qualifies the target's parameters inside the given
// namespace.
func InNamespace(ns string) InjectOption {
	return func(cfg *injectConfig) {
		cfg.namespace = ns
	}
}

// WithAliasMap adds alias -> qualified-name substitutions for the target's
// parameters.
func WithAliasMap(aliases map[string]string) InjectOption {
	return func(cfg *injectConfig) {
		if cfg.aliases == nil {
			cfg.aliases = make(map[string]string, len(aliases))
		}
		for alias, target := range aliases {
			cfg.aliases[alias] = target
		}
	}
}

// UsingNamespaces imports namespaces for the target's bare parameter
// names, searched in the given order.
func UsingNamespaces(namespaces ...string) InjectOption {
	return func(cfg *injectConfig) {
		cfg.using = append(cfg.using, namespaces...)
	}
}
