// Package loom is a named-resource dependency-injection engine: providers
// are registered under hierarchical namespace-qualified names, and object
// graphs and function arguments are resolved by name rather than by type.
//
// # Quick Start
//
// Create an injector, register providers, resolve by name:
//
//	in := loom.NewSync()
//
//	_ = in.Provide("greeting", "hello")
//
//	_ = in.ProvideFunc("message", []string{"greeting"},
//	    func(ctx context.Context, args []any) (any, error) {
//	        return args[0].(string) + ", world", nil
//	    })
//
//	msg, err := in.Require(ctx, "message")
//
// # Names and Namespaces
//
// Resources live in a namespace tree. Qualified names join path segments
// with a separator (default "/"); a name prefixed with the root token
// (default "::") always resolves from the root regardless of scope. Both
// tokens are configuration, set once at construction:
//
//	in := loom.NewSync(loom.WithSeparator("."), loom.WithRootToken("@"))
//
// A bare dependency name is searched in the declaring provider's own
// namespace first, then in each imported namespace in declaration order,
// then at the root. Two imports defining the same unaliased name make the
// reference ambiguous, which is a resolution error.
//
// # Modules
//
// Modules group providers under a namespace with imports and aliases:
//
//	net := loom.NewModule("net", loom.ModuleNamespace("net"), loom.ModuleUsing("core")).
//	    Const("retries", 3).
//	    Provide("port", []string{"config"}, providePort, loom.WithAlias("p"))
//
//	if err := in.Apply(net); err != nil { ... }
//
// # Resolution
//
// Resolution derives the dependency closure of the requested names, rejects
// cycles (reporting the full cycle path), and runs providers in
// breadth-first order: a resource with no unresolved dependencies runs
// first, ties broken by discovery order. Results are memoized per injector;
// a later request for an already-resolved name returns the cached value
// without re-invoking its provider. Mark a provider Transient to opt out.
//
// # Synchronous and Asynchronous Injectors
//
// SyncInjector executes the order on a single blocking call stack.
// AsyncInjector shares the same graph logic but drives a cooperative
// scheduling loop owned by the instance: providers registered with
// ProvideAsync may suspend by returning a continuation, and independent
// branches of the same request interleave while one is suspended. An
// asynchronous provider reached by a synchronous injector is a fatal
// resolution error. If a provider fails, no new resources are scheduled,
// in-flight siblings settle, and the error is returned once the wave
// drains; values that completed before the failure stay memoized.
//
// # Injection Targets
//
// Constructors, bound methods and free functions are described by the
// Routine interface (name, ordered parameter names, call). Create resolves
// a constructor's parameters, invokes it, and then runs the injection
// points of the new instance when it implements PostConstructor; Inject
// does the same for a single routine or an existing instance.
//
//	cfg, err := in.Create(ctx, loom.NewFunc("newServer", []string{"net/port"}, newServer))
//
// # Interceptors
//
// An interceptor observes and may substitute the resolved parameter values
// of every provider and injection target before invocation:
//
//	in.Intercept(func(ctx context.Context, attrs *loom.Attributes, params map[string]any, aliases map[string]string) (map[string]any, error) {
//	    return params, nil
//	})
//
// # Introspection
//
// DependencyGraph, OrderedDependencies and DependencyTree expose the
// derived graph for tooling; Graph, SprintGraph and SprintGraphDOT render
// the whole registry for debugging.
//
// # Errors
//
// All failures surface synchronously to the caller as *Error values with a
// code: missing resources, missing or ambiguous dependencies, duplicate
// registrations, cycles (carrying the ordered cycle path), asynchronous
// providers in synchronous context, and per-provider timeouts. Predicates
// such as IsCycle and IsMissingResource classify them.
package loom
