package loom

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/loomdi/loom/internal/attr"
	"github.com/loomdi/loom/internal/graph"
	"github.com/loomdi/loom/internal/namespace"
	"github.com/loomdi/loom/internal/registry"
	"github.com/loomdi/loom/internal/sched"
)

// SelfName is the resource name every injector provides itself under.
const SelfName = "injector"

// injector is the engine shared by SyncInjector and AsyncInjector: the
// registry, the namespace index, the resolution cache and the graph logic.
// The two facade types differ only in execution discipline.
//
// An injector is not safe for concurrent use: registration must complete
// before resolution starts, and resolution requests are issued one at a
// time. All cache mutation happens on the single resolution path.
type injector struct {
	cfg          *config
	logger       *slog.Logger
	qualifier    namespace.Qualifier
	registry     *registry.Registry
	nsIndex      *namespace.Node
	cache        map[string]any
	interceptors []Interceptor
	async        bool
}

func newInjector(async bool, opts []Option) *injector {
	cfg := &config{
		separator: namespace.DefaultSeparator,
		rootToken: namespace.DefaultRootToken,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &injector{
		cfg:       cfg,
		logger:    cfg.logger,
		qualifier: namespace.NewQualifier(cfg.separator, cfg.rootToken),
		registry:  registry.New(),
		nsIndex:   namespace.NewRoot(cfg.separator),
		cache:     make(map[string]any),
		async:     async,
	}
}

// Separator returns the configured namespace separator.
func (in *injector) Separator() string { return in.qualifier.Sep }

// RootToken returns the configured root-escape prefix.
func (in *injector) RootToken() string { return in.qualifier.Root }

// Has reports whether name (resolved against the root scope) is provided.
func (in *injector) Has(name string) bool {
	q, err := in.qualifyRoot(name)
	return err == nil && in.registry.Has(q)
}

// Keys returns every canonical qualified name in registration order.
func (in *injector) Keys() []string { return in.registry.Keys() }

// Size returns the number of registered resources.
func (in *injector) Size() int { return in.registry.Size() }

// Scan returns the qualified names whose attributes satisfy pred, in
// registration order.
func (in *injector) Scan(pred func(name string, attrs *Attributes) bool) []string {
	return in.registry.Scan(pred)
}

// Attributes returns the metadata recorded for a resource.
func (in *injector) Attributes(name string) (*Attributes, error) {
	q, err := in.qualifyRoot(name)
	if err != nil {
		return nil, err
	}
	entry, lerr := in.registry.Lookup(q)
	if lerr != nil {
		return nil, errMissingResource(q)
	}
	return entry.Attrs, nil
}

// Apply registers the providers of the given modules.
func (in *injector) Apply(modules ...*Module) error {
	for _, m := range modules {
		if err := m.apply(in); err != nil {
			return errModuleApplyFailed(m.name, err)
		}
	}
	return nil
}

// Provide registers a constant value under name. The value is memoized on
// first resolution and shared by every dependent.
func (in *injector) Provide(name string, value any, opts ...ProviderOption) error {
	cfg := newProviderConfig(opts)
	run := func(ctx context.Context, args []any) (any, error) {
		return value, nil
	}
	return in.bind(name, nil, run, nil, moduleScope{}, cfg, true)
}

// ProvideFunc registers a synchronous provider with its declared dependency
// names.
func (in *injector) ProvideFunc(name string, deps []string, fn ProviderFunc, opts ...ProviderOption) error {
	cfg := newProviderConfig(opts)
	return in.bind(name, deps, registry.RunFunc(fn), nil, moduleScope{}, cfg, false)
}

// moduleScope carries a module's naming context into bind.
type moduleScope struct {
	namespace string
	aliases   map[string]string
	using     []string
}

// bind constructs a registry entry for a provider declaration and registers
// it together with its alias names.
func (in *injector) bind(local string, deps []string, run registry.RunFunc, start registry.StartFunc, mod moduleScope, cfg *providerConfig, constant bool) error {
	path := mod.namespace
	if cfg.hasNS {
		path = cfg.namespace
	}

	qualified := in.qualifier.QualifyLocal(local, path)

	aliases := make(map[string]string, len(mod.aliases)+len(cfg.depAliases))
	for alias, target := range mod.aliases {
		aliases[alias] = target
	}
	for alias, target := range cfg.depAliases {
		aliases[alias] = target
	}

	scope := namespace.Scope{
		Path:    path,
		Aliases: aliases,
		Using:   append(append([]string(nil), mod.using...), cfg.using...),
	}

	attrs := attr.New().
		Put(attr.TagName, namespace.LeafName(in.qualifier.Sep, qualified)).
		Put(attr.TagFullName, qualified)
	if path != "" {
		attrs.Put(attr.TagNamespace, path)
	}
	if len(cfg.aliases) > 0 {
		attrs.Put(attr.TagAliases, append([]string(nil), cfg.aliases...))
	}
	if len(scope.Using) > 0 {
		attrs.Put(attr.TagUsing, append([]string(nil), scope.Using...))
	}
	if constant {
		attrs.Set(attr.TagConstant)
	}
	if start != nil {
		attrs.Set(attr.TagAsync)
	}
	if cfg.transient {
		attrs.Set(attr.TagTransient)
	}
	if cfg.docs != "" {
		attrs.Put(attr.TagDocs, cfg.docs)
	}
	if cfg.timeout > 0 {
		attrs.Put(attr.TagTimeout, cfg.timeout)
	}

	entry := &registry.Entry{
		Local:     namespace.LeafName(in.qualifier.Sep, qualified),
		Qualified: qualified,
		Deps:      append([]string(nil), deps...),
		Scope:     scope,
		Run:       run,
		Start:     start,
		Timeout:   cfg.timeout,
		Attrs:     attrs,
	}

	if err := in.registry.Register(entry, cfg.replace); err != nil {
		var dup *registry.DuplicateError
		if errors.As(err, &dup) {
			return errDuplicateResource(dup.Name)
		}
		return errInvalidName(qualified, err)
	}
	if err := in.nsIndex.Add(qualified); err != nil {
		return errInvalidName(qualified, err)
	}

	for _, alias := range cfg.aliases {
		aliasName := in.qualifier.QualifyLocal(alias, path)
		if err := in.registry.RegisterAlias(aliasName, qualified, cfg.replace); err != nil {
			var dup *registry.DuplicateError
			if errors.As(err, &dup) {
				return errDuplicateResource(dup.Name)
			}
			return errInvalidName(aliasName, err)
		}
		if err := in.nsIndex.Add(aliasName); err != nil {
			return errInvalidName(aliasName, err)
		}
	}

	if cfg.replace {
		delete(in.cache, qualified)
	}

	in.logger.Debug("resource provided", "resource", qualified, "deps", deps, "async", start != nil)
	for _, hook := range in.cfg.onProvide {
		hook(qualified)
	}
	return nil
}

// qualifyRoot resolves a requested name against the root scope and
// canonicalizes aliases.
func (in *injector) qualifyRoot(name string) (string, error) {
	q, err := in.qualifier.Qualify(name, namespace.Scope{}, in.registry.Has)
	if err != nil {
		var amb *namespace.AmbiguousError
		if errors.As(err, &amb) {
			return "", errAmbiguousName(amb.Name, amb.Candidates)
		}
		return "", errMissingResource(name)
	}
	return in.registry.Canonical(q), nil
}

// qualifyDep resolves a declared dependency name in the owner's scope.
func (in *injector) qualifyDep(raw string, scope namespace.Scope, owner string) (string, error) {
	q, err := in.qualifier.Qualify(raw, scope, in.registry.Has)
	if err != nil {
		var amb *namespace.AmbiguousError
		if errors.As(err, &amb) {
			return "", errAmbiguousName(amb.Name, amb.Candidates)
		}
		return "", errMissingDependency(owner, raw)
	}
	q = in.registry.Canonical(q)
	if !in.registry.Has(q) {
		return "", errMissingDependency(owner, q)
	}
	return q, nil
}

// depsOf is the graph-build callback: the canonical qualified dependencies
// of a closure node.
func (in *injector) depsOf(name string) ([]string, error) {
	entry, err := in.registry.Lookup(name)
	if err != nil {
		return nil, errMissingResource(name)
	}
	out := make([]string, 0, len(entry.Deps))
	for _, raw := range entry.Deps {
		q, qerr := in.qualifyDep(raw, entry.Scope, entry.Qualified)
		if qerr != nil {
			return nil, qerr
		}
		out = append(out, q)
	}
	return out, nil
}

// buildGraph computes the closure and resolution order for canonical roots.
func (in *injector) buildGraph(roots []string) (*graph.Graph, []string, error) {
	g, err := graph.Build(roots, in.depsOf)
	if err != nil {
		return nil, nil, err
	}
	if err := g.CheckCycles(); err != nil {
		var cyc *graph.CycleError
		if errors.As(err, &cyc) {
			return nil, nil, errCycle(cyc.Path)
		}
		return nil, nil, err
	}
	order, err := g.Order()
	if err != nil {
		var cyc *graph.CycleError
		if errors.As(err, &cyc) {
			return nil, nil, errCycle(cyc.Path)
		}
		return nil, nil, err
	}
	return g, order, nil
}

// resolveCanonical resolves the closure of canonical root names and returns
// the values of every node touched by this request.
func (in *injector) resolveCanonical(ctx context.Context, roots []string) (map[string]any, error) {
	for _, root := range roots {
		if !in.registry.Has(root) {
			return nil, errMissingResource(root)
		}
	}

	g, order, err := in.buildGraph(roots)
	if err != nil {
		return nil, err
	}

	var values map[string]any
	if in.async {
		values, err = in.runAsync(ctx, order, g)
	} else {
		values, err = in.runSync(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		if _, ok := values[name]; !ok {
			if v, cached := in.cache[name]; cached {
				values[name] = v
			}
		}
	}
	return values, nil
}

// runSync walks the resolution order on a single call stack, invoking each
// provider inline. Encountering an asynchronous provider is fatal.
func (in *injector) runSync(ctx context.Context, order []string) (map[string]any, error) {
	values := make(map[string]any, len(order))
	for _, name := range order {
		entry, err := in.registry.Lookup(name)
		if err != nil {
			return nil, errMissingResource(name)
		}
		if !entry.IsTransient() {
			if v, ok := in.cache[name]; ok {
				values[name] = v
				continue
			}
		}
		if entry.IsAsync() {
			return nil, errAsyncInSyncContext(name)
		}

		start := time.Now()
		v, rerr := in.invokeSync(ctx, entry, values)
		in.observeResolve(name, time.Since(start), rerr)
		if rerr != nil {
			return nil, rerr
		}
		values[name] = v
		if !entry.IsTransient() {
			in.cache[name] = v
		}
	}
	return values, nil
}

func (in *injector) invokeSync(ctx context.Context, entry *registry.Entry, values map[string]any) (any, error) {
	args, err := in.gatherArgs(ctx, entry, values)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if entry.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, entry.Timeout)
		defer cancel()
	}

	v, err := entry.Run(runCtx, args)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, errTimeout(entry.Qualified, err)
		}
		return nil, errProviderFailed(entry.Qualified, err)
	}
	return v, nil
}

// runAsync drives the cooperative scheduling loop over the resolution
// order. The loop is owned by this injector and runs on the caller's
// goroutine; suspended providers are interleaved with other ready nodes.
func (in *injector) runAsync(ctx context.Context, order []string, g *graph.Graph) (map[string]any, error) {
	values := make(map[string]any, len(order))

	done := func(name string) bool {
		entry, err := in.registry.Lookup(name)
		if err != nil || entry.IsTransient() {
			return false
		}
		_, ok := in.cache[name]
		return ok
	}

	deps := make(map[string][]string, len(order))
	for _, name := range order {
		deps[name] = g.Dependencies(name)
	}

	wave := sched.NewWave(sched.Config{
		Nodes: order,
		Deps:  deps,
		Done:  done,
		OnResult: func(name string, value any) {
			values[name] = value
			if entry, err := in.registry.Lookup(name); err == nil && !entry.IsTransient() {
				in.cache[name] = value
			}
		},
		OnSettle: in.observeResolve,
		Logger:   in.logger,
	})

	_, err := wave.Run(ctx, func(ctx context.Context, name string) (any, Continuation, error) {
		return in.startNode(ctx, name, values)
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// startNode begins one node inside the scheduling loop. Synchronous
// providers complete inline; asynchronous providers may return a
// continuation chain.
func (in *injector) startNode(ctx context.Context, name string, values map[string]any) (any, Continuation, error) {
	entry, err := in.registry.Lookup(name)
	if err != nil {
		return nil, nil, errMissingResource(name)
	}

	args, err := in.gatherArgs(ctx, entry, values)
	if err != nil {
		return nil, nil, err
	}

	if !entry.IsAsync() {
		v, rerr := entry.Run(ctx, args)
		if rerr != nil {
			return nil, nil, errProviderFailed(entry.Qualified, rerr)
		}
		return v, nil, nil
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if entry.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, entry.Timeout)
	}

	v, cont, rerr := entry.Start(runCtx, args)
	return in.settleAsync(entry, runCtx, cancel, v, cont, rerr)
}

// settleAsync wraps an asynchronous provider's continuation chain so every
// step keeps the provider's own context (and timeout) and errors are coded
// consistently on completion.
func (in *injector) settleAsync(entry *registry.Entry, runCtx context.Context, cancel context.CancelFunc, v any, cont Continuation, err error) (any, Continuation, error) {
	if cont == nil {
		if cancel != nil {
			cancel()
		}
		if err != nil {
			if runCtx.Err() == context.DeadlineExceeded {
				return nil, nil, errTimeout(entry.Qualified, err)
			}
			return nil, nil, errProviderFailed(entry.Qualified, err)
		}
		return v, nil, nil
	}

	next := func(context.Context) (any, Continuation, error) {
		if cerr := runCtx.Err(); cerr != nil {
			if cancel != nil {
				cancel()
			}
			if cerr == context.DeadlineExceeded {
				return nil, nil, errTimeout(entry.Qualified, cerr)
			}
			return nil, nil, errProviderFailed(entry.Qualified, cerr)
		}
		v2, cont2, err2 := cont(runCtx)
		return in.settleAsync(entry, runCtx, cancel, v2, cont2, err2)
	}
	return v, next, nil
}

// gatherArgs collects the already-resolved dependency values for entry,
// runs the interceptor chain over them, and returns the argument list in
// declaration order.
func (in *injector) gatherArgs(ctx context.Context, entry *registry.Entry, values map[string]any) ([]any, error) {
	if len(entry.Deps) == 0 && len(in.interceptors) == 0 {
		return nil, nil
	}

	params := make(map[string]any, len(entry.Deps))
	aliasMap := make(map[string]string, len(entry.Deps))
	for _, raw := range entry.Deps {
		q, err := in.qualifyDep(raw, entry.Scope, entry.Qualified)
		if err != nil {
			return nil, err
		}
		v, ok := values[q]
		if !ok {
			v, ok = in.cache[q]
		}
		if !ok {
			return nil, errMissingDependency(entry.Qualified, q)
		}
		params[raw] = v
		aliasMap[raw] = q
	}

	params, err := in.runInterceptors(ctx, entry.Attrs, params, aliasMap)
	if err != nil {
		return nil, errProviderFailed(entry.Qualified, err)
	}

	args := make([]any, len(entry.Deps))
	for i, raw := range entry.Deps {
		v, ok := params[raw]
		if !ok {
			return nil, errMissingDependency(entry.Qualified, raw)
		}
		args[i] = v
	}
	return args, nil
}

func (in *injector) observeResolve(name string, d time.Duration, err error) {
	for _, hook := range in.cfg.onResolve {
		hook(name, d, err)
	}
}

// require resolves one name and returns its value.
func (in *injector) require(ctx context.Context, name string) (any, error) {
	q, err := in.qualifyRoot(name)
	if err != nil {
		return nil, err
	}
	values, err := in.resolveCanonical(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	return values[q], nil
}

// requireAll resolves several names in one request and returns the values
// keyed by the names as requested.
func (in *injector) requireAll(ctx context.Context, names []string) (map[string]any, error) {
	roots := make([]string, len(names))
	for i, name := range names {
		q, err := in.qualifyRoot(name)
		if err != nil {
			return nil, err
		}
		roots[i] = q
	}
	values, err := in.resolveCanonical(ctx, roots)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(names))
	for i, name := range names {
		out[name] = values[roots[i]]
	}
	return out, nil
}

// injectRoutine resolves the routine's declared parameters in the given
// scope and invokes it.
func (in *injector) injectRoutine(ctx context.Context, r Routine, opts []InjectOption) (any, error) {
	cfg := &injectConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	scope := namespace.Scope{
		Path:    cfg.namespace,
		Aliases: cfg.aliases,
		Using:   cfg.using,
	}

	params := r.Params()
	roots := make([]string, len(params))
	for i, param := range params {
		q, err := in.qualifyDep(param, scope, r.Name())
		if err != nil {
			return nil, err
		}
		roots[i] = q
	}

	values, err := in.resolveCanonical(ctx, roots)
	if err != nil {
		return nil, err
	}

	paramMap := make(map[string]any, len(params))
	aliasMap := make(map[string]string, len(params))
	for i, param := range params {
		paramMap[param] = values[roots[i]]
		aliasMap[param] = roots[i]
	}

	attrs := attr.New().Put(attr.TagName, r.Name())
	paramMap, err = in.runInterceptors(ctx, attrs, paramMap, aliasMap)
	if err != nil {
		return nil, errProviderFailed(r.Name(), err)
	}

	args := make([]any, len(params))
	for i, param := range params {
		v, ok := paramMap[param]
		if !ok {
			return nil, errMissingDependency(r.Name(), param)
		}
		args[i] = v
	}

	v, err := r.Call(ctx, args)
	if err != nil {
		return nil, errProviderFailed(r.Name(), err)
	}
	return v, nil
}

// create invokes a constructor routine with resolved arguments, then runs
// the new instance's injection points.
func (in *injector) create(ctx context.Context, ctor Routine, opts []InjectOption) (any, error) {
	instance, err := in.injectRoutine(ctx, ctor, opts)
	if err != nil {
		return nil, err
	}
	if pc, ok := instance.(PostConstructor); ok {
		if err := in.injectPoints(ctx, pc, opts); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// inject resolves either a routine (returning its result) or an existing
// instance with declared injection points (returning the instance).
func (in *injector) inject(ctx context.Context, target any, opts []InjectOption) (any, error) {
	switch t := target.(type) {
	case Routine:
		return in.injectRoutine(ctx, t, opts)
	case PostConstructor:
		if err := in.injectPoints(ctx, t, opts); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, errInvalidTarget("inject target must be a Routine or a PostConstructor")
	}
}

func (in *injector) injectPoints(ctx context.Context, pc PostConstructor, opts []InjectOption) error {
	for _, point := range pc.InjectionPoints() {
		if _, err := in.injectRoutine(ctx, point, opts); err != nil {
			return err
		}
	}
	return nil
}
