package loom

import (
	"context"

	"github.com/loomdi/loom/internal/registry"
)

// Module groups provider declarations under an optional namespace, with an
// optional set of imported namespaces and module-wide aliases. Modules are
// inert until applied to an injector.
type Module struct {
	name       string
	namespace  string
	using      []string
	aliases    map[string]string
	decls      []moduleDecl
	submodules []*Module
}

type moduleDecl struct {
	register func(in *injector, mod moduleScope) error
}

// ModuleOption configures a module at construction time.
type ModuleOption func(*Module)

// ModuleNamespace scopes every resource declared by the module into the
// given namespace path.
func ModuleNamespace(ns string) ModuleOption {
	return func(m *Module) {
		m.namespace = ns
	}
}

// ModuleUsing imports namespaces for the bare dependency names declared by
// the module's providers, searched in the given order.
func ModuleUsing(namespaces ...string) ModuleOption {
	return func(m *Module) {
		m.using = append(m.using, namespaces...)
	}
}

// ModuleAlias substitutes a qualified target name whenever the module's
// providers declare alias as a dependency.
func ModuleAlias(alias, target string) ModuleOption {
	return func(m *Module) {
		m.aliases[alias] = target
	}
}

func NewModule(name string, opts ...ModuleOption) *Module {
	m := &Module{
		name:    name,
		aliases: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Name() string { return m.name }

// Provide declares a synchronous provider with its ordered dependency
// names.
func (m *Module) Provide(name string, deps []string, fn ProviderFunc, opts ...ProviderOption) *Module {
	m.decls = append(m.decls, moduleDecl{
		register: func(in *injector, mod moduleScope) error {
			cfg := newProviderConfig(opts)
			return in.bind(name, deps, registry.RunFunc(fn), nil, mod, cfg, false)
		},
	})
	return m
}

// ProvideAsync declares an asynchronous provider. Its body may suspend by
// returning a continuation; resolving it requires an asynchronous injector.
func (m *Module) ProvideAsync(name string, deps []string, fn AsyncProviderFunc, opts ...ProviderOption) *Module {
	m.decls = append(m.decls, moduleDecl{
		register: func(in *injector, mod moduleScope) error {
			cfg := newProviderConfig(opts)
			return in.bind(name, deps, nil, registry.StartFunc(fn), mod, cfg, false)
		},
	})
	return m
}

// Const declares a constant resource scoped into the module's namespace.
func (m *Module) Const(name string, value any, opts ...ProviderOption) *Module {
	m.decls = append(m.decls, moduleDecl{
		register: func(in *injector, mod moduleScope) error {
			cfg := newProviderConfig(opts)
			run := func(ctx context.Context, args []any) (any, error) {
				return value, nil
			}
			return in.bind(name, nil, run, nil, mod, cfg, true)
		},
	})
	return m
}

// Include nests another module; its declarations are applied first.
func (m *Module) Include(sub *Module) *Module {
	m.submodules = append(m.submodules, sub)
	return m
}

func (m *Module) apply(in *injector) error {
	for _, sub := range m.submodules {
		if err := sub.apply(in); err != nil {
			return err
		}
	}

	if m.namespace != "" {
		if err := in.nsIndex.AddNamespace(m.namespace); err != nil {
			return errInvalidName(m.namespace, err)
		}
	}

	mod := moduleScope{
		namespace: m.namespace,
		aliases:   m.aliases,
		using:     m.using,
	}
	for _, decl := range m.decls {
		if err := decl.register(in, mod); err != nil {
			return err
		}
	}
	return nil
}
