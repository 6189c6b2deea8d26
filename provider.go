package loom

import "time"

// ProviderOption adjusts how a single provider is registered.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	namespace  string            // overrides the module namespace for this provider
	hasNS      bool
	aliases    []string          // extra names for this provider in its namespace
	depAliases map[string]string // alias -> qualified target, for this provider's deps
	using      []string          // extra namespace imports for this provider's deps
	transient  bool
	replace    bool
	timeout    time.Duration
	docs       string
}

func newProviderConfig(opts []ProviderOption) *providerConfig {
	cfg := &providerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithNamespace scopes the provider into the given namespace, overriding
// the module namespace when registered through a module.
func WithNamespace(ns string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.namespace = ns
		cfg.hasNS = true
	}
}

// WithAlias registers an additional name the provider can be referenced by
// within its namespace.
func WithAlias(alias string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.aliases = append(cfg.aliases, alias)
	}
}

// WithDepAlias substitutes a qualified target name whenever this provider
// declares alias as a dependency.
func WithDepAlias(alias, target string) ProviderOption {
	return func(cfg *providerConfig) {
		if cfg.depAliases == nil {
			cfg.depAliases = make(map[string]string)
		}
		cfg.depAliases[alias] = target
	}
}

// WithUsing imports namespaces for this provider's bare dependency names,
// searched in the given order after the local namespace.
func WithUsing(namespaces ...string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.using = append(cfg.using, namespaces...)
	}
}

// Transient disables memoization: the provider runs once per resolution
// request instead of once per injector.
func Transient() ProviderOption {
	return func(cfg *providerConfig) {
		cfg.transient = true
	}
}

// WithReplace allows the registration to override an existing provider of
// the same qualified name. Any cached value for that name is discarded.
func WithReplace() ProviderOption {
	return func(cfg *providerConfig) {
		cfg.replace = true
	}
}

// WithTimeout bounds a single asynchronous provider. Exceeding the deadline
// surfaces as a timeout error for that provider's qualified name.
func WithTimeout(d time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.timeout = d
	}
}

// WithDocs attaches a documentation string to the provider's attributes.
func WithDocs(docs string) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.docs = docs
	}
}
