package loom

import (
	"log/slog"
	"time"
)

// ResolveHook observes every settled resolution: the qualified name, the
// wall time the provider took, and its error if any.
type ResolveHook func(name string, d time.Duration, err error)

// ProvideHook observes every successful registration.
type ProvideHook func(name string)

// Option configures an injector at construction time.
type Option func(*config)

type config struct {
	separator string
	rootToken string
	logger    *slog.Logger
	onResolve []ResolveHook
	onProvide []ProvideHook
}

// WithSeparator sets the namespace path separator. Default "/".
func WithSeparator(sep string) Option {
	return func(cfg *config) {
		cfg.separator = sep
	}
}

// WithRootToken sets the prefix that forces a name to resolve from the root
// namespace regardless of scope. Default "::".
func WithRootToken(token string) Option {
	return func(cfg *config) {
		cfg.rootToken = token
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *config) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func WithProvideObserver(hook ProvideHook) Option {
	return func(cfg *config) {
		cfg.onProvide = append(cfg.onProvide, hook)
	}
}
