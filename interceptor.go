package loom

import "context"

// Interceptor runs before a provider or injection target is invoked. It
// receives the resource's attributes, the resolved parameter values keyed
// by declared name, and the read-only map from declared name to the
// qualified name it resolved to. The returned map replaces params; values
// may be substituted but every declared parameter must remain present.
// Interceptors run in registration order and must be idempotent for a
// given request.
type Interceptor func(ctx context.Context, attrs *Attributes, params map[string]any, aliases map[string]string) (map[string]any, error)

func (in *injector) Intercept(i Interceptor) {
	in.interceptors = append(in.interceptors, i)
}

func (in *injector) runInterceptors(ctx context.Context, attrs *Attributes, params map[string]any, aliases map[string]string) (map[string]any, error) {
	for _, interceptor := range in.interceptors {
		next, err := interceptor(ctx, attrs, params, aliases)
		if err != nil {
			return nil, err
		}
		params = next
	}
	return params, nil
}
