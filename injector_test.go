package loom_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdi/loom"
	"github.com/loomdi/loom/loomtest"
)

func intProvider(value int, calls *int) loom.ProviderFunc {
	return func(ctx context.Context, args []any) (any, error) {
		if calls != nil {
			*calls++
		}
		return value, nil
	}
}

func TestSync_RequireChain(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("a", nil, intProvider(1, nil)))
	require.NoError(t, in.ProvideFunc("b", []string{"a"}, func(ctx context.Context, args []any) (any, error) {
		return args[0].(int) + 1, nil
	}))

	loomtest.RequireOrder(t, in, []string{"a", "b"}, "b")
	assert.Equal(t, 2, loomtest.RequireValue[int](t, in, "b"))
}

func TestSync_SingletonMemoization(t *testing.T) {
	t.Parallel()

	calls := 0
	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("db", nil, intProvider(7, &calls)))

	assert.Equal(t, 7, loomtest.RequireValue[int](t, in, "db"))
	assert.Equal(t, 7, loomtest.RequireValue[int](t, in, "db"))
	assert.Equal(t, 1, calls, "singleton providers run once per injector")
}

func TestSync_SharedDependencyResolvedOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("config", nil, intProvider(1, &calls)))
	require.NoError(t, in.ProvideFunc("db", []string{"config"}, func(ctx context.Context, args []any) (any, error) {
		return "db", nil
	}))
	require.NoError(t, in.ProvideFunc("cache", []string{"config"}, func(ctx context.Context, args []any) (any, error) {
		return "cache", nil
	}))

	values, err := in.RequireAll(context.Background(), "db", "cache")
	require.NoError(t, err)
	assert.Equal(t, "db", values["db"])
	assert.Equal(t, "cache", values["cache"])
	assert.Equal(t, 1, calls)
}

func TestSync_Transient(t *testing.T) {
	t.Parallel()

	calls := 0
	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("now", nil, intProvider(1, &calls), loom.Transient()))

	loomtest.RequireResolve(t, in, "now")
	loomtest.RequireResolve(t, in, "now")
	assert.Equal(t, 2, calls, "transient providers run on every request")
}

func TestSync_DuplicateRejected(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.Provide("port", 8080))

	err := in.Provide("port", 9090)
	assert.True(t, loom.IsDuplicateResource(err))
}

func TestSync_ReplaceEvictsCache(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.Provide("cfg", "old"))
	assert.Equal(t, "old", loomtest.RequireValue[string](t, in, "cfg"))

	loomtest.Replace(t, in, "cfg", "new")
	assert.Equal(t, "new", loomtest.RequireValue[string](t, in, "cfg"))
}

func TestSync_ReplaceFlowsToDependents(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.Provide("greeting", "hello"))
	require.NoError(t, in.ProvideFunc("message", []string{"greeting"}, func(ctx context.Context, args []any) (any, error) {
		return args[0].(string) + ", world", nil
	}, loom.Transient()))

	assert.Equal(t, "hello, world", loomtest.RequireValue[string](t, in, "message"))
	loomtest.Replace(t, in, "greeting", "goodbye")
	assert.Equal(t, "goodbye, world", loomtest.RequireValue[string](t, in, "message"))
}

func TestSync_MissingResource(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	_, err := in.Require(context.Background(), "ghost")
	assert.True(t, loom.IsMissingResource(err))
	assert.False(t, in.Has("ghost"))
}

func TestSync_MissingDependency(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("svc", []string{"db"}, func(ctx context.Context, args []any) (any, error) {
		return nil, nil
	}))

	_, err := in.Require(context.Background(), "svc")
	assert.True(t, loom.IsMissingDependency(err))
	assert.Contains(t, err.Error(), `"db"`)
	assert.Contains(t, err.Error(), `"svc"`)
}

func TestSync_CycleDetected(t *testing.T) {
	t.Parallel()

	echo := func(ctx context.Context, args []any) (any, error) { return args[0], nil }

	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("a", []string{"b"}, echo))
	require.NoError(t, in.ProvideFunc("b", []string{"a"}, echo))

	_, err := in.Require(context.Background(), "a")
	loomtest.RequireCycle(t, err, "a", "b", "a")
}

func TestSync_SelfCycle(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("a", []string{"a"}, func(ctx context.Context, args []any) (any, error) {
		return args[0], nil
	}))

	_, err := in.Require(context.Background(), "a")
	loomtest.RequireCycle(t, err, "a", "a")
}

func TestSync_ProviderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connect refused")
	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("db", nil, func(ctx context.Context, args []any) (any, error) {
		return nil, boom
	}))

	_, err := in.Require(context.Background(), "db")
	assert.True(t, loom.IsProviderFailed(err))
	assert.ErrorIs(t, err, boom)
}

func TestSync_ProviderErrorNotMemoized(t *testing.T) {
	t.Parallel()

	calls := 0
	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("flaky", nil, func(ctx context.Context, args []any) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("first attempt fails")
		}
		return "ok", nil
	}))

	_, err := in.Require(context.Background(), "flaky")
	require.Error(t, err)
	assert.Equal(t, "ok", loomtest.RequireValue[string](t, in, "flaky"))
	assert.Equal(t, 2, calls)
}

func TestSync_Timeout(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("slow", nil, func(ctx context.Context, args []any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, loom.WithTimeout(5*time.Millisecond)))

	_, err := in.Require(context.Background(), "slow")
	assert.True(t, loom.IsTimeout(err))
}

func TestSync_SelfResource(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	got := loomtest.RequireResolve(t, in, loom.SelfName)
	assert.Same(t, in, got)
}

func TestSync_MustRequirePanics(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	assert.Panics(t, func() {
		in.MustRequire(context.Background(), "ghost")
	})
}

func TestSync_KeysAndSize(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.Provide("a", 1))
	require.NoError(t, in.Provide("b", 2))

	assert.Equal(t, []string{loom.SelfName, "a", "b"}, in.Keys())
	assert.Equal(t, 3, in.Size())
	assert.True(t, in.Has("a"))
}

func TestSync_Scan(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.Provide("const-one", 1))
	require.NoError(t, in.ProvideFunc("fn-one", nil, intProvider(2, nil)))

	constants := in.Scan(func(name string, attrs *loom.Attributes) bool {
		return attrs.Check(loom.TagConstant)
	})
	assert.Equal(t, []string{loom.SelfName, "const-one"}, constants)
}

func TestSync_AttributesRecorded(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.Provide("port", 8080,
		loom.WithNamespace("net"),
		loom.WithAlias("p"),
		loom.WithDocs("listen port")))

	attrs, err := in.Attributes("net/port")
	require.NoError(t, err)
	assert.Equal(t, "port", attrs.GetString(loom.TagName))
	assert.Equal(t, "net/port", attrs.GetString(loom.TagFullName))
	assert.Equal(t, "net", attrs.GetString(loom.TagNamespace))
	assert.Equal(t, []string{"p"}, attrs.GetStrings(loom.TagAliases))
	assert.Equal(t, "listen port", attrs.GetString(loom.TagDocs))
	assert.True(t, attrs.Check(loom.TagConstant))

	require.NoError(t, in.ProvideFunc("dial", nil, intProvider(1, nil),
		loom.WithTimeout(50*time.Millisecond)))
	attrs, err = in.Attributes("dial")
	require.NoError(t, err)
	d, ok := attrs.Get(loom.TagTimeout)
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, d)
}

func TestSync_Observers(t *testing.T) {
	t.Parallel()

	var provided, resolved []string
	in := loom.NewSync(
		loom.WithProvideObserver(func(name string) {
			provided = append(provided, name)
		}),
		loom.WithResolveObserver(func(name string, d time.Duration, err error) {
			resolved = append(resolved, name)
		}),
	)
	require.NoError(t, in.Provide("a", 1))
	require.NoError(t, in.ProvideFunc("b", []string{"a"}, func(ctx context.Context, args []any) (any, error) {
		return args[0], nil
	}))

	loomtest.RequireResolve(t, in, "b")
	assert.Equal(t, []string{loom.SelfName, "a", "b"}, provided)
	assert.Equal(t, []string{"a", "b"}, resolved)
}

func TestSync_Interceptor(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	require.NoError(t, in.Provide("base", 1))
	require.NoError(t, in.ProvideFunc("sum", []string{"base"}, func(ctx context.Context, args []any) (any, error) {
		return args[0].(int) + 1, nil
	}))

	in.Intercept(func(ctx context.Context, attrs *loom.Attributes, params map[string]any, aliases map[string]string) (map[string]any, error) {
		if attrs.GetString(loom.TagFullName) == "sum" {
			assert.Equal(t, "base", aliases["base"])
			params["base"] = 10
		}
		return params, nil
	})

	assert.Equal(t, 11, loomtest.RequireValue[int](t, in, "sum"))
}

func TestSync_InterceptorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("rejected")
	in := loom.NewSync()
	require.NoError(t, in.Provide("base", 1))
	require.NoError(t, in.ProvideFunc("sum", []string{"base"}, func(ctx context.Context, args []any) (any, error) {
		return args[0], nil
	}))
	in.Intercept(func(ctx context.Context, attrs *loom.Attributes, params map[string]any, aliases map[string]string) (map[string]any, error) {
		return nil, boom
	})

	_, err := in.Require(context.Background(), "sum")
	assert.True(t, loom.IsProviderFailed(err))
	assert.ErrorIs(t, err, boom)
}

func TestSync_CustomTokens(t *testing.T) {
	t.Parallel()

	in := loom.NewSync(loom.WithSeparator("."), loom.WithRootToken("@"))
	require.NoError(t, in.Provide("timeout", 30))
	require.NoError(t, in.Apply(loom.NewModule("net", loom.ModuleNamespace("net")).
		Const("port", 8080).
		Provide("addr", []string{"port", "@timeout"}, func(ctx context.Context, args []any) (any, error) {
			return args[0].(int) + args[1].(int), nil
		})))

	assert.Equal(t, 8080, loomtest.RequireValue[int](t, in, "net.port"))
	assert.Equal(t, 8110, loomtest.RequireValue[int](t, in, "net.addr"))
}
