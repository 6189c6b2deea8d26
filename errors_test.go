package loom_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdi/loom"
)

func TestErrorCode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MISSING_RESOURCE", loom.ErrCodeMissingResource.String())
	assert.Equal(t, "CYCLE", loom.ErrCodeCycle.String())
	assert.Equal(t, "UNKNOWN(999)", loom.ErrorCode(999).String())
}

func TestError_MessageCarriesResource(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	_, err := in.Require(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[MISSING_RESOURCE]")
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	_, err1 := in.Require(context.Background(), "ghost")
	_, err2 := in.Require(context.Background(), "phantom")

	assert.True(t, errors.Is(err1, err2), "errors with the same code match")

	require.NoError(t, in.Provide("a", 1))
	dupErr := in.Provide("a", 2)
	assert.False(t, errors.Is(err1, dupErr))
}

func TestError_PredicatesSeeThroughWrapping(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	err := in.Apply(
		loom.NewModule("one").Const("x", 1),
		loom.NewModule("two").Const("x", 2),
	)
	require.Error(t, err)
	assert.True(t, loom.IsDuplicateResource(err))
	assert.False(t, loom.IsCycle(err))
}

func TestError_UnwrapExposesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("db", nil, func(ctx context.Context, args []any) (any, error) {
		return nil, cause
	}))

	_, err := in.Require(context.Background(), "db")
	assert.ErrorIs(t, err, cause)

	var e *loom.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, loom.ErrCodeProviderFailed, e.Code)
	assert.Equal(t, "db", e.Resource)
}

func TestCyclePath(t *testing.T) {
	t.Parallel()

	echo := func(ctx context.Context, args []any) (any, error) { return args[0], nil }
	in := loom.NewSync()
	require.NoError(t, in.ProvideFunc("a", []string{"b"}, echo))
	require.NoError(t, in.ProvideFunc("b", []string{"c"}, echo))
	require.NoError(t, in.ProvideFunc("c", []string{"a"}, echo))

	_, err := in.Require(context.Background(), "a")
	assert.Equal(t, []string{"a", "b", "c", "a"}, loom.CyclePath(err))
	assert.Nil(t, loom.CyclePath(errors.New("not a cycle")))
	assert.Nil(t, loom.CyclePath(nil))
}

func TestError_InvalidTarget(t *testing.T) {
	t.Parallel()

	in := loom.NewSync()
	_, err := in.Inject(context.Background(), 42)
	var e *loom.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, loom.ErrCodeInvalidTarget, e.Code)
}
