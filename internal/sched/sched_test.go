package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// suspendOnce returns a runner step that suspends one time before
// completing with value, recording the execution trace.
func suspendOnce(name string, value any, trace *[]string) func(ctx context.Context) (any, Continuation, error) {
	return func(ctx context.Context) (any, Continuation, error) {
		*trace = append(*trace, name+":start")
		return nil, func(ctx context.Context) (any, Continuation, error) {
			*trace = append(*trace, name+":resume")
			return value, nil, nil
		}, nil
	}
}

func TestWave_InlineCompletion(t *testing.T) {
	t.Parallel()

	w := NewWave(Config{
		Nodes: []string{"a", "b"},
		Deps:  map[string][]string{"b": {"a"}},
	})

	results, err := w.Run(context.Background(), func(ctx context.Context, name string) (any, Continuation, error) {
		return name + "!", nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "a!", "b": "b!"}, results)
}

func TestWave_DependentWaitsForDependency(t *testing.T) {
	t.Parallel()

	var trace []string
	w := NewWave(Config{
		Nodes: []string{"a", "b"},
		Deps:  map[string][]string{"b": {"a"}},
	})

	results, err := w.Run(context.Background(), func(ctx context.Context, name string) (any, Continuation, error) {
		if name == "a" {
			return suspendOnce("a", 1, &trace)(ctx)
		}
		trace = append(trace, "b:start")
		return 2, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:start", "a:resume", "b:start"}, trace,
		"b begins only after a settles")
	assert.Equal(t, 1, results["a"])
	assert.Equal(t, 2, results["b"])
}

func TestWave_IndependentBranchesInterleave(t *testing.T) {
	t.Parallel()

	var trace []string
	w := NewWave(Config{Nodes: []string{"p1", "p2"}, Deps: map[string][]string{}})

	results, err := w.Run(context.Background(), func(ctx context.Context, name string) (any, Continuation, error) {
		if name == "p1" {
			return suspendOnce("p1", 1, &trace)(ctx)
		}
		return suspendOnce("p2", 2, &trace)(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, results["p1"])
	assert.Equal(t, 2, results["p2"])
	assert.Equal(t, []string{"p1:start", "p2:start", "p1:resume", "p2:resume"}, trace,
		"a suspended task yields to the other ready task")
}

func TestWave_ErrorStopsNewWorkButDrainsInFlight(t *testing.T) {
	t.Parallel()

	var trace []string
	boom := errors.New("boom")

	// slow suspends before fail errors; late depends on slow. slow must
	// still settle after the failure, late must never start.
	w := NewWave(Config{
		Nodes: []string{"slow", "fail", "late"},
		Deps:  map[string][]string{"late": {"slow"}},
	})

	results, err := w.Run(context.Background(), func(ctx context.Context, name string) (any, Continuation, error) {
		switch name {
		case "fail":
			trace = append(trace, "fail:start")
			return nil, nil, boom
		case "slow":
			return suspendOnce("slow", 42, &trace)(ctx)
		default:
			trace = append(trace, "late:start")
			return nil, nil, nil
		}
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 42, results["slow"], "in-flight sibling settled")
	assert.NotContains(t, trace, "late:start", "no new node scheduled after failure")
}

func TestWave_MultipleErrorsJoined(t *testing.T) {
	t.Parallel()

	errA := errors.New("a failed")
	errB := errors.New("b failed")

	w := NewWave(Config{Nodes: []string{"a", "b"}, Deps: map[string][]string{}})

	_, err := w.Run(context.Background(), func(ctx context.Context, name string) (any, Continuation, error) {
		if name == "a" {
			return nil, func(ctx context.Context) (any, Continuation, error) {
				return nil, nil, errA
			}, nil
		}
		return nil, func(ctx context.Context) (any, Continuation, error) {
			return nil, nil, errB
		}, nil
	})

	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB, "in-flight sibling error is retained")
}

func TestWave_DoneNodesSkipped(t *testing.T) {
	t.Parallel()

	var ran []string
	w := NewWave(Config{
		Nodes: []string{"cached", "fresh"},
		Deps:  map[string][]string{"fresh": {"cached"}},
		Done:  func(name string) bool { return name == "cached" },
	})

	results, err := w.Run(context.Background(), func(ctx context.Context, name string) (any, Continuation, error) {
		ran = append(ran, name)
		return name, nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ran)
	assert.NotContains(t, results, "cached")
}

func TestWave_Callbacks(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	completed := make(map[string]any)
	settled := make(map[string]error)

	w := NewWave(Config{
		Nodes: []string{"ok", "bad"},
		Deps:  map[string][]string{},
		OnResult: func(name string, value any) {
			completed[name] = value
		},
		OnSettle: func(name string, d time.Duration, err error) {
			settled[name] = err
		},
	})
	_, err := w.Run(context.Background(), func(ctx context.Context, name string) (any, Continuation, error) {
		if name == "bad" {
			return nil, nil, boom
		}
		return 7, nil, nil
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 7, completed["ok"])
	assert.NotContains(t, completed, "bad")
	require.NoError(t, settled["ok"])
	assert.ErrorIs(t, settled["bad"], boom)
}
