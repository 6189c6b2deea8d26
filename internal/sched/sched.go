// Package sched implements the cooperative scheduling loop used for
// asynchronous resolution. One loop drives one resolution wave: an explicit
// ready queue of tasks plus explicit suspension continuations, multiplexed
// on the caller's goroutine. No background goroutines are started and no
// scheduling state is shared between injectors.
package sched

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Continuation is the rest of a suspended provider. Returning a non-nil
// continuation suspends again; returning a nil continuation completes the
// task with the given value or error.
type Continuation func(ctx context.Context) (any, Continuation, error)

// Runner starts the provider for a node once all of its dependencies have
// settled. A non-nil continuation marks the first suspension point.
type Runner func(ctx context.Context, name string) (any, Continuation, error)

type task struct {
	name    string
	cont    Continuation
	started bool
	begun   time.Time
}

// Config describes one resolution wave.
type Config struct {
	// Nodes in resolution order; used to seed the ready queue
	// deterministically.
	Nodes []string
	// Deps maps each node to its qualified dependencies.
	Deps map[string][]string
	// Done reports dependencies satisfied before the wave started
	// (already-cached values). Done nodes are never scheduled.
	Done func(name string) bool
	// OnResult is called once per completed node with its value.
	OnResult func(name string, value any)
	// OnSettle is called when a node completes or fails, with the wall
	// time from its first step.
	OnSettle func(name string, d time.Duration, err error)
	Logger   *slog.Logger
}

// Wave is a single cooperative resolution pass. It is not reusable.
type Wave struct {
	cfg        Config
	pending    map[string]int
	dependents map[string][]string
	ready      []*task
	results    map[string]any
	errs       []error
	failed     bool
}

func NewWave(cfg Config) *Wave {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	w := &Wave{
		cfg:        cfg,
		pending:    make(map[string]int, len(cfg.Nodes)),
		dependents: make(map[string][]string, len(cfg.Nodes)),
		results:    make(map[string]any, len(cfg.Nodes)),
	}

	for _, name := range cfg.Nodes {
		if cfg.Done != nil && cfg.Done(name) {
			continue
		}
		count := 0
		for _, dep := range cfg.Deps[name] {
			if cfg.Done != nil && cfg.Done(dep) {
				continue
			}
			w.dependents[dep] = append(w.dependents[dep], name)
			count++
		}
		w.pending[name] = count
		if count == 0 {
			w.ready = append(w.ready, &task{name: name})
		}
	}
	return w
}

// Run drives the ready queue until it drains. Synchronous providers finish
// inline; suspended providers are re-queued at the back so independent
// ready nodes make progress while one is suspended. After the first error
// no new node is started, but in-flight continuations settle before the
// aggregated error is returned.
func (w *Wave) Run(ctx context.Context, run Runner) (map[string]any, error) {
	for len(w.ready) > 0 {
		t := w.ready[0]
		w.ready = w.ready[1:]

		if w.failed && !t.started {
			continue
		}

		var (
			value any
			cont  Continuation
			err   error
		)
		if !t.started {
			t.started = true
			t.begun = time.Now()
			value, cont, err = run(ctx, t.name)
		} else {
			value, cont, err = t.cont(ctx)
		}

		switch {
		case err != nil:
			w.cfg.Logger.Debug("resolution task failed", "resource", t.name, "error", err)
			w.settle(t, err)
			w.errs = append(w.errs, err)
			w.failed = true
		case cont != nil:
			t.cont = cont
			w.ready = append(w.ready, t)
		default:
			w.settle(t, nil)
			w.complete(t.name, value)
		}
	}

	if w.failed {
		return w.results, errors.Join(w.errs...)
	}
	return w.results, nil
}

func (w *Wave) settle(t *task, err error) {
	if w.cfg.OnSettle != nil {
		w.cfg.OnSettle(t.name, time.Since(t.begun), err)
	}
}

func (w *Wave) complete(name string, value any) {
	w.results[name] = value
	if w.cfg.OnResult != nil {
		w.cfg.OnResult(name, value)
	}
	if w.failed {
		return
	}
	for _, dependent := range w.dependents[name] {
		w.pending[dependent]--
		if w.pending[dependent] == 0 {
			w.ready = append(w.ready, &task{name: dependent})
		}
	}
}
