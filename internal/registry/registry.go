// Package registry maps fully qualified resource names to their providers
// and metadata. Entries are created at module-scan time and are immutable
// afterwards; the registry itself only ever gains entries (or replaces one
// when an override is explicitly requested).
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/loomdi/loom/internal/attr"
	"github.com/loomdi/loom/internal/namespace"
	"github.com/loomdi/loom/internal/sched"
)

// RunFunc executes a synchronous provider with its resolved dependency
// values in declaration order.
type RunFunc func(ctx context.Context, args []any) (any, error)

// StartFunc begins an asynchronous provider; a non-nil continuation is a
// suspension point for the scheduling loop.
type StartFunc func(ctx context.Context, args []any) (any, sched.Continuation, error)

// Entry is one registered provider.
type Entry struct {
	Local     string
	Qualified string
	Deps      []string // raw declared dependency names
	Scope     namespace.Scope
	Run       RunFunc
	Start     StartFunc // non-nil only for asynchronous providers
	Timeout   time.Duration
	Attrs     *attr.Attributes
	Seq       int // registration index
}

func (e *Entry) IsAsync() bool     { return e.Start != nil }
func (e *Entry) IsConstant() bool  { return e.Attrs.Check(attr.TagConstant) }
func (e *Entry) IsTransient() bool { return e.Attrs.Check(attr.TagTransient) }

// DuplicateError reports a second registration for a qualified name without
// an explicit override.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("resource already provided: %q", e.Name)
}

// NotFoundError reports a lookup for an unregistered qualified name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not provided: %q", e.Name)
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	aliases map[string]string // alias qualified name -> canonical qualified name
	order   []string
	seq     int
}

func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		aliases: make(map[string]string),
	}
}

// Register inserts entry under its qualified name. A duplicate name is
// rejected unless replace is set; a replacement keeps the original
// registration position. Alias names occupy their qualified name the same
// way entries do: registering over one is a duplicate, and replacing one
// removes the alias mapping.
func (r *Registry) Register(entry *Entry, replace bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, aliased := r.aliases[entry.Qualified]; aliased {
		if !replace {
			return &DuplicateError{Name: entry.Qualified}
		}
		delete(r.aliases, entry.Qualified)
		entry.Attrs.Set(attr.TagReplaced)
	}

	prev, exists := r.entries[entry.Qualified]
	if exists && !replace {
		return &DuplicateError{Name: entry.Qualified}
	}
	if exists {
		entry.Seq = prev.Seq
		entry.Attrs.Set(attr.TagReplaced)
	} else {
		entry.Seq = r.seq
		r.seq++
		r.order = append(r.order, entry.Qualified)
	}
	r.entries[entry.Qualified] = entry
	return nil
}

// RegisterAlias maps an additional qualified name onto a canonical one.
// Alias names share the duplicate-rejection rule with entries.
func (r *Registry) RegisterAlias(alias, canonical string, replace bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[alias]; ok && !replace {
		return &DuplicateError{Name: alias}
	}
	if _, ok := r.aliases[alias]; ok && !replace {
		return &DuplicateError{Name: alias}
	}
	r.aliases[alias] = canonical
	return nil
}

// Canonical maps an alias to its target entry name; non-alias names map to
// themselves.
func (r *Registry) Canonical(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}
	return name
}

func (r *Registry) Lookup(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	entry, ok := r.entries[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return entry, nil
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	_, ok := r.entries[name]
	return ok
}

// Keys returns all qualified names in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Scan returns the qualified names whose attributes satisfy pred, in
// registration order.
func (r *Registry) Scan(pred func(name string, attrs *attr.Attributes) bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, name := range r.order {
		if pred(name, r.entries[name].Attrs) {
			out = append(out, name)
		}
	}
	return out
}
