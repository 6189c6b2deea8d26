// Package attr implements the per-provider metadata store. Every resource
// known to an injector carries an Attributes bag holding its local name,
// full resource name, namespace, aliases and behavioral flags. The registry
// and the facade read these; nothing else mutates them after binding.
package attr

// Well-known attribute tags.
const (
	TagName      = "loom.tags.name"
	TagFullName  = "loom.tags.resource_full_name"
	TagNamespace = "loom.tags.namespace"
	TagAliases   = "loom.tags.aliases"
	TagUsing     = "loom.tags.using_namespaces"
	TagConstant  = "loom.tags.constant"
	TagAsync     = "loom.tags.async"
	TagTransient = "loom.tags.transient"
	TagDocs      = "loom.tags.docs"
	TagReplaced  = "loom.tags.replaced"
	TagTimeout   = "loom.tags.timeout"
)

type Attributes struct {
	m map[string]any
}

func New() *Attributes {
	return &Attributes{m: make(map[string]any)}
}

func (a *Attributes) Put(tag string, value any) *Attributes {
	a.m[tag] = value
	return a
}

// Set records a boolean flag under tag.
func (a *Attributes) Set(tag string) *Attributes {
	return a.Put(tag, true)
}

func (a *Attributes) Get(tag string) (any, bool) {
	v, ok := a.m[tag]
	return v, ok
}

func (a *Attributes) GetString(tag string) string {
	if v, ok := a.m[tag]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (a *Attributes) GetStrings(tag string) []string {
	if v, ok := a.m[tag]; ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
	}
	return nil
}

func (a *Attributes) GetStringMap(tag string) map[string]string {
	if v, ok := a.m[tag]; ok {
		if m, ok := v.(map[string]string); ok {
			return m
		}
	}
	return nil
}

// Check reports whether tag is present and truthy.
func (a *Attributes) Check(tag string) bool {
	v, ok := a.m[tag]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (a *Attributes) Has(tag string) bool {
	_, ok := a.m[tag]
	return ok
}

// Merge copies every tag from other into a, overwriting collisions.
func (a *Attributes) Merge(other *Attributes) *Attributes {
	for tag, value := range other.m {
		a.m[tag] = value
	}
	return a
}

func (a *Attributes) Clone() *Attributes {
	clone := New()
	clone.Merge(a)
	return clone
}
