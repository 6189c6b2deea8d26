package loom

import "github.com/loomdi/loom/internal/attr"

// Attributes is the per-resource metadata bag. Scan predicates receive it to
// search the registry by attribute, e.g. all constants or all asynchronous
// providers.
type Attributes = attr.Attributes

// Attribute tags carried by every registered resource.
const (
	TagName      = attr.TagName
	TagFullName  = attr.TagFullName
	TagNamespace = attr.TagNamespace
	TagAliases   = attr.TagAliases
	TagUsing     = attr.TagUsing
	TagConstant  = attr.TagConstant
	TagAsync     = attr.TagAsync
	TagTransient = attr.TagTransient
	TagDocs      = attr.TagDocs
	TagReplaced  = attr.TagReplaced
	TagTimeout   = attr.TagTimeout
)
