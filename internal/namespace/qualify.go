package namespace

import (
	"fmt"
	"strings"
)

// Scope is the naming context a raw name is resolved in: the namespace the
// caller lives in, its alias table, and its imported namespaces in
// declaration order.
type Scope struct {
	Path    string
	Aliases map[string]string
	Using   []string
}

// AmbiguousError reports a bare name defined by more than one imported
// namespace with no disambiguating alias.
type AmbiguousError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("name %q is ambiguous: candidates %s", e.Name, strings.Join(e.Candidates, ", "))
}

// UndefinedError reports a bare name that no reachable namespace defines.
type UndefinedError struct {
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined name: %q", e.Name)
}

// Qualifier applies the naming grammar. Sep joins path segments; Root is the
// escape prefix that forces resolution from the root namespace.
type Qualifier struct {
	Sep  string
	Root string
}

func NewQualifier(sep, root string) Qualifier {
	if sep == "" {
		sep = DefaultSeparator
	}
	if root == "" {
		root = DefaultRootToken
	}
	return Qualifier{Sep: sep, Root: root}
}

// Qualify turns raw into a fully qualified resource name under scope. The
// has callback reports registry membership and drives the bare-name search.
// Rules, in order: root escape, alias substitution, bare-name search
// (local, then each using import, then root), and already-qualified names.
func (q Qualifier) Qualify(raw string, scope Scope, has func(string) bool) (string, error) {
	if raw == "" {
		return "", &UndefinedError{Name: raw}
	}
	if rest, ok := strings.CutPrefix(raw, q.Root); ok {
		return rest, nil
	}
	if target, ok := scope.Aliases[raw]; ok {
		return target, nil
	}
	if strings.Contains(raw, q.Sep) {
		return raw, nil
	}

	if scope.Path != "" {
		if local := scope.Path + q.Sep + raw; has(local) {
			return local, nil
		}
	}

	var candidates []string
	for _, ns := range scope.Using {
		if cand := ns + q.Sep + raw; has(cand) {
			candidates = append(candidates, cand)
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	default:
		if len(candidates) > 1 {
			return "", &AmbiguousError{Name: raw, Candidates: candidates}
		}
	}

	if has(raw) {
		return raw, nil
	}
	return "", &UndefinedError{Name: raw}
}

// QualifyLocal computes the qualified name a provider declared as local is
// bound under: the root token escapes the scope entirely, otherwise the
// scope path is prefixed.
func (q Qualifier) QualifyLocal(local, path string) string {
	if rest, ok := strings.CutPrefix(local, q.Root); ok {
		return rest
	}
	return Join(q.Sep, path, local)
}
