package orchestrator

import "strings"

// Named is any backend entity that can be matched by display name.
type Named interface {
	EntityName() string
}

// ResolveByName finds the candidate whose name matches the given name
// case-insensitively. The match is otherwise exact: no trimming, no
// substring matching. "gopay" matches "Gopay"; "Groceries " does not
// match "Groceries".
func ResolveByName[T Named](name string, candidates []T) (T, bool) {
	for _, c := range candidates {
		if strings.EqualFold(c.EntityName(), name) {
			return c, true
		}
	}
	var zero T
	return zero, false
}
