package engine

import "strings"

// ResolveField walks a dotted path through a nested evaluation context.
// The second return value distinguishes an absent field from a field that
// is present with a nil value: a missing key or a non-map intermediate at
// any level yields (nil, false), a present nil yields (nil, true).
func ResolveField(context map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = context
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
