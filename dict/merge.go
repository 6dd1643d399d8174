// Package dict provides helpers for nested string-keyed mappings, the shape
// produced by YAML decoding and by the configuration sources.
package dict

// Merge recursively merges src into dst and returns dst.
//
// For every key in src:
//   - if the value is a map[string]any, Merge recurses into dst's mapping at
//     that key, creating it when it is absent or holds a non-mapping leaf;
//   - otherwise the value overwrites dst's value.
//
// Keys present only in dst are left untouched. Nested mappings from src are
// copied rather than aliased, so later changes to src do not show up in dst.
// A nil dst is allocated.
//
// Example:
//
//	dst := map[string]any{"first": map[string]any{"pass": "dog", "number": "1"}}
//	src := map[string]any{"first": map[string]any{"fail": "cat", "number": "5"}}
//	dict.Merge(src, dst)
//	// dst == {"first": {"pass": "dog", "fail": "cat", "number": "5"}}
func Merge(src, dst map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}

	for k, v := range src {
		sv, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}

		node, ok := dst[k].(map[string]any)
		if !ok || node == nil {
			node = make(map[string]any, len(sv))
			dst[k] = node
		}
		Merge(sv, node)
	}

	return dst
}

// MergeAll folds maps left to right into a fresh mapping. Later maps win.
func MergeAll(maps ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range maps {
		Merge(m, out)
	}
	return out
}
