package dotpath

import (
	"reflect"
	"sort"
	"strconv"
)

// Flat maps dotted keys to scalar leaves.
type Flat map[string]any

// Keys returns the keys of f in ascending order.
func (f Flat) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether f and other hold the same keys with equal leaves.
func (f Flat) Equal(other Flat) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		w, ok := other[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// Flatten walks m depth-first and emits one entry per leaf. Empty containers
// have no leaves and therefore emit nothing.
func Flatten(m map[string]any) Flat {
	out := Flat{}
	for k, v := range m {
		flattenInto(out, k, v)
	}
	return out
}

func flattenInto(out Flat, prefix string, node any) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			flattenInto(out, prefix+Separator+k, v)
		}
	case []any:
		for i, v := range n {
			flattenInto(out, prefix+Separator+strconv.Itoa(i), v)
		}
	default:
		out[prefix] = n
	}
}

// Unflatten rebuilds the nested map described by flat. Entries are applied in
// key order so the result does not depend on map iteration; when a flat map
// holds both "a" and "a.b" the deeper key wins. Entries with an empty key are
// skipped.
func Unflatten(flat Flat) map[string]any {
	root := map[string]any{}
	for _, k := range flat.Keys() {
		if k == "" {
			continue
		}
		assign(root, Split(k), flat[k])
	}
	for k, v := range root {
		root[k] = Listify(v)
	}
	return root
}

// Listify turns every map below (and including) node whose keys are exactly
// "0".."n-1" into a list, in place where possible. This is the shape Unflatten
// produces, so a tree that went through Listify looks the same after a
// Flatten/Unflatten round trip.
func Listify(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			n[k] = Listify(v)
		}
		if list, ok := mapToList(n); ok {
			return list
		}
		return n
	case []any:
		for i, v := range n {
			n[i] = Listify(v)
		}
		return n
	default:
		return node
	}
}

// --------------------------------------------------------------------------
// Value Helpers
// --------------------------------------------------------------------------

// Normalize returns a deep copy of v in which every map with string keys is a
// map[string]any and every slice or array is a []any. Byte slices become strings.
// Scalars are returned as they are.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil, string, bool, int, int64, float64:
		return v
	case []byte:
		return string(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of m.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return Normalize(m).(map[string]any)
}

// Prune removes empty containers from v recursively. Empty list elements are
// dropped and the list is compacted. The boolean is false when v itself ends up
// as an empty container.
func Prune(v any) (any, bool) {
	switch n := v.(type) {
	case map[string]any:
		for k, e := range n {
			pruned, keep := Prune(e)
			if !keep {
				delete(n, k)
				continue
			}
			n[k] = pruned
		}
		return n, len(n) > 0
	case []any:
		out := n[:0]
		for _, e := range n {
			if pruned, keep := Prune(e); keep {
				out = append(out, pruned)
			}
		}
		return out, len(out) > 0
	default:
		return v, true
	}
}
