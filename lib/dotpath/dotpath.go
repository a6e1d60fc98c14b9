package dotpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator joins the segments of a dotted key.
const Separator = "."

var (
	// ErrEmptyPath is returned when a write addresses the root of the tree.
	ErrEmptyPath = errors.New("dotpath: empty path")
	// ErrNilMap is returned when a write targets a nil map.
	ErrNilMap = errors.New("dotpath: nil map")
	// ErrSeparatorInKey is returned when a map inside a written value has a
	// key containing Separator. Such a key would share its dotted key with
	// the nested node of the same name.
	ErrSeparatorInKey = errors.New("dotpath: map key contains separator")
)

// --------------------------------------------------------------------------
// Path Operations
// --------------------------------------------------------------------------

// Split splits a dotted key into its segments. The empty path has no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Join is the inverse of Split.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Get returns the node stored at path. The boolean is false when a segment is
// missing or an intermediate node is not a container.
// The returned value is not copied.
func Get(m map[string]any, path string) (any, bool) {
	segments := Split(path)
	if m == nil || len(segments) == 0 {
		return nil, false
	}

	var node any = m
	for _, seg := range segments {
		next, ok := child(node, seg)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Has reports whether a node exists at path.
func Has(m map[string]any, path string) bool {
	_, ok := Get(m, path)
	return ok
}

// Set stores value at path, creating intermediate maps as needed and
// overwriting whatever was there before (including scalars on the way).
// Containers inside value are copied, so the caller keeps ownership of value.
//
// Lists follow array semantics: an index equal to the list length appends,
// any other segment that is not a valid index turns the list into a map keyed
// by the former indices.
//
// Map keys inside value must not contain Separator (ErrSeparatorInKey); m is
// left untouched in that case.
func Set(m map[string]any, path string, value any) error {
	if m == nil {
		return ErrNilMap
	}
	segments := Split(path)
	if len(segments) == 0 {
		return ErrEmptyPath
	}
	value = Normalize(value)
	if err := CheckKeys(value); err != nil {
		return err
	}
	assign(m, segments, value)
	return nil
}

// CheckKeys returns ErrSeparatorInKey when any map below v, v included, has a
// key containing Separator. v is expected in the form returned by Normalize.
func CheckKeys(v any) error {
	switch n := v.(type) {
	case map[string]any:
		for k, e := range n {
			if strings.Contains(k, Separator) {
				return fmt.Errorf("%w: %q", ErrSeparatorInKey, k)
			}
			if err := CheckKeys(e); err != nil {
				return err
			}
		}
	case []any:
		for _, e := range n {
			if err := CheckKeys(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// Forget removes the node at path and then every ancestor that became empty,
// stopping at the first ancestor that still holds something. The root map is
// never removed. It returns whether anything was removed.
//
// Removing the last element of a list truncates it. Removing any other element
// turns the list into a map that keeps the remaining indices, so the dotted keys
// of the other elements stay stable.
func Forget(m map[string]any, path string) bool {
	segments := Split(path)
	if m == nil || len(segments) == 0 {
		return false
	}
	_, removed := forget(m, segments)
	return removed
}

// --------------------------------------------------------------------------
// Internal Helpers
// --------------------------------------------------------------------------

// child returns the direct child of node addressed by seg.
func child(node any, seg string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[seg]
		return v, ok
	case []any:
		i, ok := index(seg)
		if !ok || i >= len(n) {
			return nil, false
		}
		return n[i], true
	default:
		return nil, false
	}
}

// assign writes value below node and returns the node, which is a new value
// when a list had to grow or turn into a map, or when node was not a container.
func assign(node any, segments []string, value any) any {
	seg, rest := segments[0], segments[1:]

	switch n := node.(type) {
	case map[string]any:
		if len(rest) == 0 {
			n[seg] = value
		} else {
			n[seg] = assign(n[seg], rest, value)
		}
		return n
	case []any:
		i, ok := index(seg)
		if !ok || i > len(n) {
			return assign(listToMap(n), segments, value)
		}
		if i == len(n) {
			n = append(n, nil)
		}
		if len(rest) == 0 {
			n[i] = value
		} else {
			n[i] = assign(n[i], rest, value)
		}
		return n
	default:
		return assign(map[string]any{}, segments, value)
	}
}

// forget removes the node below node and returns the (possibly replaced) node.
func forget(node any, segments []string) (any, bool) {
	seg, rest := segments[0], segments[1:]

	switch n := node.(type) {
	case map[string]any:
		next, ok := n[seg]
		if !ok {
			return n, false
		}
		if len(rest) > 0 {
			var removed bool
			if next, removed = forget(next, rest); !removed {
				return n, false
			}
			if !isEmptyContainer(next) {
				n[seg] = next
				return n, true
			}
		}
		delete(n, seg)
		return n, true
	case []any:
		i, ok := index(seg)
		if !ok || i >= len(n) {
			return n, false
		}
		if len(rest) > 0 {
			next, removed := forget(n[i], rest)
			if !removed {
				return n, false
			}
			if !isEmptyContainer(next) {
				n[i] = next
				return n, true
			}
		}
		if i == len(n)-1 {
			n[i] = nil
			return n[:i], true
		}
		asMap := listToMap(n)
		delete(asMap, seg)
		return asMap, true
	default:
		return node, false
	}
}

// index parses a canonical decimal list index ("0", "12", not "01" or "-1").
func index(seg string) (int, bool) {
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || strconv.Itoa(i) != seg {
		return 0, false
	}
	return i, true
}

func listToMap(list []any) map[string]any {
	m := make(map[string]any, len(list))
	for i, v := range list {
		m[strconv.Itoa(i)] = v
	}
	return m
}

// mapToList converts a map whose keys are exactly "0".."n-1" into a list.
func mapToList(m map[string]any) ([]any, bool) {
	if len(m) == 0 {
		return nil, false
	}
	list := make([]any, len(m))
	for i := range list {
		v, ok := m[strconv.Itoa(i)]
		if !ok {
			return nil, false
		}
		list[i] = v
	}
	return list, true
}

func isEmptyContainer(v any) bool {
	switch n := v.(type) {
	case map[string]any:
		return len(n) == 0
	case []any:
		return len(n) == 0
	default:
		return false
	}
}
