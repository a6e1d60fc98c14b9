package backend

import "sort"

// Changes is the minimal set of operations that turns a persisted flat map
// into a target flat map.
type Changes struct {
	Update Flat     // keys in both maps, with the target value
	Insert Flat     // keys only in the target
	Delete []string // keys only in the persisted map, sorted
}

// Diff computes update = P∩T, insert = T\P and delete = P\T. The three sets are
// pairwise disjoint and together cover every key of P and T.
// Update contains every shared key, also those whose value did not change;
// backends decide whether rewriting an equal value is worth a statement.
func Diff(persisted, target Flat) Changes {
	c := Changes{
		Update: Flat{},
		Insert: Flat{},
	}
	for k := range persisted {
		if v, ok := target[k]; ok {
			c.Update[k] = v
		} else {
			c.Delete = append(c.Delete, k)
		}
	}
	for k, v := range target {
		if _, ok := persisted[k]; !ok {
			c.Insert[k] = v
		}
	}
	sort.Strings(c.Delete)
	return c
}

// Empty reports whether the change set holds no operations at all.
func (c Changes) Empty() bool {
	return c.Len() == 0
}

// Len returns the number of keys touched by the change set.
func (c Changes) Len() int {
	return len(c.Update) + len(c.Insert) + len(c.Delete)
}
