package backend

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	persisted := Flat{"a": "1", "b": "2", "c": "3"}
	target := Flat{"b": "20", "c": "3", "d": "4"}

	c := Diff(persisted, target)

	if want := (Flat{"b": "20", "c": "3"}); !reflect.DeepEqual(c.Update, want) {
		t.Errorf("Update = %v, want %v", c.Update, want)
	}
	if want := (Flat{"d": "4"}); !reflect.DeepEqual(c.Insert, want) {
		t.Errorf("Insert = %v, want %v", c.Insert, want)
	}
	if want := []string{"a"}; !reflect.DeepEqual(c.Delete, want) {
		t.Errorf("Delete = %v, want %v", c.Delete, want)
	}
	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4", c.Len())
	}
}

func TestDiffSetsAreDisjointAndCover(t *testing.T) {
	cases := []struct{ p, t Flat }{
		{Flat{}, Flat{}},
		{Flat{}, Flat{"x": 1}},
		{Flat{"x": 1}, Flat{}},
		{Flat{"x": 1, "y": 2}, Flat{"y": 3, "z": 4}},
		{Flat{"a.b": 1, "a.c": 2}, Flat{"a.b": 1}},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case%d", i), func(t *testing.T) {
			c := Diff(tc.p, tc.t)
			seen := map[string]int{}
			for k := range c.Update {
				seen[k]++
				if _, ok := tc.p[k]; !ok {
					t.Errorf("update key %q not persisted", k)
				}
				if _, ok := tc.t[k]; !ok {
					t.Errorf("update key %q not in target", k)
				}
			}
			for k := range c.Insert {
				seen[k]++
				if _, ok := tc.p[k]; ok {
					t.Errorf("insert key %q already persisted", k)
				}
			}
			for _, k := range c.Delete {
				seen[k]++
				if _, ok := tc.t[k]; ok {
					t.Errorf("delete key %q still in target", k)
				}
			}

			for k, n := range seen {
				if n != 1 {
					t.Errorf("key %q appears in %d sets", k, n)
				}
			}
			union := map[string]struct{}{}
			for k := range tc.p {
				union[k] = struct{}{}
			}
			for k := range tc.t {
				union[k] = struct{}{}
			}
			if len(union) != len(seen) {
				t.Errorf("sets cover %d keys, union has %d", len(seen), len(union))
			}
			if c.Empty() != (len(union) == 0) {
				t.Errorf("Empty() = %v for union size %d", c.Empty(), len(union))
			}
		})
	}
}

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("store: load: %w", StorageError(ImplJSON, "read", io.ErrUnexpectedEOF))

	if !errors.Is(err, ErrStorageAccess) {
		t.Error("expected ErrStorageAccess to match")
	}
	if errors.Is(err, ErrMalformedRecord) {
		t.Error("ErrMalformedRecord must not match a storage error")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected the cause to be reachable")
	}

	var be *Error
	if !errors.As(err, &be) || be.Backend != ImplJSON || be.Op != "read" {
		t.Errorf("errors.As = %+v", be)
	}

	malformed := MalformedError(ImplDatabase, "read", "row %d has no key", 3)
	if !errors.Is(malformed, ErrMalformedRecord) {
		t.Error("expected ErrMalformedRecord to match")
	}
}

func TestParseImplementation(t *testing.T) {
	tests := map[string]Implementation{
		"json":     ImplJSON,
		"database": ImplDatabase,
		"memory":   ImplMemory,
		"array":    ImplMemory,
		" Redis ":  ImplRedis,
		"remote":   ImplRemote,
	}
	for in, want := range tests {
		got, err := ParseImplementation(in)
		if err != nil || got != want {
			t.Errorf("ParseImplementation(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseImplementation("mongo"); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestFeatures(t *testing.T) {
	got := Features(FeatureRead | FeatureWrite | FeatureScope)
	want := []Feature{FeatureRead, FeatureWrite, FeatureScope}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Features = %v, want %v", got, want)
	}
	if FeatureDiff.String() != "Diff" {
		t.Errorf("String = %q", FeatureDiff.String())
	}
}
