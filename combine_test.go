package overlay

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuiltinCombiners(t *testing.T) {
	cases := []struct {
		name     string
		combiner Combiner[int]
		want     int
	}{
		{"replace", Replace[int](), 5},
		{"sum", Sum[int](), 15},
		{"product", Product[int](), 50},
		{"max", Max[int](), 10},
		{"min", Min[int](), 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.combiner.Combine(10, 5); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestCombineFunc(t *testing.T) {
	concat := CombineFunc[string](func(base, override string) string {
		return base + "/" + override
	})
	v := NewView[string, string](concat)
	v.Store().Set("path", "root")
	_ = v.Set("path", "leaf")
	if got := v.Get("path"); got != "root/leaf" {
		t.Fatalf("expected root/leaf, got %q", got)
	}
}

type limits struct {
	Name  *string
	Quota map[string]int
	Tags  []string
}

func TestMergeCombinerFillsUnsetFields(t *testing.T) {
	name := "base"
	base := limits{Name: &name, Quota: map[string]int{"cpu": 2, "mem": 4}, Tags: []string{"a"}}
	override := limits{Quota: map[string]int{"mem": 8}}

	got := Merge[limits]().Combine(base, override)

	if got.Name == nil || *got.Name != "base" {
		t.Fatalf("expected name from base, got %v", got.Name)
	}
	if diff := cmp.Diff(map[string]int{"cpu": 2, "mem": 8}, got.Quota); diff != "" {
		t.Fatalf("quota mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, got.Tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if len(override.Quota) != 1 || len(base.Quota) != 2 {
		t.Fatalf("expected inputs untouched")
	}
}

func TestMergeCombinerOnMaps(t *testing.T) {
	v := NewView[string, map[string]any](Merge[map[string]any]())
	v.Store().Set("cfg", map[string]any{"a": 1, "b": 2})
	_ = v.Set("cfg", map[string]any{"b": 3})

	want := map[string]any{"a": 1, "b": 3}
	if diff := cmp.Diff(want, v.Get("cfg")); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertResult(t *testing.T) {
	if got, err := convertResult[int](int64(7)); err != nil || got != 7 {
		t.Fatalf("expected int 7, got %d (%v)", got, err)
	}
	if got, err := convertResult[float64](3); err != nil || got != 3 {
		t.Fatalf("expected float 3, got %v (%v)", got, err)
	}
	if got, err := convertResult[any](nil); err != nil || got != nil {
		t.Fatalf("expected nil any, got %v (%v)", got, err)
	}
	if _, err := convertResult[int](nil); err == nil {
		t.Fatalf("expected error converting nil to int")
	}
	if _, err := convertResult[int]("7"); err == nil {
		t.Fatalf("expected error converting string to int")
	}
	if got, err := convertResult[int](float64(4)); err != nil || got != 4 {
		t.Fatalf("expected whole float to convert, got %d (%v)", got, err)
	}
	if got, err := convertResult[float32](int64(3)); err != nil || got != 3 {
		t.Fatalf("expected float32 3, got %v (%v)", got, err)
	}
	type label string
	if got, err := convertResult[label]("x"); err != nil || got != "x" {
		t.Fatalf("expected named string conversion, got %q (%v)", got, err)
	}
}

func TestConvertResultRejectsLossyNumbers(t *testing.T) {
	cases := []struct {
		name string
		run  func() error
	}{
		{"fraction to int", func() error { _, err := convertResult[int](3.5); return err }},
		{"nan to int", func() error { _, err := convertResult[int](math.NaN()); return err }},
		{"int8 overflow", func() error { _, err := convertResult[int8](int64(200)); return err }},
		{"negative to uint", func() error { _, err := convertResult[uint](int64(-1)); return err }},
		{"uint to int64 overflow", func() error { _, err := convertResult[int64](uint64(math.MaxUint64)); return err }},
		{"uint8 overflow", func() error { _, err := convertResult[uint8](uint64(300)); return err }},
		{"float to int32 overflow", func() error { _, err := convertResult[int32](float64(1 << 40)); return err }},
		{"float32 overflow", func() error { _, err := convertResult[float32](math.MaxFloat64); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); err == nil {
				t.Fatalf("expected conversion error")
			}
		})
	}
}

func TestExprCombinerLossyResultFallsBackToOverride(t *testing.T) {
	var logged []error
	logger := CombineLoggerFunc(func(event CombineLogEvent) {
		logged = append(logged, event.Err)
	})

	div, err := NewExprCombiner[int]("base / override", WithCombineLogger(logger))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := div.Combine(7, 2); got != 2 {
		t.Fatalf("expected override fallback 2, got %d", got)
	}

	add, err := NewExprCombiner[int8]("base + override", WithCombineLogger(logger))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := add.Combine(100, 100); got != 100 {
		t.Fatalf("expected override fallback 100, got %d", got)
	}

	if len(logged) != 2 {
		t.Fatalf("expected two logged invocations, got %d", len(logged))
	}
	for _, err := range logged {
		var combineErr *CombineError
		if !errors.As(err, &combineErr) {
			t.Fatalf("expected CombineError, got %v", err)
		}
	}
}

type tier struct {
	Level *int
}

type plan struct {
	Name string
	Tier *tier
	Tags []string
}

func TestMergeCombinerOverridePointerOverNilBase(t *testing.T) {
	one := 1
	v := NewView[string, plan](Merge[plan]())
	if err := v.AddWithBase("k", plan{Tier: &tier{Level: &one}}, plan{Name: "base"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	got := v.Get("k")
	want := plan{Name: "base", Tier: &tier{Level: &one}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
	*got.Tier.Level = 9
	if override, _ := v.TryGetOwnOverride("k"); *override.Tier.Level != 1 {
		t.Fatalf("expected stored override untouched, got %d", *override.Tier.Level)
	}
}

func TestMergeCombinerNilOverrideFieldsKeepBase(t *testing.T) {
	two := 2
	v := NewView[string, plan](Merge[plan]())
	if err := v.AddWithBase("k", plan{Name: "override"}, plan{Tier: &tier{Level: &two}, Tags: []string{"b"}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	want := plan{Name: "override", Tier: &tier{Level: &two}, Tags: []string{"b"}}
	if diff := cmp.Diff(want, v.Get("k")); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
}
