package layering

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type channel struct {
	Enabled *bool
	Volume  *int
	Labels  []string
}

type settings struct {
	Name     string
	Limit    *int
	Channel  *channel
	Tags     []string
	Limits   map[string]int
	Metadata map[string]any
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func TestMergeLayersStrongWinsWeakFills(t *testing.T) {
	weak := settings{
		Name:    "base",
		Limit:   intPtr(10),
		Channel: &channel{Enabled: boolPtr(false), Volume: intPtr(3)},
		Tags:    []string{"base"},
		Limits:  map[string]int{"cpu": 1, "mem": 2},
	}
	strong := settings{
		Name:    "override",
		Channel: &channel{Enabled: boolPtr(true)},
		Limits:  map[string]int{"cpu": 4},
	}

	got := MergeLayers(strong, weak)
	want := settings{
		Name:    "override",
		Limit:   intPtr(10),
		Channel: &channel{Enabled: boolPtr(true), Volume: intPtr(3)},
		Tags:    []string{"base"},
		Limits:  map[string]int{"cpu": 4, "mem": 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged value mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeLayersDoesNotAliasInputs(t *testing.T) {
	weak := settings{Limits: map[string]int{"cpu": 1}, Tags: []string{"a"}}
	strong := settings{Channel: &channel{Volume: intPtr(1)}}

	got := MergeLayers(strong, weak)
	got.Limits["cpu"] = 99
	got.Tags[0] = "changed"
	*got.Channel.Volume = 42

	if weak.Limits["cpu"] != 1 || weak.Tags[0] != "a" {
		t.Fatalf("weak layer mutated: %+v", weak)
	}
	if *strong.Channel.Volume != 1 {
		t.Fatalf("strong layer mutated: %d", *strong.Channel.Volume)
	}
}

func TestMergeLayersStrongPointerOverNilWeak(t *testing.T) {
	weak := settings{Name: "base"}
	strong := settings{Channel: &channel{Volume: intPtr(2), Labels: []string{"x"}}}

	got := MergeLayers(strong, weak)
	want := settings{Name: "base", Channel: &channel{Volume: intPtr(2), Labels: []string{"x"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged value mismatch (-want +got):\n%s", diff)
	}
	if got.Channel == strong.Channel {
		t.Fatalf("expected strong pointer to be copied")
	}
}

func TestMergeLayersMismatchedAnyValues(t *testing.T) {
	weak := map[string]any{"email": true, "sms": map[string]any{"on": true}}
	strong := map[string]any{"email": map[string]any{"on": false}, "sms": false}

	got := MergeLayers(strong, weak)
	want := map[string]any{"email": map[string]any{"on": false}, "sms": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged map mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeLayersNestedAnyMaps(t *testing.T) {
	weak := map[string]any{
		"email": map[string]any{"enabled": false, "subject": "System"},
		"sms":   true,
	}
	strong := map[string]any{
		"email": map[string]any{"enabled": true},
	}

	got := MergeLayers(strong, weak)
	want := map[string]any{
		"email": map[string]any{"enabled": true, "subject": "System"},
		"sms":   true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged map mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	type sample struct {
		Value int
	}
	var zero sample
	if got := MergeLayers[sample](); got != zero {
		t.Fatalf("expected MergeLayers() to return zero value, got %+v", got)
	}
}

func TestCloneDetachesReferences(t *testing.T) {
	original := settings{Limit: intPtr(1), Metadata: map[string]any{"k": []any{"v"}}}
	clone := Clone(original)

	*clone.Limit = 2
	clone.Metadata["k"].([]any)[0] = "changed"

	if *original.Limit != 1 {
		t.Fatalf("expected original pointer untouched, got %d", *original.Limit)
	}
	if original.Metadata["k"].([]any)[0] != "v" {
		t.Fatalf("expected original nested slice untouched")
	}
}
