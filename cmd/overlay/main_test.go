package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	overlay "github.com/goliatone/go-overlay"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// writeFixture stores a root document with limit=10 (overridden to 5 by a
// sibling) and name=base.
func writeFixture(t *testing.T, name string) (string, overlay.ViewID) {
	t.Helper()
	root := overlay.NewView[string, any](nil)
	root.Store().Set("limit", 10)
	root.Store().Set("name", "base")
	sibling := root.Sibling()
	if err := sibling.Set("limit", 5); err != nil {
		t.Fatalf("set: %v", err)
	}

	path := filepath.Join(t.TempDir(), name)
	encode := overlay.EncodeJSON[string, any]
	if isYAML(path) {
		encode = overlay.EncodeYAML[string, any]
	}
	payload, err := encode(root)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	return path, sibling.ID()
}

func resetFlags(t *testing.T, path string) {
	t.Helper()
	logger = zap.NewNop()
	file = path
	engine, expr, combiner, viewID = "", "", "replace", ""
	setBase = false
	t.Cleanup(func() {
		file, engine, expr, viewID = "", "", "", ""
		setBase = false
	})
}

func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	if err := fn(cmd, args); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	return out.String()
}

func TestListRootAndSibling(t *testing.T) {
	path, id := writeFixture(t, "doc.yaml")
	resetFlags(t, path)

	got := run(t, runList)
	if got != "  limit = 10\n  name = base\n" {
		t.Fatalf("unexpected root listing:\n%s", got)
	}

	viewID = id.String()
	got = run(t, runList)
	if got != "* limit = 5\n  name = base\n" {
		t.Fatalf("unexpected sibling listing:\n%s", got)
	}
}

func TestGetWithExpressionEngines(t *testing.T) {
	path, id := writeFixture(t, "doc.json")
	resetFlags(t, path)
	viewID = id.String()

	expr = "base + override"
	if got := strings.TrimSpace(run(t, runGet, "limit")); got != "15" {
		t.Fatalf("expected expr sum 15, got %q", got)
	}

	engine = "cel"
	expr = "override"
	if got := strings.TrimSpace(run(t, runGet, "limit")); got != "5" {
		t.Fatalf("expected cel override 5, got %q", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	path, _ := writeFixture(t, "doc.json")
	resetFlags(t, path)
	if err := runGet(&cobra.Command{}, []string{"missing"}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestTraceOutputsJSON(t *testing.T) {
	path, id := writeFixture(t, "doc.yaml")
	resetFlags(t, path)
	viewID = id.String()

	var trace map[string]any
	if err := json.Unmarshal([]byte(run(t, runTrace, "limit")), &trace); err != nil {
		t.Fatalf("trace json: %v", err)
	}
	if trace["has_override"] != true || trace["value"] != float64(5) || trace["base"] != float64(10) {
		t.Fatalf("unexpected trace: %v", trace)
	}
}

func TestSetPersistsOverride(t *testing.T) {
	path, id := writeFixture(t, "doc.yaml")
	resetFlags(t, path)
	viewID = id.String()

	if got := strings.TrimSpace(run(t, runSet, "name", "custom")); got != "custom" {
		t.Fatalf("expected echoed value, got %q", got)
	}
	run(t, runSet, "fresh", "true")

	viewID = ""
	if got := strings.TrimSpace(run(t, runGet, "name")); got != "base" {
		t.Fatalf("expected root untouched, got %q", got)
	}
	if got := strings.TrimSpace(run(t, runGet, "fresh")); got != "null" {
		t.Fatalf("expected zero base for view-created key, got %q", got)
	}

	viewID = id.String()
	if got := strings.TrimSpace(run(t, runGet, "name")); got != "custom" {
		t.Fatalf("expected persisted override, got %q", got)
	}
	if got := strings.TrimSpace(run(t, runGet, "fresh")); got != "true" {
		t.Fatalf("expected persisted new key, got %q", got)
	}
}

func TestSetBase(t *testing.T) {
	path, _ := writeFixture(t, "doc.json")
	resetFlags(t, path)
	setBase = true

	run(t, runSet, "limit", "42")
	setBase = false
	if got := strings.TrimSpace(run(t, runGet, "limit")); got != "42" {
		t.Fatalf("expected new base, got %q", got)
	}
}

func TestSetCreatesMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yaml")
	resetFlags(t, path)
	setBase = true

	run(t, runSet, "limit", "7")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected document written: %v", err)
	}
	setBase = false
	if got := strings.TrimSpace(run(t, runGet, "limit")); got != "7" {
		t.Fatalf("expected base from new document, got %q", got)
	}
}

func TestViewFlagWithRootIdentity(t *testing.T) {
	path, _ := writeFixture(t, "doc.json")
	resetFlags(t, path)

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := overlay.DecodeJSON[string, any](payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	viewID = doc.ViewID.String()
	if got := strings.TrimSpace(run(t, runGet, "limit")); got != "10" {
		t.Fatalf("expected root value, got %q", got)
	}
}

func TestCombinerSelection(t *testing.T) {
	resetFlags(t, "")
	combiner = "bogus"
	if _, err := buildCombiner(); err == nil {
		t.Fatalf("expected unknown combiner error")
	}
	combiner = "merge"
	if _, err := buildCombiner(); err != nil {
		t.Fatalf("merge: %v", err)
	}
	expr, engine = "base", "lua"
	if _, err := buildCombiner(); err == nil {
		t.Fatalf("expected unknown engine error")
	}
}

func TestFileRequired(t *testing.T) {
	resetFlags(t, "")
	if err := runList(&cobra.Command{}, nil); err == nil {
		t.Fatalf("expected --file error")
	}
}

func TestNewViewPrintsIdentity(t *testing.T) {
	resetFlags(t, "")
	out := strings.TrimSpace(run(t, runNewView))
	if _, err := overlay.ParseViewID(out); err != nil {
		t.Fatalf("expected parsable id, got %q: %v", out, err)
	}
}
