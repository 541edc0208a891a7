package state_test

import (
	"context"
	"errors"
	"testing"

	overlay "github.com/goliatone/go-overlay"
	"github.com/goliatone/go-overlay/pkg/state"
)

type mutateStore[K comparable, V any] struct {
	loadDoc  overlay.Document[K, V]
	loadMeta state.Meta
	loadOK   bool
	loadErr  error

	saveCalls  int
	savedRef   state.Ref
	savedMeta  state.Meta
	savedDoc   overlay.Document[K, V]
	saveReturn state.Meta
	saveErr    error
}

func (s *mutateStore[K, V]) Load(_ context.Context, _ state.Ref) (overlay.Document[K, V], state.Meta, bool, error) {
	if s.loadErr != nil {
		return overlay.Document[K, V]{}, state.Meta{}, false, s.loadErr
	}
	return s.loadDoc, s.loadMeta, s.loadOK, nil
}

func (s *mutateStore[K, V]) Save(_ context.Context, ref state.Ref, doc overlay.Document[K, V], meta state.Meta) (state.Meta, error) {
	s.saveCalls++
	s.savedRef = ref
	s.savedMeta = meta
	s.savedDoc = doc
	if s.saveErr != nil {
		return state.Meta{}, s.saveErr
	}
	return s.saveReturn, nil
}

func seededDocument(t *testing.T) overlay.Document[string, int] {
	t.Helper()
	root := overlay.NewView[string, int](nil)
	root.Store().Set("limit", 10)
	return root.Document()
}

func TestResolverMutateValidationFailureDoesNotSave(t *testing.T) {
	store := &mutateStore[string, int]{
		loadDoc:  seededDocument(t),
		loadMeta: state.Meta{SnapshotID: "snap-1", ETag: "v1"},
		loadOK:   true,
	}
	resolver := state.Resolver[string, int]{
		Store: store,
		Validate: func(v *overlay.View[string, int]) error {
			if v.Get("limit") < 0 {
				return errors.New("limit must be positive")
			}
			return nil
		},
	}

	_, _, err := resolver.Mutate(context.Background(), "quota", state.Meta{ETag: "v1"}, func(v *overlay.View[string, int]) error {
		return v.Set("limit", -1)
	})
	if err == nil || err.Error() != "limit must be positive" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no save calls, got %d", store.saveCalls)
	}
}

func TestResolverMutateMutatorErrorDoesNotSave(t *testing.T) {
	store := &mutateStore[string, int]{loadDoc: seededDocument(t), loadOK: true}
	resolver := state.Resolver[string, int]{Store: store}

	_, _, err := resolver.Mutate(context.Background(), "quota", state.Meta{}, func(v *overlay.View[string, int]) error {
		return v.Set("missing", 1)
	})
	if !errors.Is(err, overlay.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no save calls, got %d", store.saveCalls)
	}
}

func TestResolverMutatePropagatesMeta(t *testing.T) {
	store := &mutateStore[string, int]{
		loadDoc:    seededDocument(t),
		loadMeta:   state.Meta{SnapshotID: "snap-old", ETag: "v1"},
		loadOK:     true,
		saveReturn: state.Meta{SnapshotID: "snap-new", ETag: "v2"},
	}
	resolver := state.Resolver[string, int]{Store: store, Combiner: overlay.Sum[int]()}

	view, gotMeta, err := resolver.Mutate(context.Background(), "quota", state.Meta{ETag: "v1"}, func(v *overlay.View[string, int]) error {
		return v.Set("limit", 5)
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if gotMeta.SnapshotID != "snap-new" || gotMeta.ETag != "v2" {
		t.Fatalf("expected saved meta snap-new/v2, got %q/%q", gotMeta.SnapshotID, gotMeta.ETag)
	}
	if store.saveCalls != 1 {
		t.Fatalf("expected 1 save call, got %d", store.saveCalls)
	}
	if store.savedMeta.SnapshotID != "snap-old" || store.savedMeta.ETag != "v1" {
		t.Fatalf("expected save meta snap-old/v1, got %q/%q", store.savedMeta.SnapshotID, store.savedMeta.ETag)
	}
	if !store.savedRef.IsRoot() || store.savedRef.Domain != "quota" {
		t.Fatalf("expected root ref, got %+v", store.savedRef)
	}
	if got := view.Get("limit"); got != 15 {
		t.Fatalf("expected combined 15, got %d", got)
	}
	if len(store.savedDoc.Records) != 1 || len(store.savedDoc.Records[0].Overrides) != 1 {
		t.Fatalf("expected saved override, got %+v", store.savedDoc)
	}
}

func TestResolverMutateCreatesMissingRoot(t *testing.T) {
	store := &mutateStore[string, int]{}
	resolver := state.Resolver[string, int]{Store: store}

	view, _, err := resolver.Mutate(context.Background(), "quota", state.Meta{ETag: "ignored"}, func(v *overlay.View[string, int]) error {
		v.Store().Set("limit", 3)
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if view.Get("limit") != 3 || !view.SerializesBase() {
		t.Fatalf("expected fresh root view with limit, got %d", view.Get("limit"))
	}
	if store.saveCalls != 1 || store.savedMeta.ETag != "ignored" {
		t.Fatalf("unexpected save: calls=%d meta=%+v", store.saveCalls, store.savedMeta)
	}
}

func TestResolverMutateETagMismatch(t *testing.T) {
	store := &mutateStore[string, int]{
		loadDoc:  seededDocument(t),
		loadMeta: state.Meta{ETag: "v1"},
		loadOK:   true,
	}
	resolver := state.Resolver[string, int]{Store: store}

	_, meta, err := resolver.Mutate(context.Background(), "quota", state.Meta{ETag: "v2"}, func(v *overlay.View[string, int]) error {
		return v.Set("limit", 1)
	})
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
	if meta.ETag != "v1" {
		t.Fatalf("expected loaded meta returned, got %+v", meta)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no save calls, got %d", store.saveCalls)
	}
}

func TestResolverMutateLoadAndSaveErrors(t *testing.T) {
	boom := errors.New("backend down")
	resolver := state.Resolver[string, int]{Store: &mutateStore[string, int]{loadErr: boom}}
	noop := func(*overlay.View[string, int]) error { return nil }

	if _, _, err := resolver.Mutate(context.Background(), "quota", state.Meta{}, noop); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}

	resolver.Store = &mutateStore[string, int]{saveErr: boom}
	if _, _, err := resolver.Mutate(context.Background(), "quota", state.Meta{}, noop); !errors.Is(err, boom) {
		t.Fatalf("expected save error, got %v", err)
	}

	if _, _, err := resolver.Mutate(context.Background(), "quota", state.Meta{}, nil); err == nil {
		t.Fatalf("expected nil mutator error")
	}
}
