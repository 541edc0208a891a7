package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	overlay "github.com/goliatone/go-overlay"
)

var ErrNotFound = errors.New("state: document not found")

var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted document. A zero View addresses the root
// document, which carries the base store.
type Ref struct {
	Domain string
	View   overlay.ViewID
}

// IsRoot reports whether ref addresses the root document.
func (r Ref) IsRoot() bool {
	return r.View.IsZero()
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one document for a single reference.
type Store[K comparable, V any] interface {
	Load(ctx context.Context, ref Ref) (doc overlay.Document[K, V], meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, doc overlay.Document[K, V], meta Meta) (Meta, error)
}

// Resolver rebuilds views from stored documents. The combiner is supplied
// here because documents never carry it.
type Resolver[K comparable, V any] struct {
	Store    Store[K, V]
	Combiner overlay.Combiner[V]
	Options  []overlay.Option
	// Validate, when set, vets a mutated view before Mutate saves it.
	Validate func(*overlay.View[K, V]) error
}

// Mutator edits a view in place.
type Mutator[K comparable, V any] func(*overlay.View[K, V]) error

// Identifier returns the canonical storage key for ref.
func (r Ref) Identifier() (string, error) {
	if r.Domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	if r.IsRoot() {
		return fmt.Sprintf("root/%s", r.Domain), nil
	}
	return fmt.Sprintf("view/%s/%s", r.View, r.Domain), nil
}

// RefFor returns the reference a view's document is saved under.
func RefFor[K comparable, V any](domain string, view *overlay.View[K, V]) Ref {
	if view.SerializesBase() {
		return Ref{Domain: domain}
	}
	return Ref{Domain: domain, View: view.ID()}
}

// Resolve restores the root view for domain.
func (r Resolver[K, V]) Resolve(ctx context.Context, domain string) (*overlay.View[K, V], Meta, error) {
	if err := r.check(domain); err != nil {
		return nil, Meta{}, err
	}
	doc, meta, ok, err := r.Store.Load(ctx, Ref{Domain: domain})
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q: %w", domain, err)
	}
	if !ok {
		return nil, Meta{}, fmt.Errorf("%w: %q", ErrNotFound, domain)
	}
	view, err := overlay.Restore(doc, r.Combiner, r.Options...)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: restore %q: %w", domain, err)
	}
	return view, meta, nil
}

// ResolveSibling reattaches the sibling view id to root's store.
func (r Resolver[K, V]) ResolveSibling(ctx context.Context, domain string, root *overlay.View[K, V], id overlay.ViewID) (*overlay.View[K, V], Meta, error) {
	if err := r.check(domain); err != nil {
		return nil, Meta{}, err
	}
	if root == nil {
		return nil, Meta{}, fmt.Errorf("state: root view is required")
	}
	if id.IsZero() {
		return nil, Meta{}, fmt.Errorf("state: %w", overlay.ErrViewIDRequired)
	}
	doc, meta, ok, err := r.Store.Load(ctx, Ref{Domain: domain, View: id})
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for view %s: %w", domain, id, err)
	}
	if !ok {
		return nil, Meta{}, fmt.Errorf("%w: %q for view %s", ErrNotFound, domain, id)
	}
	view, err := overlay.RestoreSibling(root, doc, r.Options...)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: restore %q for view %s: %w", domain, id, err)
	}
	return view, meta, nil
}

// Save persists view's document under the reference RefFor computes.
func (r Resolver[K, V]) Save(ctx context.Context, domain string, view *overlay.View[K, V], meta Meta) (Meta, error) {
	if err := r.check(domain); err != nil {
		return Meta{}, err
	}
	if view == nil {
		return Meta{}, fmt.Errorf("state: view is required")
	}
	saved, err := r.Store.Save(ctx, RefFor(domain, view), view.Document(), meta)
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %q: %w", domain, err)
	}
	return saved, nil
}

// Mutate loads the root document (an empty root when none exists), applies
// fn, validates and saves. A non-empty meta.ETag must match the stored one.
func (r Resolver[K, V]) Mutate(ctx context.Context, domain string, meta Meta, fn Mutator[K, V]) (*overlay.View[K, V], Meta, error) {
	if err := r.check(domain); err != nil {
		return nil, Meta{}, err
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	ref := Ref{Domain: domain}
	doc, loadedMeta, ok, err := r.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q: %w", domain, err)
	}

	var view *overlay.View[K, V]
	if ok {
		view, err = overlay.Restore(doc, r.Combiner, r.Options...)
		if err != nil {
			return nil, loadedMeta, fmt.Errorf("state: restore %q: %w", domain, err)
		}
	} else {
		loadedMeta = Meta{}
		view = overlay.NewView[K, V](r.Combiner, r.Options...)
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(view); err != nil {
		return nil, loadedMeta, err
	}
	if r.Validate != nil {
		if err := r.Validate(view); err != nil {
			return nil, loadedMeta, err
		}
	}

	savedMeta, err := r.Store.Save(ctx, ref, view.Document(), mergeMeta(loadedMeta, meta))
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q: %w", domain, err)
	}
	return view, savedMeta, nil
}

func (r Resolver[K, V]) check(domain string) error {
	if r.Store == nil {
		return fmt.Errorf("state: store is required")
	}
	if domain == "" {
		return fmt.Errorf("state: domain is required")
	}
	return nil
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
