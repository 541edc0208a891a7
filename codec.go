package overlay

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-overlay/internal/hydrate"
	"gopkg.in/yaml.v3"
)

// DocumentVersion is the codec version written by Document.
const DocumentVersion = 1

// Document is the persisted form of a View. Records are present only when the
// view owns the store serialization; the combiner is behaviour and is never
// part of the document.
type Document[K comparable, V any] struct {
	Version       int                    `json:"version" yaml:"version"`
	ViewID        ViewID                 `json:"view_id" yaml:"view_id"`
	SerializeBase bool                   `json:"serialize_base" yaml:"serialize_base"`
	Records       []RecordDocument[K, V] `json:"records,omitempty" yaml:"records,omitempty"`
}

// RecordDocument is one store key with its base value and every view
// override, keyed by the view id string.
type RecordDocument[K comparable, V any] struct {
	Key       K            `json:"key" yaml:"key"`
	Base      V            `json:"base" yaml:"base"`
	Overrides map[string]V `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// DecodeOption tunes JSON document decoding.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	source          string
	disallowUnknown bool
	useNumber       bool
}

// WithDocumentSource names the payload in decode errors.
func WithDocumentSource(source string) DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.source = source
	}
}

// WithStrictFields rejects documents carrying unknown fields.
func WithStrictFields() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.disallowUnknown = true
	}
}

// WithNumberValues decodes untyped numbers as json.Number.
func WithNumberValues() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.useNumber = true
	}
}

// Document snapshots the view. Records follow store order.
func (v *View[K, V]) Document() Document[K, V] {
	doc := Document[K, V]{
		Version:       DocumentVersion,
		ViewID:        v.id,
		SerializeBase: v.serializeBase,
	}
	if !v.serializeBase {
		return doc
	}
	doc.Records = make([]RecordDocument[K, V], 0, v.store.Len())
	for e := v.store.order.Front(); e != nil; e = e.Next() {
		key := e.Value.(K)
		record := v.store.records[key]
		entry := RecordDocument[K, V]{Key: key, Base: record.base}
		if len(record.overrides) > 0 {
			entry.Overrides = make(map[string]V, len(record.overrides))
			for id, value := range record.overrides {
				entry.Overrides[id.String()] = value
			}
		}
		doc.Records = append(doc.Records, entry)
	}
	return doc
}

// Validate checks version and identity.
func (d Document[K, V]) Validate() error {
	if d.Version != DocumentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, d.Version)
	}
	if d.ViewID.IsZero() {
		return ErrViewIDRequired
	}
	for _, record := range d.Records {
		for id := range record.Overrides {
			if _, err := ParseViewID(id); err != nil {
				return fmt.Errorf("overlay: record %v: %w", record.Key, err)
			}
		}
	}
	return nil
}

// EncodeJSON writes the view document as JSON.
func EncodeJSON[K comparable, V any](v *View[K, V]) ([]byte, error) {
	payload, err := json.Marshal(v.Document())
	if err != nil {
		return nil, fmt.Errorf("overlay: encode json: %w", err)
	}
	return payload, nil
}

// DecodeJSON parses and validates a JSON document.
func DecodeJSON[K comparable, V any](payload []byte, opts ...DecodeOption) (Document[K, V], error) {
	cfg := decodeConfig{source: "document"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	decoderOpts := []hydrate.DecoderOption[Document[K, V]]{
		hydrate.WithPostHook[Document[K, V]](func(_ hydrate.Context, doc *Document[K, V]) error {
			return doc.Validate()
		}),
	}
	if cfg.disallowUnknown {
		decoderOpts = append(decoderOpts, hydrate.WithDisallowUnknownFields[Document[K, V]]())
	}
	if cfg.useNumber {
		decoderOpts = append(decoderOpts, hydrate.WithUseNumber[Document[K, V]]())
	}

	doc, err := hydrate.NewDecoder(decoderOpts...).DecodeBytes(hydrate.Context{Source: cfg.source, Format: "json"}, payload)
	if err != nil {
		return Document[K, V]{}, fmt.Errorf("overlay: decode json: %w", err)
	}
	return doc, nil
}

// EncodeYAML writes the view document as YAML.
func EncodeYAML[K comparable, V any](v *View[K, V]) ([]byte, error) {
	payload, err := yaml.Marshal(v.Document())
	if err != nil {
		return nil, fmt.Errorf("overlay: encode yaml: %w", err)
	}
	return payload, nil
}

// DecodeYAML parses and validates a YAML document.
func DecodeYAML[K comparable, V any](payload []byte) (Document[K, V], error) {
	var doc Document[K, V]
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return Document[K, V]{}, fmt.Errorf("overlay: decode yaml: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document[K, V]{}, fmt.Errorf("overlay: decode yaml: %w", err)
	}
	return doc, nil
}

// Restore rebuilds the root view and its store from a document carrying the
// base. Restoring does not fire notifications.
func Restore[K comparable, V any](doc Document[K, V], combiner Combiner[V], opts ...Option) (*View[K, V], error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if !doc.SerializeBase {
		return nil, ErrBaseNotSerialized
	}

	cfg := applyOptions(opts)
	store := NewStore[K, V](opts...)
	for _, entry := range doc.Records {
		if store.ContainsKey(entry.Key) {
			return nil, keyError("restore", entry.Key, ErrDuplicateKey)
		}
		record := store.insert(entry.Key, entry.Base)
		for raw, value := range entry.Overrides {
			id, err := ParseViewID(raw)
			if err != nil {
				return nil, err
			}
			record.setOverride(id, value)
		}
	}
	return newViewWithID(doc.ViewID, store, combiner, cfg, true), nil
}

// RestoreSibling reattaches a view identity to root's store. The overrides
// for that identity come back with the root's records. Activity configuration
// is inherited from root unless opts replace it.
func RestoreSibling[K comparable, V any](root *View[K, V], doc Document[K, V], opts ...Option) (*View[K, V], error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if doc.ViewID == root.ID() {
		return nil, fmt.Errorf("%w: %s", ErrViewIDInUse, doc.ViewID)
	}
	cfg := root.cfg
	cfg.serializeBase = nil
	return newViewWithID(doc.ViewID, root.store, root.combiner, cfg.with(opts), doc.SerializeBase), nil
}
