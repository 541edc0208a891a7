package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	overlay "github.com/goliatone/go-overlay"
)

// MemoryStore is a minimal in-memory Store intended for tests, examples and
// the CLI. Documents are kept JSON-encoded so loads exercise the same decode
// path as a real backend.
type MemoryStore[K comparable, V any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	payload []byte
	meta    Meta
}

func NewMemoryStore[K comparable, V any]() *MemoryStore[K, V] {
	return &MemoryStore[K, V]{records: map[string]memoryRecord{}}
}

func (s *MemoryStore[K, V]) Load(_ context.Context, ref Ref) (overlay.Document[K, V], Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return overlay.Document[K, V]{}, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return overlay.Document[K, V]{}, Meta{}, false, nil
	}
	doc, err := overlay.DecodeJSON[K, V](record.payload, overlay.WithDocumentSource(key))
	if err != nil {
		return overlay.Document[K, V]{}, Meta{}, false, err
	}
	return doc, cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[K, V]) Save(_ context.Context, ref Ref, doc overlay.Document[K, V], meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %s: %w", key, err)
	}

	s.mu.Lock()
	s.records[key] = memoryRecord{payload: payload, meta: cloneMeta(meta)}
	s.mu.Unlock()
	return cloneMeta(meta), nil
}

// Len returns the number of stored documents.
func (s *MemoryStore[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
