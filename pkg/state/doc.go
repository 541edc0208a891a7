// Package state defines persistence-facing contracts for loading and saving
// overlay documents, plus a small resolver that rebuilds views from them.
//
//   - Store[K, V] only loads/saves a single overlay.Document for a single Ref.
//   - Resolver[K, V] restores the root view (which carries the base store)
//     and reattaches sibling views by identity.
//   - The overlay package remains persistence-agnostic; storage engines stay
//     behind Store implementations supplied by consumers.
//
// Data flow:
//
//	Store -> Resolver -> overlay.Restore / overlay.RestoreSibling -> *overlay.View[K, V]
//
// Deterministic keys:
//
//	Ref.Identifier() yields `root/<domain>` for the document owning the base
//	store and `view/<view-id>/<domain>` for sibling documents.
package state
