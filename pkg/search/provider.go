// Package search defines the index sink the connector pushes crawled
// rows into. Adapters for concrete backends live in subpackages.
package search

import "context"

// Document is one crawled row, keyed by its encoded unique key. Fields
// are the row's columns rendered as text.
type Document struct {
	ID     string
	Fields map[string]string
}

// Provider is a search index backend.
type Provider interface {
	// Name identifies the backend in logs.
	Name() string

	// Index upserts documents by ID.
	Index(ctx context.Context, docs []Document) error

	// Delete removes documents by ID.
	Delete(ctx context.Context, ids []string) error
}
