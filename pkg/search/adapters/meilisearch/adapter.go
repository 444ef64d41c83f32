// Package meilisearch adapts a Meilisearch instance to the search.Provider
// interface. Documents are keyed by the connector's encoded unique key.
package meilisearch

import (
	"context"
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	"github.com/hashicorp-forge/dbadapter/pkg/search"
)

// primaryKey is the attribute Meilisearch uses to identify documents.
const primaryKey = "docId"

// Config holds Meilisearch connection settings.
type Config struct {
	Host      string
	APIKey    string
	IndexName string
}

// Adapter implements search.Provider backed by Meilisearch.
type Adapter struct {
	client    meilisearch.ServiceManager
	indexName string
}

// NewAdapter creates a Meilisearch adapter and verifies the instance is
// reachable.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("host required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("index name required")
	}

	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	if !client.IsHealthy() {
		return nil, fmt.Errorf("meilisearch instance at %s is not healthy", cfg.Host)
	}

	return &Adapter{
		client:    client,
		indexName: cfg.IndexName,
	}, nil
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "meilisearch"
}

// Index upserts documents into the configured index.
func (a *Adapter) Index(ctx context.Context, docs []search.Document) error {
	if len(docs) == 0 {
		return nil
	}

	payload := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, flattenDocument(doc))
	}

	idx := a.client.Index(a.indexName)
	pk := primaryKey
	task, err := idx.AddDocumentsWithContext(ctx, payload, &pk)
	if err != nil {
		return fmt.Errorf("failed to index documents: %w", err)
	}
	if _, err := a.client.WaitForTaskWithContext(ctx, task.TaskUID, 0); err != nil {
		return fmt.Errorf("failed waiting for index task %d: %w", task.TaskUID, err)
	}
	return nil
}

// Delete removes documents by ID from the configured index.
func (a *Adapter) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	idx := a.client.Index(a.indexName)
	task, err := idx.DeleteDocumentsWithContext(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	if _, err := a.client.WaitForTaskWithContext(ctx, task.TaskUID, 0); err != nil {
		return fmt.Errorf("failed waiting for delete task %d: %w", task.TaskUID, err)
	}
	return nil
}

// flattenDocument turns a search.Document into the flat attribute map
// Meilisearch expects. The encoded ID lands in the primary key attribute,
// row columns become top-level attributes.
func flattenDocument(doc search.Document) map[string]interface{} {
	flat := make(map[string]interface{}, len(doc.Fields)+1)
	for name, value := range doc.Fields {
		if name == primaryKey {
			continue
		}
		flat[name] = value
	}
	flat[primaryKey] = doc.ID
	return flat
}
