package meilisearch

import (
	"testing"

	dbsearch "github.com/hashicorp-forge/dbadapter/pkg/search"
)

// TestNewAdapter tests adapter creation validation only.
// Note: This test validates configuration, not actual Meilisearch connection.
func TestNewAdapter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: &Config{
				Host:      "http://localhost:7700",
				APIKey:    "masterKey123",
				IndexName: "test-docs",
			},
			wantErr: true, // Will fail without real Meilisearch, which is expected
		},
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
		{
			name: "missing host",
			cfg: &Config{
				APIKey:    "masterKey123",
				IndexName: "test-docs",
			},
			wantErr: true,
		},
		{
			name: "missing index name",
			cfg: &Config{
				Host:   "http://localhost:7700",
				APIKey: "masterKey123",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewAdapter(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAdapter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && adapter == nil {
				t.Error("NewAdapter() returned nil adapter")
			}
		})
	}
}

// TestAdapter_Name tests the Name() method without connecting.
func TestAdapter_Name(t *testing.T) {
	adapter := &Adapter{indexName: "test-docs"}
	if got := adapter.Name(); got != "meilisearch" {
		t.Errorf("Name() = %v, want %v", got, "meilisearch")
	}
}

// TestAdapterInterfaces verifies the adapter implements the provider interface.
func TestAdapterInterfaces(t *testing.T) {
	var _ dbsearch.Provider = (*Adapter)(nil)
}

// TestFlattenDocument tests conversion into the flat attribute map.
func TestFlattenDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  dbsearch.Document
		want map[string]interface{}
	}{
		{
			name: "id and fields",
			doc: dbsearch.Document{
				ID: "345/abc",
				Fields: map[string]string{
					"numnum": "345",
					"strstr": "abc",
				},
			},
			want: map[string]interface{}{
				"docId":  "345/abc",
				"numnum": "345",
				"strstr": "abc",
			},
		},
		{
			name: "id only",
			doc:  dbsearch.Document{ID: "7"},
			want: map[string]interface{}{"docId": "7"},
		},
		{
			name: "field colliding with the primary key attribute",
			doc: dbsearch.Document{
				ID:     "enc-id",
				Fields: map[string]string{"docId": "row-value"},
			},
			want: map[string]interface{}{"docId": "enc-id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := flattenDocument(tt.doc)
			if len(got) != len(tt.want) {
				t.Fatalf("flattenDocument() has %d attributes, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("flattenDocument()[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}
