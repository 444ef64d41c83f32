package connector

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/hashicorp-forge/dbadapter/internal/config"
	"github.com/hashicorp-forge/dbadapter/pkg/search"
)

// fakeProvider records every batch pushed to it.
type fakeProvider struct {
	batches [][]search.Document
	deleted [][]string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Index(_ context.Context, docs []search.Document) error {
	batch := make([]search.Document, len(docs))
	copy(batch, docs)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeProvider) Delete(_ context.Context, ids []string) error {
	f.deleted = append(f.deleted, ids)
	return nil
}

func (f *fakeProvider) allIDs() []string {
	var ids []string
	for _, batch := range f.batches {
		for _, doc := range batch {
			ids = append(ids, doc.ID)
		}
	}
	return ids
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE data (
		numnum INTEGER,
		strstr TEXT,
		content TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO data (numnum, strstr, content) VALUES
		(345, 'abc', 'first doc'),
		(77, 'x/y', 'second doc'),
		(9, 'm_n', 'third doc'),
		(NULL, 'nullkey', 'never indexed')`)
	require.NoError(t, err)
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		LogLevel: "error",
		Database: &config.DatabaseConfig{
			Driver:          "sqlite",
			DSN:             ":memory:",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: "1h",
		},
		UniqueKey: &config.UniqueKeyConfig{
			Declaration:       "numnum:int, strstr:string",
			ContentSQLColumns: "numnum, strstr",
			ACLSQLColumns:     "numnum",
		},
		SQL: &config.SQLConfig{
			EverythingQuery: "SELECT numnum, strstr, content FROM data ORDER BY numnum",
			SingleDocQuery:  "SELECT numnum, strstr, content FROM data WHERE numnum = ? AND strstr = ?",
			ACLQuery:        "SELECT principal, permission FROM acl WHERE numnum = ?",
		},
		Response: &config.ResponseConfig{
			Mode:       "contentColumn",
			ColumnName: "content",
		},
		Search: &config.SearchConfig{
			Provider:  "meilisearch",
			Host:      "http://localhost:7700",
			IndexName: "docs",
			BatchSize: 2,
		},
	}
}

func newTestConnector(t *testing.T, cfg *config.Config, db *sql.DB, provider search.Provider) *Connector {
	t.Helper()
	c, err := New(context.Background(), cfg, db, provider, hclog.NewNullLogger())
	require.NoError(t, err)
	return c
}

func TestConnect(t *testing.T) {
	cfg := testConfig().Database
	db, err := Connect(context.Background(), cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
}

func TestConnect_BadDriver(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: "no-such-driver", DSN: "x"}
	_, err := Connect(context.Background(), cfg, hclog.NewNullLogger())
	require.Error(t, err)
}

func TestNew_ResolvesColumnTypesFromQuery(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	cfg.UniqueKey.Declaration = "numnum, strstr"

	c := newTestConnector(t, cfg, db, &fakeProvider{})
	assert.Equal(t, []string{"numnum", "strstr"}, c.Key().Columns())

	// Resolved types must round-trip an id the same way explicit ones do.
	stats, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Indexed)
}

func TestNew_UnknownContentColumn(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	cfg.UniqueKey.ContentSQLColumns = "numnum, banana"

	_, err := New(context.Background(), cfg, db, &fakeProvider{}, hclog.NewNullLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown column "banana"`)
}

func TestCrawl(t *testing.T) {
	db := openTestDB(t)
	provider := &fakeProvider{}
	c := newTestConnector(t, testConfig(), db, provider)

	stats, err := c.Crawl(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 3, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)

	// Batch size 2 splits three documents over two pushes.
	require.Len(t, provider.batches, 2)
	assert.Equal(t, []string{"9/m__n", "77/x_/y", "345/abc"}, provider.allIDs())
}

func TestCrawl_DocumentFields(t *testing.T) {
	db := openTestDB(t)
	provider := &fakeProvider{}
	c := newTestConnector(t, testConfig(), db, provider)

	_, err := c.Crawl(context.Background())
	require.NoError(t, err)

	first := provider.batches[0][0]
	assert.Equal(t, "9/m__n", first.ID)
	assert.Equal(t, map[string]string{
		"numnum":  "9",
		"strstr":  "m_n",
		"content": "third doc",
	}, first.Fields)
}

func TestRetrieve(t *testing.T) {
	db := openTestDB(t)
	c := newTestConnector(t, testConfig(), db, &fakeProvider{})

	var buf bytes.Buffer
	meta, err := c.Retrieve(context.Background(), "77/x_/y", &buf)
	require.NoError(t, err)

	assert.Equal(t, "second doc", buf.String())
	assert.Equal(t, "application/octet-stream", meta.ContentType)
}

func TestRetrieve_NotFound(t *testing.T) {
	db := openTestDB(t)
	c := newTestConnector(t, testConfig(), db, &fakeProvider{})

	var buf bytes.Buffer
	_, err := c.Retrieve(context.Background(), "999/ghost", &buf)
	require.Error(t, err)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "999/ghost", notFound.ID)
}

func TestRetrieve_MalformedID(t *testing.T) {
	db := openTestDB(t)
	c := newTestConnector(t, testConfig(), db, &fakeProvider{})

	var buf bytes.Buffer
	_, err := c.Retrieve(context.Background(), "only-one-field", &buf)
	require.Error(t, err)
}

func TestACL(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`CREATE TABLE acl (
		numnum INTEGER,
		principal TEXT,
		permission TEXT
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO acl (numnum, principal, permission) VALUES
		(345, 'alice', 'read'),
		(345, 'bob', 'read'),
		(77, 'carol', 'read')`)
	require.NoError(t, err)

	c := newTestConnector(t, testConfig(), db, &fakeProvider{})

	rows, err := c.ACL(context.Background(), "345/abc")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	principal, err := rows[0].String("principal")
	require.NoError(t, err)
	assert.Equal(t, "alice", principal)
}

func TestACL_NotConfigured(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	cfg.SQL.ACLQuery = ""
	c := newTestConnector(t, cfg, db, &fakeProvider{})

	rows, err := c.ACL(context.Background(), "345/abc")
	require.NoError(t, err)
	assert.Nil(t, rows)
}
