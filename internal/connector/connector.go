// Package connector drives the crawl, retrieve, and ACL flows between the
// database and the search index.
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/dbadapter/internal/config"
	"github.com/hashicorp-forge/dbadapter/pkg/dbrow"
	"github.com/hashicorp-forge/dbadapter/pkg/response"
	"github.com/hashicorp-forge/dbadapter/pkg/search"
	"github.com/hashicorp-forge/dbadapter/pkg/uniquekey"
)

// NotFoundError reports a document id that matched no database row.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no row found for document id %q", e.ID)
}

// Connector holds everything needed to serve crawl and retrieval requests.
type Connector struct {
	cfg      *config.Config
	db       *sql.DB
	key      *uniquekey.UniqueKey
	gen      response.Generator
	provider search.Provider
	log      hclog.Logger
}

// CrawlStats summarizes one crawl run.
type CrawlStats struct {
	RunID   string
	Indexed int
	Skipped int
}

// Connect opens the database and verifies it is reachable, retrying with
// exponential backoff until the context is cancelled or the retry budget
// runs out.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, log hclog.Logger) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	ping := func() error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn("database not reachable yet, retrying", "error", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	log.Info("connected to database",
		"driver", cfg.Driver,
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return db, nil
}

// New builds a Connector from configuration. Key columns declared without
// a type are resolved from the everything query's result metadata.
func New(ctx context.Context, cfg *config.Config, db *sql.DB, provider search.Provider, log hclog.Logger) (*Connector, error) {
	key, err := buildUniqueKey(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	respCfg := response.Config{Mode: "rowToCSV"}
	if cfg.Response != nil {
		respCfg = response.Config{
			Mode:                cfg.Response.Mode,
			ColumnName:          cfg.Response.ColumnName,
			ContentTypeOverride: cfg.Response.ContentTypeOverride,
			ContentTypeColumn:   cfg.Response.ContentTypeColumn,
			DisplayURLColumn:    cfg.Response.DisplayURLColumn,
		}
	}
	gen, err := response.New(respCfg, afero.NewOsFs(), log.Named("response"))
	if err != nil {
		return nil, err
	}

	return &Connector{
		cfg:      cfg,
		db:       db,
		key:      key,
		gen:      gen,
		provider: provider,
		log:      log,
	}, nil
}

func buildUniqueKey(ctx context.Context, cfg *config.Config, db *sql.DB) (*uniquekey.UniqueKey, error) {
	b, err := uniquekey.NewBuilder(cfg.UniqueKey.Declaration)
	if err != nil {
		return nil, err
	}
	b.SetDocIDIsURL(cfg.UniqueKey.DocIDIsURL)
	if err := b.SetContentSQLColumns(cfg.UniqueKey.ContentSQLColumns); err != nil {
		return nil, err
	}
	if err := b.SetACLSQLColumns(cfg.UniqueKey.ACLSQLColumns); err != nil {
		return nil, err
	}

	if len(b.ColumnTypes()) < len(b.Columns()) {
		rows, err := db.QueryContext(ctx, cfg.SQL.EverythingQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to run query for type resolution: %w", err)
		}
		codes, err := dbrow.TypeCodes(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		if err := b.AddColumnTypes(codes); err != nil {
			return nil, err
		}
	}

	return b.Build()
}

// Key exposes the built unique key, mainly for logging and tests.
func (c *Connector) Key() *uniquekey.UniqueKey {
	return c.key
}

// Crawl runs the everything query and pushes one document per row to the
// search provider. Rows with a NULL key column are skipped and counted,
// never indexed under a partial id.
func (c *Connector) Crawl(ctx context.Context) (*CrawlStats, error) {
	stats := &CrawlStats{RunID: uuid.New().String()}
	log := c.log.With("run_id", stats.RunID)
	log.Info("starting crawl")

	rows, err := c.db.QueryContext(ctx, c.cfg.SQL.EverythingQuery)
	if err != nil {
		return stats, fmt.Errorf("everything query failed: %w", err)
	}
	defer rows.Close()

	batchSize := c.cfg.Search.BatchSize
	batch := make([]search.Document, 0, batchSize)
	for rows.Next() {
		row, err := dbrow.Scan(rows)
		if err != nil {
			return stats, err
		}

		id, err := c.key.MakeUniqueID(row)
		if err != nil {
			var nullErr *uniquekey.NullColumnError
			if errors.As(err, &nullErr) {
				log.Warn("skipping row with NULL key column", "column", nullErr.Column)
				stats.Skipped++
				continue
			}
			return stats, err
		}

		batch = append(batch, search.Document{ID: id, Fields: documentFields(row)})
		stats.Indexed++
		if len(batch) >= batchSize {
			if err := c.provider.Index(ctx, batch); err != nil {
				return stats, fmt.Errorf("failed to index batch: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("everything query iteration failed: %w", err)
	}
	if len(batch) > 0 {
		if err := c.provider.Index(ctx, batch); err != nil {
			return stats, fmt.Errorf("failed to index batch: %w", err)
		}
	}

	log.Info("crawl complete",
		"provider", c.provider.Name(),
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// documentFields renders every column of a row as text. NULL columns and
// values with no text rendering are left out.
func documentFields(row *dbrow.Row) map[string]string {
	fields := make(map[string]string, len(row.Columns()))
	for _, name := range row.Columns() {
		if null, err := row.IsNull(name); err != nil || null {
			continue
		}
		value, err := row.String(name)
		if err != nil {
			continue
		}
		fields[name] = value
	}
	return fields
}

// Retrieve decodes a document id, fetches its row with the single-doc
// query, and writes the rendered content to w.
func (c *Connector) Retrieve(ctx context.Context, id string, w io.Writer) (*response.Meta, error) {
	params := &dbrow.Params{}
	if err := c.key.BindContentSQLValues(params, id); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, c.cfg.SQL.SingleDocQuery, params.Args()...)
	if err != nil {
		return nil, fmt.Errorf("single-doc query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("single-doc query iteration failed: %w", err)
		}
		return nil, &NotFoundError{ID: id}
	}
	row, err := dbrow.Scan(rows)
	if err != nil {
		return nil, err
	}

	return c.gen.Generate(row, w)
}

// ACL decodes a document id, runs the ACL query with its key values, and
// returns the matching permission rows. Returns nil when no ACL query is
// configured.
func (c *Connector) ACL(ctx context.Context, id string) ([]*dbrow.Row, error) {
	if c.cfg.SQL.ACLQuery == "" {
		return nil, nil
	}

	params := &dbrow.Params{}
	if err := c.key.BindACLSQLValues(params, id); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, c.cfg.SQL.ACLQuery, params.Args()...)
	if err != nil {
		return nil, fmt.Errorf("acl query failed: %w", err)
	}
	defer rows.Close()

	var result []*dbrow.Row
	for rows.Next() {
		row, err := dbrow.Scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("acl query iteration failed: %w", err)
	}
	return result, nil
}

// Close releases the database connection pool.
func (c *Connector) Close() error {
	return c.db.Close()
}
