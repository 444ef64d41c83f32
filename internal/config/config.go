// Package config loads and validates the connector's HCL configuration.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the root connector configuration from HCL.
type Config struct {
	// LogLevel controls logger verbosity (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`

	// CrawlInterval is how often a full crawl runs, e.g. "15m". Empty
	// means crawl once and exit.
	CrawlInterval string `hcl:"crawl_interval,optional"`

	Database  *DatabaseConfig  `hcl:"database,block"`
	UniqueKey *UniqueKeyConfig `hcl:"unique_key,block"`
	SQL       *SQLConfig       `hcl:"sql,block"`
	Response  *ResponseConfig  `hcl:"response,block"`
	Search    *SearchConfig    `hcl:"search,block"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver name (pgx, mysql, sqlserver,
	// sqlite).
	Driver string `hcl:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `hcl:"dsn"`

	MaxOpenConns    int    `hcl:"max_open_conns,optional"`
	MaxIdleConns    int    `hcl:"max_idle_conns,optional"`
	ConnMaxLifetime string `hcl:"conn_max_lifetime,optional"`
}

// UniqueKeyConfig describes the primary key columns of crawled rows.
type UniqueKeyConfig struct {
	// Declaration is the column list, e.g. "numnum:int,strstr:string".
	// Types may be omitted and are then resolved from the database.
	Declaration string `hcl:"declaration"`

	// DocIDIsURL marks the single key column as a verbatim URL id.
	DocIDIsURL bool `hcl:"doc_id_is_url,optional"`

	// ContentSQLColumns orders the key values bound into the single-doc
	// query's placeholders.
	ContentSQLColumns string `hcl:"content_sql_columns,optional"`

	// ACLSQLColumns orders the key values bound into the ACL query's
	// placeholders.
	ACLSQLColumns string `hcl:"acl_sql_columns,optional"`
}

// SQLConfig holds the crawl and retrieval queries.
type SQLConfig struct {
	// EverythingQuery lists every crawlable row with at least the key
	// columns.
	EverythingQuery string `hcl:"everything_query"`

	// SingleDocQuery fetches one row by key; placeholders are filled
	// from the decoded document id.
	SingleDocQuery string `hcl:"single_doc_query"`

	// ACLQuery fetches per-document permissions, optional.
	ACLQuery string `hcl:"acl_query,optional"`
}

// ResponseConfig selects how a retrieved row becomes document content.
type ResponseConfig struct {
	// Mode is one of rowToCSV, contentColumn, filepathColumn.
	Mode string `hcl:"mode"`

	// ColumnName names the column holding content or a file path,
	// required for the column-driven modes.
	ColumnName string `hcl:"column_name,optional"`

	ContentTypeOverride string `hcl:"content_type_override,optional"`
	ContentTypeColumn   string `hcl:"content_type_column,optional"`
	DisplayURLColumn    string `hcl:"display_url_column,optional"`
}

// SearchConfig holds search index backend settings.
type SearchConfig struct {
	// Provider selects the backend; only "meilisearch" is supported.
	Provider string `hcl:"provider,optional"`

	Host      string `hcl:"host"`
	APIKey    string `hcl:"api_key,optional"`
	IndexName string `hcl:"index_name"`

	// BatchSize is how many documents are pushed per index call.
	BatchSize int `hcl:"batch_size,optional"`
}

// NewConfig loads a Config from an HCL file and applies defaults.
func NewConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	var cfg Config
	if err := hclsimple.DecodeFile(filename, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Database != nil {
		if c.Database.MaxOpenConns == 0 {
			c.Database.MaxOpenConns = 10
		}
		if c.Database.MaxIdleConns == 0 {
			c.Database.MaxIdleConns = 5
		}
		if c.Database.ConnMaxLifetime == "" {
			c.Database.ConnMaxLifetime = "1h"
		}
	}
	if c.Response != nil && c.Response.Mode == "" {
		c.Response.Mode = "rowToCSV"
	}
	if c.Search != nil {
		if c.Search.Provider == "" {
			c.Search.Provider = "meilisearch"
		}
		if c.Search.BatchSize == 0 {
			c.Search.BatchSize = 100
		}
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Database == nil {
		result = multierror.Append(result, fmt.Errorf("database block is required"))
	} else if err := validation.ValidateStruct(c.Database,
		validation.Field(&c.Database.Driver, validation.Required),
		validation.Field(&c.Database.DSN, validation.Required),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("database: %w", err))
	}
	if c.Database != nil && c.Database.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Database.ConnMaxLifetime); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("database: invalid conn_max_lifetime: %w", err))
		}
	}

	if c.UniqueKey == nil {
		result = multierror.Append(result, fmt.Errorf("unique_key block is required"))
	} else if err := validation.ValidateStruct(c.UniqueKey,
		validation.Field(&c.UniqueKey.Declaration, validation.Required),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("unique_key: %w", err))
	}

	if c.SQL == nil {
		result = multierror.Append(result, fmt.Errorf("sql block is required"))
	} else if err := validation.ValidateStruct(c.SQL,
		validation.Field(&c.SQL.EverythingQuery, validation.Required),
		validation.Field(&c.SQL.SingleDocQuery, validation.Required),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("sql: %w", err))
	}

	if c.Response != nil {
		if err := validation.ValidateStruct(c.Response,
			validation.Field(&c.Response.Mode,
				validation.Required,
				validation.In("rowToCSV", "contentColumn", "filepathColumn")),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("response: %w", err))
		}
	}

	if c.Search == nil {
		result = multierror.Append(result, fmt.Errorf("search block is required"))
	} else {
		if err := validation.ValidateStruct(c.Search,
			validation.Field(&c.Search.Host, validation.Required),
			validation.Field(&c.Search.IndexName, validation.Required),
			validation.Field(&c.Search.BatchSize, validation.Min(1)),
		); err != nil {
			result = multierror.Append(result, fmt.Errorf("search: %w", err))
		}
		if c.Search.Provider != "" && c.Search.Provider != "meilisearch" {
			result = multierror.Append(result,
				fmt.Errorf("search: unsupported provider %q", c.Search.Provider))
		}
	}

	if c.CrawlInterval != "" {
		if _, err := time.ParseDuration(c.CrawlInterval); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("invalid crawl_interval: %w", err))
		}
	}

	return result.ErrorOrNil()
}

// ConnMaxLifetimeDuration returns the parsed connection lifetime.
// Validate must have passed first.
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	dur, err := time.ParseDuration(d.ConnMaxLifetime)
	if err != nil {
		return time.Hour
	}
	return dur
}

// CrawlIntervalDuration returns the parsed crawl interval, or zero when
// the connector should crawl once and exit.
func (c *Config) CrawlIntervalDuration() time.Duration {
	if c.CrawlInterval == "" {
		return 0
	}
	dur, err := time.ParseDuration(c.CrawlInterval)
	if err != nil {
		return 0
	}
	return dur
}
