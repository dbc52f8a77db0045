package trace

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" database/sql driver
)

// DuckDB is a query-only handle onto whatever directory ParquetSink wrote
// to. No pack call site exercises duckdb-go directly, so this follows the
// driver's documented database/sql registration and duckdb's own
// read_parquet() table function rather than a bespoke ingestion path —
// the parquet files are the durable store, duckdb just queries them.
type DuckDB struct {
	db *sql.DB
}

// OpenDuckDB opens an in-process duckdb handle. path may be ":memory:"
// for a process that only ever reads parquet files on demand.
func OpenDuckDB(path string) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}
	return &DuckDB{db: db}, nil
}

// Close releases the handle.
func (d *DuckDB) Close() error { return d.db.Close() }

// QueryTraces runs a SQL query over every parquet file matching glob
// (e.g. "/var/vecthare/traces/*.parquet"). where, if non-empty, is an
// operator-authored SQL predicate — this is an operations/debugging tool,
// never wired to untrusted HTTP input.
func (d *DuckDB) QueryTraces(ctx context.Context, glob, where string) (*sql.Rows, error) {
	query := fmt.Sprintf("SELECT timestamp, stage, action, level, fields_json FROM read_parquet('%s')", glob)
	if where != "" {
		query += " WHERE " + where
	}
	return d.db.QueryContext(ctx, query)
}
