package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
)

// Row is one stage-event record written to the durable sink.
type Row struct {
	Timestamp  int64  `parquet:"timestamp"`
	Stage      string `parquet:"stage"`
	Action     string `parquet:"action"`
	Level      string `parquet:"level"`
	FieldsJSON string `parquet:"fields_json"`
}

// nowFunc is a seam tests substitute so Write/Flush don't depend on wall
// clock time.
var nowFunc = time.Now

// ParquetSink batches Rows in memory and flushes them to timestamped
// parquet files under dir — the durable analytical store named in the
// domain stack (duckdb + parquet-go), queryable after the fact via
// DuckDB.QueryTraces without this package ever needing its own query
// language.
type ParquetSink struct {
	dir       string
	flushSize int

	mu  sync.Mutex
	buf []Row
}

// NewParquetSink builds a sink that flushes every flushSize rows
// (DefaultFlushSize if <= 0).
func NewParquetSink(dir string, flushSize int) *ParquetSink {
	if flushSize <= 0 {
		flushSize = DefaultFlushSize
	}
	return &ParquetSink{dir: dir, flushSize: flushSize}
}

// DefaultFlushSize is ParquetSink's batch size when unspecified.
const DefaultFlushSize = 500

// Write implements Sink.
func (s *ParquetSink) Write(row Row) {
	if row.Timestamp == 0 {
		row.Timestamp = nowFunc().UnixNano()
	}

	s.mu.Lock()
	s.buf = append(s.buf, row)
	full := len(s.buf) >= s.flushSize
	s.mu.Unlock()

	if full {
		_ = s.Flush()
	}
}

// Flush writes whatever is buffered to a new parquet file and clears the
// buffer. A no-op on an empty buffer.
func (s *ParquetSink) Flush() error {
	s.mu.Lock()
	rows := s.buf
	s.buf = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("trace-%d.parquet", nowFunc().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[Row](f)
	if _, err := writer.Write(rows); err != nil {
		return err
	}
	return writer.Close()
}
