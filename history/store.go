// Package history persists per-device health samples in a local SQLite
// database. The log is append-only: samples are inserted with an
// app-generated wall-clock timestamp and never updated or deleted, so trend
// analysis can always read without coordinating with writers.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is a fixed-width UTC format so lexicographic ordering in SQLite
// matches chronological ordering.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Sample is one immutable history row for a serial.
type Sample struct {
	Serial       string
	Timestamp    time.Time
	Reallocated  int64
	ReadErrors   int64
	PowerOnHours int64
	Pending      int64
	// IOLoad is NULL for rows written before the column existed. The NULL is
	// preserved for display; arithmetic treats it as 0.
	IOLoad      sql.NullFloat64
	WriteErrors int64 // 0 for legacy rows
}

// IOPoint is one (timestamp, io_load) pair for the load chart.
type IOPoint struct {
	Timestamp time.Time
	IOLoad    sql.NullFloat64
}

// Store is an explicit handle to the history database. Construct once with
// Open; each operation acquires and releases its own statement scope.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// migrations. Migrations are additive and idempotent: opening an existing
// database, including one written before io_load/write_errors existed, is
// never an error.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// Single writer; serializing connections avoids SQLITE_BUSY under the
	// poll-loop/UI read overlap.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS disk_stats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			serial_number TEXT,
			timestamp DATETIME,
			reallocated_sectors INTEGER,
			read_errors INTEGER,
			power_on_hours INTEGER,
			pending_sectors INTEGER
		)`)
	if err != nil {
		return fmt.Errorf("create disk_stats: %w", err)
	}

	// Columns added after the initial release. SQLite has no
	// ADD COLUMN IF NOT EXISTS, so a duplicate-column error is the no-op.
	for _, stmt := range []string{
		`ALTER TABLE disk_stats ADD COLUMN io_load REAL`,
		`ALTER TABLE disk_stats ADD COLUMN write_errors INTEGER DEFAULT 0`,
	} {
		if _, err := s.db.Exec(stmt); err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("migrate disk_stats: %w", err)
		}
	}

	_, err = s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_serial_time
		ON disk_stats (serial_number, timestamp)`)
	if err != nil {
		return fmt.Errorf("create idx_serial_time: %w", err)
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	return strings.Contains(err.Error(), "duplicate column")
}

// LogStatus appends one sample for serial, stamped with the current
// wall-clock time.
func (s *Store) LogStatus(ctx context.Context, serial string, reallocated, readErrors, powerOnHours, pending int64, ioLoad float64, writeErrors int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disk_stats
		(serial_number, timestamp, reallocated_sectors, read_errors, power_on_hours, pending_sectors, io_load, write_errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		serial, time.Now().UTC().Format(timeLayout),
		reallocated, readErrors, powerOnHours, pending, ioLoad, writeErrors)
	if err != nil {
		return fmt.Errorf("log status for %s: %w", serial, err)
	}
	return nil
}

// LatestStats returns the most recent sample for serial, or nil when the
// serial has no history.
func (s *Store) LatestStats(ctx context.Context, serial string) (*Sample, error) {
	samples, err := s.query(ctx, serial, "DESC", 1)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	return &samples[0], nil
}

// Recent returns up to n samples for serial, newest first.
func (s *Store) Recent(ctx context.Context, serial string, n int) ([]Sample, error) {
	return s.query(ctx, serial, "DESC", n)
}

// Oldest returns the first-ever sample for serial, or nil when absent.
func (s *Store) Oldest(ctx context.Context, serial string) (*Sample, error) {
	samples, err := s.query(ctx, serial, "ASC", 1)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	return &samples[0], nil
}

// IOHistory returns up to limit (timestamp, io_load) points for serial in
// ascending timestamp order, starting from the oldest recorded sample.
// The window is anchored at the start of history, not the most recent
// samples; the load chart has always been drawn that way and callers depend
// on it.
func (s *Store) IOHistory(ctx context.Context, serial string, limit int) ([]IOPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, io_load
		FROM disk_stats
		WHERE serial_number = ?
		ORDER BY timestamp ASC
		LIMIT ?`, serial, limit)
	if err != nil {
		return nil, fmt.Errorf("io history for %s: %w", serial, err)
	}
	defer rows.Close()

	var points []IOPoint
	for rows.Next() {
		var ts string
		var p IOPoint
		if err := rows.Scan(&ts, &p.IOLoad); err != nil {
			return nil, fmt.Errorf("scan io history row: %w", err)
		}
		p.Timestamp, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse io history timestamp: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *Store) query(ctx context.Context, serial, order string, limit int) ([]Sample, error) {
	// order is "ASC" or "DESC", never user input.
	rows, err := s.db.QueryContext(ctx, `
		SELECT serial_number, timestamp, reallocated_sectors, read_errors,
		       power_on_hours, pending_sectors, io_load, COALESCE(write_errors, 0)
		FROM disk_stats
		WHERE serial_number = ?
		ORDER BY timestamp `+order+`
		LIMIT ?`, serial, limit)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", serial, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var ts string
		var smp Sample
		if err := rows.Scan(&smp.Serial, &ts, &smp.Reallocated, &smp.ReadErrors,
			&smp.PowerOnHours, &smp.Pending, &smp.IOLoad, &smp.WriteErrors); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		smp.Timestamp, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse history timestamp: %w", err)
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}
