package report

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// PerfRecord is one parsed performance data point forwarded to the result
// database.
type PerfRecord struct {
	TestCase  string
	Metric    string
	Value     float64
	Unit      string
	Guest     string
	Host      string
	Timestamp time.Time
}

// DB is the sqlite-backed performance result sink.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the result database and ensures the
// schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open result database %s: %w", path, err)
	}
	db := &DB{conn: conn}
	if err := db.ensureSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) ensureSchema() error {
	_, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS perf_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		test_case TEXT NOT NULL,
		metric TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT,
		guest TEXT,
		host TEXT,
		recorded_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("cannot create perf_results table: %w", err)
	}
	return nil
}

// InsertPerf stores one performance record.
func (db *DB) InsertPerf(r PerfRecord) error {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	_, err := db.conn.Exec(
		`INSERT INTO perf_results (test_case, metric, value, unit, guest, host, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.TestCase, r.Metric, r.Value, r.Unit, r.Guest, r.Host, r.Timestamp)
	if err != nil {
		return fmt.Errorf("cannot insert perf record: %w", err)
	}
	return nil
}

// ListPerf returns the stored records for one test case, newest first;
// an empty testCase returns everything.
func (db *DB) ListPerf(testCase string) ([]PerfRecord, error) {
	query := `SELECT test_case, metric, value, unit, guest, host, recorded_at
		  FROM perf_results`
	var args []interface{}
	if testCase != "" {
		query += ` WHERE test_case = ?`
		args = append(args, testCase)
	}
	query += ` ORDER BY recorded_at DESC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("cannot query perf records: %w", err)
	}
	defer rows.Close()

	var records []PerfRecord
	for rows.Next() {
		var r PerfRecord
		if err := rows.Scan(&r.TestCase, &r.Metric, &r.Value, &r.Unit, &r.Guest, &r.Host, &r.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
