package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/username/retailrfm/src/logger"
	_ "modernc.org/sqlite"
)

// ErrArtifactNotFound is returned when a stage asks for an artifact that no
// earlier stage has written.
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact names recorded in the artifacts table.
const (
	ArtifactCanonical = "clean_transactions"
	ArtifactRFM       = "rfm_customers"
)

// Store is the SQLite-backed artifact store shared by the pipeline stages.
type Store struct {
	DB *sql.DB
}

const createTableStatement = `
CREATE TABLE IF NOT EXISTS clean_transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	InvoiceNo TEXT NOT NULL,
	CustomerID INTEGER NOT NULL,
	InvoiceDate TEXT NOT NULL,
	Quantity TEXT NOT NULL,
	UnitPrice TEXT NOT NULL,
	Revenue TEXT NOT NULL,
	Country TEXT NOT NULL,
	IsCancel INTEGER NOT NULL,
	IsNegativeQty INTEGER NOT NULL,
	IsNegativeRevenue INTEGER NOT NULL,
	IsLeakage INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rfm_customers (
	CustomerID INTEGER PRIMARY KEY,
	RecencyDays INTEGER NOT NULL,
	Frequency INTEGER NOT NULL,
	Monetary TEXT NOT NULL,
	FirstPurchase TEXT NOT NULL,
	LastPurchase TEXT NOT NULL,
	R_Score INTEGER NOT NULL,
	F_Score INTEGER NOT NULL,
	M_Score INTEGER NOT NULL,
	RFM_Code TEXT NOT NULL,
	Segment TEXT NOT NULL,
	AvgMonthlyRevenue TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS artifacts (
	name TEXT PRIMARY KEY,
	run_id TEXT,
	row_count INTEGER NOT NULL,
	written_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	run_id TEXT PRIMARY KEY,
	stage TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	rows_in INTEGER,
	rows_out INTEGER,
	error_message TEXT
);
`

// Open opens (creating if needed) the SQLite database at databasePath and
// ensures the pipeline tables exist.
func Open(databasePath string) (*Store, error) {
	if dir := filepath.Dir(databasePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}
	// One connection: SQLite serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{DB: db}
	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	if _, err := db.Exec(createTableStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if err := s.migrateRunsTable(); err != nil {
		db.Close()
		return nil, err
	}
	logger.L.Info("Database tables ensured/created.")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// tableColumns returns the column names of table, in declaration order.
func (s *Store) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("error querying table schema for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid, notnullVal, pk int
		var name, dataType string
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("error scanning column info for %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over column info for %s: %w", table, err)
	}
	return columns, nil
}

// migrateRunsTable adds columns missing from run logs created by older releases.
func (s *Store) migrateRunsTable() error {
	columns, err := s.tableColumns(context.Background(), "pipeline_runs")
	if err != nil {
		return err
	}
	columnExists := make(map[string]bool, len(columns))
	for _, c := range columns {
		columnExists[c] = true
	}

	if !columnExists["error_message"] {
		if _, err := s.DB.Exec("ALTER TABLE pipeline_runs ADD COLUMN error_message TEXT"); err != nil {
			logger.L.Error("Error adding 'error_message' column to 'pipeline_runs' table", "error", err)
			return fmt.Errorf("failed to migrate pipeline_runs: %w", err)
		}
		logger.L.Info("Added 'error_message' column to 'pipeline_runs' table")
	}
	return nil
}

// recordArtifact upserts the bookkeeping row for an artifact inside tx.
func recordArtifact(ctx context.Context, tx *sql.Tx, name, runID string, rows int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO artifacts (name, run_id, row_count, written_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET run_id = excluded.run_id, row_count = excluded.row_count, written_at = excluded.written_at`,
		name, runID, rows, formatTime(nowUTC()))
	if err != nil {
		return fmt.Errorf("error recording artifact %s: %w", name, err)
	}
	return nil
}

// requireArtifact returns ErrArtifactNotFound unless name has been written.
func (s *Store) requireArtifact(ctx context.Context, name string) error {
	var rowCount int
	err := s.DB.QueryRowContext(ctx, "SELECT row_count FROM artifacts WHERE name = ?", name).Scan(&rowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("error checking artifact %s: %w", name, err)
	}
	return nil
}
