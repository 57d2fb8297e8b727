package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/username/retailrfm/src/logger"
	"github.com/username/retailrfm/src/models"
)

// PostgresPublisher copies the RFM table and segment summary to PostgreSQL for
// downstream BI tools.
type PostgresPublisher struct {
	db *sql.DB
}

// NewPostgresPublisher opens connStr and pings the server.
func NewPostgresPublisher(ctx context.Context, connStr string) (*PostgresPublisher, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.L.Info("Connected to PostgreSQL successfully")
	return &PostgresPublisher{db: db}, nil
}

// CreateTables creates the publish tables if they don't exist.
func (p *PostgresPublisher) CreateTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS rfm_customers (
		customer_id         BIGINT PRIMARY KEY,
		recency_days        INTEGER NOT NULL,
		frequency           INTEGER NOT NULL,
		monetary            NUMERIC(18,4) NOT NULL,
		first_purchase      TIMESTAMPTZ NOT NULL,
		last_purchase       TIMESTAMPTZ NOT NULL,
		r_score             SMALLINT NOT NULL,
		f_score             SMALLINT NOT NULL,
		m_score             SMALLINT NOT NULL,
		rfm_code            CHAR(3) NOT NULL,
		segment             VARCHAR(32) NOT NULL,
		avg_monthly_revenue NUMERIC(18,4) NOT NULL,
		run_id              UUID NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rfm_customers_segment ON rfm_customers (segment);

	CREATE TABLE IF NOT EXISTS segment_summary (
		segment             VARCHAR(32) PRIMARY KEY,
		customers           INTEGER NOT NULL,
		total_revenue       NUMERIC(18,4) NOT NULL,
		avg_revenue         NUMERIC(18,4) NOT NULL,
		avg_recency_days    DOUBLE PRECISION NOT NULL,
		avg_frequency       DOUBLE PRECISION NOT NULL,
		avg_monthly_revenue NUMERIC(18,4) NOT NULL,
		revenue_share       DOUBLE PRECISION NOT NULL,
		run_id              UUID NOT NULL
	);
	`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	logger.L.Info("Tables 'rfm_customers' and 'segment_summary' are ready")
	return nil
}

// Publish replaces the RFM table and segment summary in a single transaction:
// both tables are cleared and re-inserted so they mirror the latest run.
func (p *PostgresPublisher) Publish(ctx context.Context, runID string, records []models.CustomerRFMRecord, summaries []models.SegmentSummary) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM rfm_customers"); err != nil {
		return fmt.Errorf("failed to clear rfm_customers: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM segment_summary"); err != nil {
		return fmt.Errorf("failed to clear segment_summary: %w", err)
	}

	rfmStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rfm_customers (customer_id, recency_days, frequency, monetary, first_purchase, last_purchase,
			r_score, f_score, m_score, rfm_code, segment, avg_monthly_revenue, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer rfmStmt.Close()

	for _, r := range records {
		_, err = rfmStmt.ExecContext(ctx,
			r.CustomerID,
			r.RecencyDays,
			r.Frequency,
			r.Monetary.String(),
			r.FirstPurchase,
			r.LastPurchase,
			r.RScore,
			r.FScore,
			r.MScore,
			r.RFMCode,
			string(r.Segment),
			r.AvgMonthlyRevenue.StringFixed(4),
			runID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert customer %d: %w", r.CustomerID, err)
		}
	}

	segStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segment_summary (segment, customers, total_revenue, avg_revenue, avg_recency_days,
			avg_frequency, avg_monthly_revenue, revenue_share, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer segStmt.Close()

	for _, s := range summaries {
		_, err = segStmt.ExecContext(ctx,
			string(s.Segment),
			s.Customers,
			s.TotalRevenue.String(),
			s.AvgRevenue.StringFixed(4),
			s.AvgRecencyDays,
			s.AvgFrequency,
			s.AvgMonthlyRevenue.StringFixed(4),
			s.RevenueShare,
			runID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert segment %q: %w", s.Segment, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.L.Info("Published RFM tables to PostgreSQL", "runID", runID, "customers", len(records), "segments", len(summaries))
	return nil
}

// Close closes the database connection.
func (p *PostgresPublisher) Close() {
	if p.db != nil {
		_ = p.db.Close()
	}
}
