package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/retailrfm/src/logger"
	"github.com/username/retailrfm/src/models"
)

// canonicalColumns are the clean_transactions columns in insert/select order.
var canonicalColumns = []string{
	"InvoiceNo", "CustomerID", "InvoiceDate", "Quantity", "UnitPrice", "Revenue", "Country",
	"IsCancel", "IsNegativeQty", "IsNegativeRevenue", "IsLeakage",
}

// rfmInputColumns must be present before an RFM table can be built.
var rfmInputColumns = []string{"InvoiceNo", "CustomerID", "InvoiceDate", "Revenue", "IsLeakage"}

// rfmColumns are the rfm_customers columns in insert/select order.
var rfmColumns = []string{
	"CustomerID", "RecencyDays", "Frequency", "Monetary", "FirstPurchase", "LastPurchase",
	"R_Score", "F_Score", "M_Score", "RFM_Code", "Segment", "AvgMonthlyRevenue",
}

// SaveCanonical replaces the canonical transaction artifact with txs.
func (s *Store) SaveCanonical(ctx context.Context, runID string, txs []models.CanonicalTransaction) error {
	dbTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, "DELETE FROM clean_transactions"); err != nil {
		return fmt.Errorf("error clearing clean_transactions: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `INSERT INTO clean_transactions (InvoiceNo, CustomerID, InvoiceDate, Quantity, UnitPrice, Revenue, Country, IsCancel, IsNegativeQty, IsNegativeRevenue, IsLeakage) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, tx := range txs {
		_, err := stmt.ExecContext(ctx, tx.InvoiceNo, tx.CustomerID, formatTime(tx.InvoiceDate),
			tx.Quantity.String(), tx.UnitPrice.String(), tx.Revenue.String(), tx.Country,
			boolToInt(tx.IsCancel), boolToInt(tx.IsNegativeQty), boolToInt(tx.IsNegativeRevenue), boolToInt(tx.IsLeakage))
		if err != nil {
			return fmt.Errorf("error inserting transaction %d (InvoiceNo: %s): %w", i, tx.InvoiceNo, err)
		}
	}

	if err := recordArtifact(ctx, dbTx, ArtifactCanonical, runID, len(txs)); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing transactions: %w", err)
	}
	logger.L.Info("Canonical artifact saved", "runID", runID, "rows", len(txs))
	return nil
}

// LoadCanonical reads the canonical transaction artifact in insertion order.
// A table lacking the columns RFM needs yields a *models.SchemaError.
func (s *Store) LoadCanonical(ctx context.Context) ([]models.CanonicalTransaction, error) {
	columns, err := s.tableColumns(ctx, "clean_transactions")
	if err != nil {
		return nil, err
	}
	if err := models.RequireColumns("build_rfm", columns, rfmInputColumns); err != nil {
		return nil, err
	}
	if err := models.RequireColumns("load_canonical", columns, canonicalColumns); err != nil {
		return nil, err
	}
	if err := s.requireArtifact(ctx, ArtifactCanonical); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT InvoiceNo, CustomerID, InvoiceDate, Quantity, UnitPrice, Revenue, Country, IsCancel, IsNegativeQty, IsNegativeRevenue, IsLeakage FROM clean_transactions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying clean_transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.CanonicalTransaction{}
	for rows.Next() {
		var tx models.CanonicalTransaction
		var invoiceDate, quantity, unitPrice, revenue string
		if err := rows.Scan(&tx.InvoiceNo, &tx.CustomerID, &invoiceDate, &quantity, &unitPrice, &revenue, &tx.Country,
			&tx.IsCancel, &tx.IsNegativeQty, &tx.IsNegativeRevenue, &tx.IsLeakage); err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		if tx.InvoiceDate, err = parseTime(invoiceDate); err != nil {
			return nil, err
		}
		if tx.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("invalid stored quantity %q: %w", quantity, err)
		}
		if tx.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("invalid stored unit price %q: %w", unitPrice, err)
		}
		if tx.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("invalid stored revenue %q: %w", revenue, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows: %w", err)
	}
	logger.L.Debug("Canonical artifact loaded", "rows", len(txs))
	return txs, nil
}

// SaveRFM replaces the RFM artifact with records.
func (s *Store) SaveRFM(ctx context.Context, runID string, records []models.CustomerRFMRecord) error {
	dbTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, "DELETE FROM rfm_customers"); err != nil {
		return fmt.Errorf("error clearing rfm_customers: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `INSERT INTO rfm_customers (CustomerID, RecencyDays, Frequency, Monetary, FirstPurchase, LastPurchase, R_Score, F_Score, M_Score, RFM_Code, Segment, AvgMonthlyRevenue) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx, r.CustomerID, r.RecencyDays, r.Frequency, r.Monetary.String(),
			formatTime(r.FirstPurchase), formatTime(r.LastPurchase), r.RScore, r.FScore, r.MScore,
			r.RFMCode, string(r.Segment), r.AvgMonthlyRevenue.String())
		if err != nil {
			return fmt.Errorf("error inserting RFM record (CustomerID: %d): %w", r.CustomerID, err)
		}
	}

	if err := recordArtifact(ctx, dbTx, ArtifactRFM, runID, len(records)); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing transactions: %w", err)
	}
	logger.L.Info("RFM artifact saved", "runID", runID, "customers", len(records))
	return nil
}

// LoadRFM reads the RFM artifact ordered by CustomerID.
func (s *Store) LoadRFM(ctx context.Context) ([]models.CustomerRFMRecord, error) {
	columns, err := s.tableColumns(ctx, "rfm_customers")
	if err != nil {
		return nil, err
	}
	if err := models.RequireColumns("report", columns, rfmColumns); err != nil {
		return nil, err
	}
	if err := s.requireArtifact(ctx, ArtifactRFM); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT CustomerID, RecencyDays, Frequency, Monetary, FirstPurchase, LastPurchase, R_Score, F_Score, M_Score, RFM_Code, Segment, AvgMonthlyRevenue FROM rfm_customers ORDER BY CustomerID ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying rfm_customers: %w", err)
	}
	defer rows.Close()

	records := []models.CustomerRFMRecord{}
	for rows.Next() {
		var r models.CustomerRFMRecord
		var monetary, first, last, segment, avgMonthly string
		if err := rows.Scan(&r.CustomerID, &r.RecencyDays, &r.Frequency, &monetary, &first, &last,
			&r.RScore, &r.FScore, &r.MScore, &r.RFMCode, &segment, &avgMonthly); err != nil {
			return nil, fmt.Errorf("error scanning RFM row: %w", err)
		}
		r.Segment = models.Segment(segment)
		if r.Monetary, err = decimal.NewFromString(monetary); err != nil {
			return nil, fmt.Errorf("invalid stored monetary %q: %w", monetary, err)
		}
		if r.AvgMonthlyRevenue, err = decimal.NewFromString(avgMonthly); err != nil {
			return nil, fmt.Errorf("invalid stored avg monthly revenue %q: %w", avgMonthly, err)
		}
		if r.FirstPurchase, err = parseTime(first); err != nil {
			return nil, err
		}
		if r.LastPurchase, err = parseTime(last); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over RFM rows: %w", err)
	}
	logger.L.Debug("RFM artifact loaded", "customers", len(records))
	return records, nil
}
