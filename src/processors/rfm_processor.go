package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/retailrfm/src/models"
	"github.com/username/retailrfm/src/utils"
)

var (
	thirtyDays = decimal.NewFromInt(30)
	oneMonth   = decimal.NewFromInt(1)
)

// RFMProcessor builds the per-customer RFM table.
type RFMProcessor struct{}

func NewRFMProcessor() *RFMProcessor { return &RFMProcessor{} }

// SnapshotDate is one day after the latest invoice in txs, leakage rows
// included. ok is false for an empty table.
func SnapshotDate(txs []models.CanonicalTransaction) (snapshot time.Time, ok bool) {
	for _, tx := range txs {
		if !ok || tx.InvoiceDate.After(snapshot) {
			snapshot = tx.InvoiceDate
			ok = true
		}
	}
	if !ok {
		return time.Time{}, false
	}
	return snapshot.Add(24 * time.Hour), true
}

type customerAgg struct {
	invoices map[string]struct{}
	monetary decimal.Decimal
	first    time.Time
	last     time.Time
}

// Build aggregates purchases per customer and scores them. Every customer with
// at least one non-leakage, positive-revenue line appears exactly once, in
// ascending CustomerID order.
func (p *RFMProcessor) Build(txs []models.CanonicalTransaction) []models.CustomerRFMRecord {
	snapshot, ok := SnapshotDate(txs)
	if !ok {
		return []models.CustomerRFMRecord{}
	}

	byCustomer := make(map[int64]*customerAgg)
	for _, tx := range txs {
		if !tx.IsPurchase() || tx.InvoiceDate.IsZero() {
			continue
		}
		agg, exists := byCustomer[tx.CustomerID]
		if !exists {
			agg = &customerAgg{
				invoices: make(map[string]struct{}),
				monetary: decimal.Zero,
				first:    tx.InvoiceDate,
				last:     tx.InvoiceDate,
			}
			byCustomer[tx.CustomerID] = agg
		}
		agg.invoices[tx.InvoiceNo] = struct{}{}
		agg.monetary = agg.monetary.Add(tx.Revenue)
		if tx.InvoiceDate.Before(agg.first) {
			agg.first = tx.InvoiceDate
		}
		if tx.InvoiceDate.After(agg.last) {
			agg.last = tx.InvoiceDate
		}
	}

	ids := make([]int64, 0, len(byCustomer))
	for id := range byCustomer {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	records := make([]models.CustomerRFMRecord, len(ids))
	recency := make([]float64, len(ids))
	frequency := make([]float64, len(ids))
	monetary := make([]float64, len(ids))
	for i, id := range ids {
		agg := byCustomer[id]
		records[i] = models.CustomerRFMRecord{
			CustomerID:        id,
			RecencyDays:       utils.WholeDays(snapshot.Sub(agg.last)),
			Frequency:         len(agg.invoices),
			Monetary:          agg.monetary,
			FirstPurchase:     agg.first,
			LastPurchase:      agg.last,
			AvgMonthlyRevenue: AvgMonthlyRevenue(agg.monetary, agg.first, agg.last),
		}
		recency[i] = float64(records[i].RecencyDays)
		frequency[i] = float64(records[i].Frequency)
		monetary[i] = agg.monetary.InexactFloat64()
	}

	rScores := ScoreQuintiles(recency, false)
	fScores := ScoreQuintiles(frequency, true)
	mScores := ScoreQuintiles(monetary, true)
	for i := range records {
		rec := &records[i]
		rec.RScore, rec.FScore, rec.MScore = rScores[i], fScores[i], mScores[i]
		rec.RFMCode = RFMCode(rec.RScore, rec.FScore, rec.MScore)
		rec.Segment = ClassifySegment(rec.RScore, rec.FScore, rec.MScore)
	}
	return records
}

// RFMCode concatenates the three scores in R, F, M order, e.g. "455".
func RFMCode(r, f, m int) string {
	return fmt.Sprintf("%d%d%d", r, f, m)
}

// TenureMonths is the span between first and last purchase in 30-day months,
// never less than one.
func TenureMonths(first, last time.Time) decimal.Decimal {
	months := decimal.NewFromInt(int64(utils.WholeDays(last.Sub(first)))).Div(thirtyDays)
	return decimal.Max(months, oneMonth)
}

// AvgMonthlyRevenue divides monetary by the customer's tenure in months.
func AvgMonthlyRevenue(monetary decimal.Decimal, first, last time.Time) decimal.Decimal {
	return monetary.Div(TenureMonths(first, last))
}
