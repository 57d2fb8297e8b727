package processors

import (
	"github.com/username/retailrfm/src/models"
	"github.com/username/retailrfm/src/parsers"
)

// TransactionCleaner turns a normalized export into canonical transactions.
type TransactionCleaner interface {
	Clean(t *parsers.NormalizedTable) CleanResult
}

// RFMBuilder scores customers from canonical transactions.
type RFMBuilder interface {
	Build(txs []models.CanonicalTransaction) []models.CustomerRFMRecord
}

// Reporter computes the downstream summary tables.
type Reporter interface {
	SegmentSummaries(rfm []models.CustomerRFMRecord) []models.SegmentSummary
	MonthlyKPIs(txs []models.CanonicalTransaction) []models.MonthlyKPI
	LeakageMonthly(txs []models.CanonicalTransaction) []models.LeakageMonth
}

var (
	_ TransactionCleaner = (*Cleaner)(nil)
	_ RFMBuilder         = (*RFMProcessor)(nil)
	_ Reporter           = (*ReportProcessor)(nil)
)
