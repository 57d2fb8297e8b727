package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Segment is a named customer behaviour category derived from R/F/M scores.
type Segment string

const (
	SegmentChampions     Segment = "Champions"
	SegmentLoyal         Segment = "Loyal"
	SegmentNewPromising  Segment = "New/Promising"
	SegmentAtRiskHighVal Segment = "At Risk (High Value)"
	SegmentHibernating   Segment = "Hibernating"
	SegmentRegular       Segment = "Regular"
)

// Segments lists every segment label.
var Segments = []Segment{
	SegmentChampions,
	SegmentLoyal,
	SegmentNewPromising,
	SegmentAtRiskHighVal,
	SegmentHibernating,
	SegmentRegular,
}

// CustomerRFMRecord holds the RFM metrics and scores of one customer with at
// least one qualifying purchase.
type CustomerRFMRecord struct {
	CustomerID        int64           `json:"customer_id"`
	RecencyDays       int             `json:"recency_days"`
	Frequency         int             `json:"frequency"` // distinct invoices
	Monetary          decimal.Decimal `json:"monetary"`
	FirstPurchase     time.Time       `json:"first_purchase"`
	LastPurchase      time.Time       `json:"last_purchase"`
	RScore            int             `json:"r_score"`
	FScore            int             `json:"f_score"`
	MScore            int             `json:"m_score"`
	RFMCode           string          `json:"rfm_code"` // e.g. "455"
	Segment           Segment         `json:"segment"`
	AvgMonthlyRevenue decimal.Decimal `json:"avg_monthly_revenue"`
}
