package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SegmentSummary aggregates the RFM table for one segment.
type SegmentSummary struct {
	Segment           Segment         `json:"segment"`
	Customers         int             `json:"customers"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AvgRevenue        decimal.Decimal `json:"avg_revenue"`
	AvgRecencyDays    float64         `json:"avg_recency_days"`
	AvgFrequency      float64         `json:"avg_frequency"`
	AvgMonthlyRevenue decimal.Decimal `json:"avg_monthly_revenue"`
	RevenueShare      float64         `json:"revenue_share"`
}

// MonthlyKPI holds purchase KPIs for one calendar month.
type MonthlyKPI struct {
	Month           time.Time       `json:"month"`
	Revenue         decimal.Decimal `json:"revenue"`
	Orders          int             `json:"orders"`
	ActiveCustomers int             `json:"active_customers"`
	Units           decimal.Decimal `json:"units"`
	AOV             decimal.Decimal `json:"aov"`  // average order value
	ARPC            decimal.Decimal `json:"arpc"` // average revenue per customer
}

// LeakageMonth reports revenue leakage for one calendar month over all rows.
type LeakageMonth struct {
	Month           time.Time       `json:"month"`
	NetRevenue      decimal.Decimal `json:"net_revenue"`
	LeakageRevenue  decimal.Decimal `json:"leakage_revenue"`
	PositiveRevenue decimal.Decimal `json:"positive_revenue"`
	LeakageRows     int             `json:"leakage_rows"`
	TotalRows       int             `json:"total_rows"`
	LeakageRate     float64         `json:"leakage_rate_rows"`
}

// Reports bundles everything the report stage writes.
type Reports struct {
	Segments  []SegmentSummary    `json:"segments"`
	Customers []CustomerRFMRecord `json:"customers"`
	Monthly   []MonthlyKPI        `json:"monthly"`
	Leakage   []LeakageMonth      `json:"leakage"`
}
