package processors

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"github.com/username/retailrfm/src/models"
	"github.com/username/retailrfm/src/utils"
)

// ReportProcessor computes the summary tables consumed by the report stage.
type ReportProcessor struct{}

func NewReportProcessor() *ReportProcessor { return &ReportProcessor{} }

// SegmentSummaries groups the RFM table by segment, ordered by total revenue
// descending (ties by segment name).
func (p *ReportProcessor) SegmentSummaries(rfm []models.CustomerRFMRecord) []models.SegmentSummary {
	type group struct {
		total      decimal.Decimal
		avgMonthly decimal.Decimal
		recency    stats.Float64Data
		frequency  stats.Float64Data
	}
	groups := make(map[models.Segment]*group)
	grand := decimal.Zero
	for _, rec := range rfm {
		g, ok := groups[rec.Segment]
		if !ok {
			g = &group{total: decimal.Zero, avgMonthly: decimal.Zero}
			groups[rec.Segment] = g
		}
		g.total = g.total.Add(rec.Monetary)
		g.avgMonthly = g.avgMonthly.Add(rec.AvgMonthlyRevenue)
		g.recency = append(g.recency, float64(rec.RecencyDays))
		g.frequency = append(g.frequency, float64(rec.Frequency))
		grand = grand.Add(rec.Monetary)
	}

	summaries := make([]models.SegmentSummary, 0, len(groups))
	for seg, g := range groups {
		n := decimal.NewFromInt(int64(len(g.recency)))
		avgRecency, _ := stats.Mean(g.recency)
		avgFrequency, _ := stats.Mean(g.frequency)
		s := models.SegmentSummary{
			Segment:           seg,
			Customers:         len(g.recency),
			TotalRevenue:      g.total,
			AvgRevenue:        g.total.Div(n),
			AvgRecencyDays:    avgRecency,
			AvgFrequency:      avgFrequency,
			AvgMonthlyRevenue: g.avgMonthly.Div(n),
		}
		if !grand.IsZero() {
			s.RevenueShare = g.total.Div(grand).InexactFloat64()
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if c := summaries[i].TotalRevenue.Cmp(summaries[j].TotalRevenue); c != 0 {
			return c > 0
		}
		return summaries[i].Segment < summaries[j].Segment
	})
	return summaries
}

// MonthlyKPIs aggregates genuine purchases by calendar month.
func (p *ReportProcessor) MonthlyKPIs(txs []models.CanonicalTransaction) []models.MonthlyKPI {
	type month struct {
		kpi       models.MonthlyKPI
		invoices  map[string]struct{}
		customers map[int64]struct{}
	}
	months := make(map[time.Time]*month)
	for _, tx := range txs {
		if !tx.IsPurchase() {
			continue
		}
		key := utils.MonthStart(tx.InvoiceDate)
		m, ok := months[key]
		if !ok {
			m = &month{
				kpi:       models.MonthlyKPI{Month: key, Revenue: decimal.Zero, Units: decimal.Zero},
				invoices:  make(map[string]struct{}),
				customers: make(map[int64]struct{}),
			}
			months[key] = m
		}
		m.kpi.Revenue = m.kpi.Revenue.Add(tx.Revenue)
		m.kpi.Units = m.kpi.Units.Add(tx.Quantity)
		m.invoices[tx.InvoiceNo] = struct{}{}
		m.customers[tx.CustomerID] = struct{}{}
	}

	out := make([]models.MonthlyKPI, 0, len(months))
	for _, m := range months {
		kpi := m.kpi
		kpi.Orders = len(m.invoices)
		kpi.ActiveCustomers = len(m.customers)
		kpi.AOV = divInt(kpi.Revenue, kpi.Orders)
		kpi.ARPC = divInt(kpi.Revenue, kpi.ActiveCustomers)
		out = append(out, kpi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// LeakageMonthly reports net, leaked and genuine revenue per calendar month
// over every cleaned row.
func (p *ReportProcessor) LeakageMonthly(txs []models.CanonicalTransaction) []models.LeakageMonth {
	months := make(map[time.Time]*models.LeakageMonth)
	for _, tx := range txs {
		key := utils.MonthStart(tx.InvoiceDate)
		m, ok := months[key]
		if !ok {
			m = &models.LeakageMonth{
				Month:           key,
				NetRevenue:      decimal.Zero,
				LeakageRevenue:  decimal.Zero,
				PositiveRevenue: decimal.Zero,
			}
			months[key] = m
		}
		m.TotalRows++
		m.NetRevenue = m.NetRevenue.Add(tx.Revenue)
		if tx.IsLeakage {
			m.LeakageRows++
			m.LeakageRevenue = m.LeakageRevenue.Add(tx.Revenue)
		} else if tx.Revenue.IsPositive() {
			m.PositiveRevenue = m.PositiveRevenue.Add(tx.Revenue)
		}
	}

	out := make([]models.LeakageMonth, 0, len(months))
	for _, m := range months {
		m.LeakageRate = utils.SafeRatio(float64(m.LeakageRows), float64(m.TotalRows))
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

func divInt(num decimal.Decimal, den int) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return num.Div(decimal.NewFromInt(int64(den)))
}
