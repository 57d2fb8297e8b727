package exporters

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/retailrfm/src/config"
	"github.com/username/retailrfm/src/logger"
	"github.com/username/retailrfm/src/models"
	"github.com/username/retailrfm/src/utils"
	"golang.org/x/sync/errgroup"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	monthLayout     = "2006-01-02"
)

// CSVExporter writes the report tables as CSV files into OutputDir.
type CSVExporter struct {
	OutputDir string
}

func NewCSVExporter(outputDir string) *CSVExporter {
	return &CSVExporter{OutputDir: outputDir}
}

// ExportAll writes the four report files concurrently. Each file is written to a
// temporary name and renamed into place, so readers never see a partial report.
// It returns the paths written.
func (e *CSVExporter) ExportAll(ctx context.Context, reports models.Reports) ([]string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", e.OutputDir, err)
	}

	jobs := []struct {
		name string
		rows func() [][]string
	}{
		{config.SegmentSummaryFile, func() [][]string { return SegmentSummaryRows(reports.Segments) }},
		{config.RFMCustomersFile, func() [][]string { return RFMCustomerRows(reports.Customers) }},
		{config.MonthlyKPIsFile, func() [][]string { return MonthlyKPIRows(reports.Monthly) }},
		{config.LeakageMonthlyFile, func() [][]string { return LeakageMonthlyRows(reports.Leakage) }},
	}

	paths := make([]string, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		path := filepath.Join(e.OutputDir, job.name)
		paths[i] = path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeCSVFile(path, job.rows())
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.L.Info("CSV exports saved", "outputDir", e.OutputDir, "files", len(paths))
	return paths, nil
}

func writeCSVFile(path string, rows [][]string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	logger.L.Debug("CSV written", "path", path, "rows", len(rows)-1)
	return nil
}

// SegmentSummaryRows renders the segment summary, header first.
func SegmentSummaryRows(summaries []models.SegmentSummary) [][]string {
	rows := [][]string{{"Segment", "customers", "total_revenue", "avg_revenue", "avg_recency_days", "avg_frequency", "avg_monthly_revenue", "revenue_share"}}
	for _, s := range summaries {
		rows = append(rows, []string{
			string(s.Segment),
			strconv.Itoa(s.Customers),
			s.TotalRevenue.String(),
			formatDecimal(s.AvgRevenue),
			formatFloat(s.AvgRecencyDays),
			formatFloat(s.AvgFrequency),
			formatDecimal(s.AvgMonthlyRevenue),
			formatFloat(s.RevenueShare),
		})
	}
	return rows
}

// RFMCustomerRows renders the per-customer RFM table, header first.
func RFMCustomerRows(records []models.CustomerRFMRecord) [][]string {
	rows := [][]string{{"CustomerID", "RecencyDays", "Frequency", "Monetary", "FirstPurchase", "LastPurchase", "R_Score", "F_Score", "M_Score", "RFM_Score", "Segment", "AvgMonthlyRevenue"}}
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.CustomerID, 10),
			strconv.Itoa(r.RecencyDays),
			strconv.Itoa(r.Frequency),
			r.Monetary.String(),
			formatTimestamp(r.FirstPurchase),
			formatTimestamp(r.LastPurchase),
			strconv.Itoa(r.RScore),
			strconv.Itoa(r.FScore),
			strconv.Itoa(r.MScore),
			r.RFMCode,
			string(r.Segment),
			formatDecimal(r.AvgMonthlyRevenue),
		})
	}
	return rows
}

// MonthlyKPIRows renders the monthly KPI table, header first.
func MonthlyKPIRows(kpis []models.MonthlyKPI) [][]string {
	rows := [][]string{{"month", "revenue", "orders", "active_customers", "units", "aov", "arpc"}}
	for _, k := range kpis {
		rows = append(rows, []string{
			k.Month.Format(monthLayout),
			k.Revenue.String(),
			strconv.Itoa(k.Orders),
			strconv.Itoa(k.ActiveCustomers),
			k.Units.String(),
			formatDecimal(k.AOV),
			formatDecimal(k.ARPC),
		})
	}
	return rows
}

// LeakageMonthlyRows renders the monthly leakage table, header first.
func LeakageMonthlyRows(months []models.LeakageMonth) [][]string {
	rows := [][]string{{"month", "net_revenue", "leakage_revenue", "positive_revenue", "leakage_rows", "total_rows", "leakage_rate_rows"}}
	for _, m := range months {
		rows = append(rows, []string{
			m.Month.Format(monthLayout),
			m.NetRevenue.String(),
			m.LeakageRevenue.String(),
			m.PositiveRevenue.String(),
			strconv.Itoa(m.LeakageRows),
			strconv.Itoa(m.TotalRows),
			formatFloat(m.LeakageRate),
		})
	}
	return rows
}

// formatDecimal renders derived averages with a fixed scale; sums keep their exact form.
func formatDecimal(d decimal.Decimal) string {
	return d.StringFixed(6)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(utils.RoundFloat(f, 6), 'f', -1, 64)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
