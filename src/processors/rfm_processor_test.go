package processors

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/retailrfm/src/models"
)

func cleanRows(t *testing.T, rows ...[]string) []models.CanonicalTransaction {
	t.Helper()
	return NewCleaner().Clean(normalized(t, rows...)).Transactions
}

func TestSnapshotDate(t *testing.T) {
	txs := cleanRows(t,
		[]string{"536365", "17850", "2010-12-01 08:26:00", "6", "2.55", "United Kingdom"},
		[]string{"C536379", "14527", "2010-12-03 09:41:00", "-1", "27.50", "United Kingdom"},
	)
	snap, ok := SnapshotDate(txs)
	if !ok {
		t.Fatal("SnapshotDate reported empty table")
	}
	want := time.Date(2010, 12, 4, 9, 41, 0, 0, time.UTC)
	if !snap.Equal(want) {
		t.Errorf("SnapshotDate = %v, want %v (leakage rows count)", snap, want)
	}
	if _, ok := SnapshotDate(nil); ok {
		t.Error("SnapshotDate(nil) should report not ok")
	}
}

func TestBuildScenario(t *testing.T) {
	txs := cleanRows(t,
		[]string{"536365", "17850", "2010-12-01 08:26:00", "6", "2.55", "United Kingdom"},
		[]string{"C536379", "14527", "2010-12-01 09:41:00", "-1", "27.50", "United Kingdom"},
		[]string{"536366", "", "2010-12-01 08:28:00", "6", "1.85", "United Kingdom"},
	)
	records := NewRFMProcessor().Build(txs)
	if len(records) != 1 {
		t.Fatalf("got %d customers, want 1 (leakage-only customers excluded)", len(records))
	}
	rec := records[0]
	if rec.CustomerID != 17850 {
		t.Errorf("CustomerID = %d, want 17850", rec.CustomerID)
	}
	if !rec.Monetary.Equal(decimal.RequireFromString("15.30")) {
		t.Errorf("Monetary = %s, want 15.30", rec.Monetary)
	}
	if rec.Frequency != 1 {
		t.Errorf("Frequency = %d, want 1", rec.Frequency)
	}
	// snapshot is 2010-12-02 09:41, a day and 75 minutes after the purchase
	if rec.RecencyDays != 1 {
		t.Errorf("RecencyDays = %d, want 1", rec.RecencyDays)
	}
	if rec.RFMCode != "333" {
		t.Errorf("RFMCode = %q, want 333 for a lone customer", rec.RFMCode)
	}
	if !rec.AvgMonthlyRevenue.Equal(rec.Monetary) {
		t.Errorf("AvgMonthlyRevenue = %s, want %s when first == last", rec.AvgMonthlyRevenue, rec.Monetary)
	}
}

func TestBuildAggregates(t *testing.T) {
	txs := cleanRows(t,
		// customer 1: two lines on one invoice, one later invoice, one return
		[]string{"100", "1", "2011-01-01 10:00", "2", "5.00", "France"},
		[]string{"100", "1", "2011-01-01 10:00", "1", "3.00", "France"},
		[]string{"101", "1", "2011-03-02 10:00", "1", "10.00", "France"},
		[]string{"C102", "1", "2011-03-05 10:00", "-1", "10.00", "France"},
		// customer 2: free sample only
		[]string{"200", "2", "2011-02-01 10:00", "1", "0", "Spain"},
		// customer 3
		[]string{"300", "3", "2011-03-10 12:00", "4", "1.25", "Spain"},
	)
	records := NewRFMProcessor().Build(txs)
	if len(records) != 2 {
		t.Fatalf("got %d customers, want 2", len(records))
	}
	if records[0].CustomerID != 1 || records[1].CustomerID != 3 {
		t.Fatalf("customers not in ascending id order: %d, %d", records[0].CustomerID, records[1].CustomerID)
	}

	c1 := records[0]
	if c1.Frequency != 2 {
		t.Errorf("Frequency = %d, want 2 distinct invoices", c1.Frequency)
	}
	if !c1.Monetary.Equal(decimal.NewFromInt(23)) {
		t.Errorf("Monetary = %s, want 23", c1.Monetary)
	}
	// snapshot is 2011-03-11 12:00; last purchase 2011-03-02 10:00
	if c1.RecencyDays != 9 {
		t.Errorf("RecencyDays = %d, want 9", c1.RecencyDays)
	}
	// 60 days of tenure is two months
	if !c1.AvgMonthlyRevenue.Equal(decimal.RequireFromString("11.5")) {
		t.Errorf("AvgMonthlyRevenue = %s, want 11.5", c1.AvgMonthlyRevenue)
	}

	code := regexp.MustCompile(`^[1-5]{3}$`)
	for _, rec := range records {
		if !code.MatchString(rec.RFMCode) {
			t.Errorf("customer %d: RFMCode %q is not three digits in 1..5", rec.CustomerID, rec.RFMCode)
		}
		if rec.RFMCode != RFMCode(rec.RScore, rec.FScore, rec.MScore) {
			t.Errorf("customer %d: RFMCode %q does not match scores", rec.CustomerID, rec.RFMCode)
		}
		if rec.Segment != ClassifySegment(rec.RScore, rec.FScore, rec.MScore) {
			t.Errorf("customer %d: segment %q does not match scores", rec.CustomerID, rec.Segment)
		}
		if rec.RecencyDays < 0 || rec.Frequency < 1 || !rec.Monetary.IsPositive() {
			t.Errorf("customer %d: invalid metrics %+v", rec.CustomerID, rec)
		}
	}
	if records[1].RScore <= records[0].RScore {
		t.Errorf("more recent customer should score higher recency: %d vs %d", records[1].RScore, records[0].RScore)
	}
}

func TestBuildEmpty(t *testing.T) {
	if got := NewRFMProcessor().Build(nil); len(got) != 0 {
		t.Errorf("Build(nil) = %v, want empty", got)
	}
}

func TestTenureMonths(t *testing.T) {
	base := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		days int
		want string
	}{
		{0, "1"},
		{15, "1"},
		{45, "1.5"},
		{90, "3"},
	}
	for _, tt := range tests {
		got := TenureMonths(base, base.AddDate(0, 0, tt.days))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("TenureMonths(%d days) = %s, want %s", tt.days, got, tt.want)
		}
	}
}
