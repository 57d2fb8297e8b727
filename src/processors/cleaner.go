package processors

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/retailrfm/src/models"
	"github.com/username/retailrfm/src/parsers"
	"github.com/username/retailrfm/src/utils"
)

// naTokens are the cell values treated as missing, matching common export and
// dataframe conventions.
var naTokens = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-NaN":     true,
	"-nan":     true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
	"NaT":      true,
}

// IsMissing reports whether a raw cell holds no value.
func IsMissing(s string) bool {
	return naTokens[strings.TrimSpace(s)]
}

// ParseCustomerID coerces a customer id to an integer. Integral float
// renderings such as "12345.0" are accepted; fractional or non-numeric values are not.
func ParseCustomerID(s string) (int64, bool) {
	if IsMissing(s) {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	id := d.IntPart()
	if !decimal.NewFromInt(id).Equal(d) {
		return 0, false // outside int64
	}
	return id, true
}

// ParseDecimal coerces a quantity or price.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	if IsMissing(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseInvoiceDate coerces the invoice timestamp.
func ParseInvoiceDate(s string) (time.Time, bool) {
	if IsMissing(s) {
		return time.Time{}, false
	}
	t, err := utils.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseCountry trims the country name. Missing values are null.
func ParseCountry(s string) (string, bool) {
	if IsMissing(s) {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// CoercedRow is one input row after per-field coercion. A nil field is null.
type CoercedRow struct {
	InvoiceNo   string // as read, untrimmed
	CustomerID  *int64
	InvoiceDate *time.Time
	Quantity    *decimal.Decimal
	UnitPrice   *decimal.Decimal
	Country     *string
}

// Complete reports whether every required field is non-null.
func (r CoercedRow) Complete() bool {
	return r.CustomerID != nil && r.InvoiceDate != nil && r.Quantity != nil &&
		r.UnitPrice != nil && r.Country != nil
}

// CoerceRow applies the parse-or-null function of each field to row r.
func CoerceRow(t *parsers.NormalizedTable, r int) CoercedRow {
	row := CoercedRow{InvoiceNo: t.Value(r, models.FieldInvoiceNo)}
	if id, ok := ParseCustomerID(t.Value(r, models.FieldCustomerID)); ok {
		row.CustomerID = &id
	}
	if ts, ok := ParseInvoiceDate(t.Value(r, models.FieldInvoiceDate)); ok {
		row.InvoiceDate = &ts
	}
	if q, ok := ParseDecimal(t.Value(r, models.FieldQuantity)); ok {
		row.Quantity = &q
	}
	if p, ok := ParseDecimal(t.Value(r, models.FieldUnitPrice)); ok {
		row.UnitPrice = &p
	}
	if c, ok := ParseCountry(t.Value(r, models.FieldCountry)); ok {
		row.Country = &c
	}
	return row
}

// DropIncomplete keeps only rows with every required field present.
func DropIncomplete(rows []CoercedRow) []CoercedRow {
	kept := rows[:0:0]
	for _, r := range rows {
		if r.Complete() {
			kept = append(kept, r)
		}
	}
	return kept
}

// Derive builds the canonical transaction of a complete row: revenue and the
// leakage flags are always computed here. The cancellation marker must be the
// first character of the invoice as read; the stored invoice is trimmed.
func Derive(r CoercedRow) models.CanonicalTransaction {
	revenue := r.Quantity.Mul(*r.UnitPrice)
	tx := models.CanonicalTransaction{
		InvoiceNo:         strings.TrimSpace(r.InvoiceNo),
		CustomerID:        *r.CustomerID,
		InvoiceDate:       *r.InvoiceDate,
		Quantity:          *r.Quantity,
		UnitPrice:         *r.UnitPrice,
		Revenue:           revenue,
		Country:           *r.Country,
		IsCancel:          strings.HasPrefix(r.InvoiceNo, models.CancellationMarker),
		IsNegativeQty:     r.Quantity.IsNegative(),
		IsNegativeRevenue: revenue.IsNegative(),
	}
	tx.IsLeakage = tx.IsCancel || tx.IsNegativeQty || tx.IsNegativeRevenue
	return tx
}

// CleanResult is the output of one cleaning pass.
type CleanResult struct {
	Transactions []models.CanonicalTransaction
	RowsIn       int
	RowsDropped  int
}

// Cleaner turns a normalized table into canonical transactions.
type Cleaner struct{}

func NewCleaner() *Cleaner { return &Cleaner{} }

// Clean coerces, filters and derives every row of t. Rows with a null
// required field are dropped; the pass itself never fails.
func (c *Cleaner) Clean(t *parsers.NormalizedTable) CleanResult {
	coerced := make([]CoercedRow, t.Len())
	for r := range coerced {
		coerced[r] = CoerceRow(t, r)
	}
	complete := DropIncomplete(coerced)

	txs := make([]models.CanonicalTransaction, 0, len(complete))
	for _, r := range complete {
		txs = append(txs, Derive(r))
	}
	return CleanResult{
		Transactions: txs,
		RowsIn:       len(coerced),
		RowsDropped:  len(coerced) - len(complete),
	}
}

// InvoiceDateRange returns the earliest and latest invoice timestamps in txs.
// ok is false for an empty table.
func InvoiceDateRange(txs []models.CanonicalTransaction) (first, last time.Time, ok bool) {
	for i, tx := range txs {
		if i == 0 || tx.InvoiceDate.Before(first) {
			first = tx.InvoiceDate
		}
		if i == 0 || tx.InvoiceDate.After(last) {
			last = tx.InvoiceDate
		}
	}
	return first, last, len(txs) > 0
}
