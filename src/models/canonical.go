// src/models/canonical.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field identifies one of the canonical input columns every export must provide.
type Field string

const (
	FieldInvoiceNo   Field = "InvoiceNo"
	FieldCustomerID  Field = "CustomerID"
	FieldInvoiceDate Field = "InvoiceDate"
	FieldQuantity    Field = "Quantity"
	FieldUnitPrice   Field = "UnitPrice"
	FieldCountry     Field = "Country"
)

// RequiredFields lists the canonical fields in the order they are reported.
var RequiredFields = []Field{
	FieldInvoiceNo,
	FieldCustomerID,
	FieldInvoiceDate,
	FieldQuantity,
	FieldUnitPrice,
	FieldCountry,
}

// CancellationMarker prefixes the invoice number of a cancelled order.
const CancellationMarker = "C"

// CanonicalTransaction is the cleaned, typed line item produced by the cleaner.
// It is created once per cleaning pass and never mutated afterwards.
type CanonicalTransaction struct {
	InvoiceNo   string          `json:"invoice_no"`
	CustomerID  int64           `json:"customer_id"`
	InvoiceDate time.Time       `json:"invoice_date"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Revenue     decimal.Decimal `json:"revenue"` // Quantity * UnitPrice, never read from input
	Country     string          `json:"country"`

	// --- Leakage flags ---
	IsCancel          bool `json:"is_cancel"`
	IsNegativeQty     bool `json:"is_negative_qty"`
	IsNegativeRevenue bool `json:"is_negative_revenue"`
	IsLeakage         bool `json:"is_leakage"` // IsCancel || IsNegativeQty || IsNegativeRevenue
}

// IsPurchase reports whether the line counts as a genuine purchase for RFM and KPIs.
func (t CanonicalTransaction) IsPurchase() bool {
	return !t.IsLeakage && t.Revenue.IsPositive()
}
