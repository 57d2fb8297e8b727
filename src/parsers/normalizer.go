package parsers

import (
	"strings"

	"github.com/username/retailrfm/src/models"
)

// columnSynonyms maps a normalized header key to its canonical field.
var columnSynonyms = map[string]models.Field{
	"invoiceno":   models.FieldInvoiceNo,
	"invoice":     models.FieldInvoiceNo,
	"invoiceid":   models.FieldInvoiceNo,
	"customerid":  models.FieldCustomerID,
	"customer":    models.FieldCustomerID,
	"invoicedate": models.FieldInvoiceDate,
	"date":        models.FieldInvoiceDate,
	"quantity":    models.FieldQuantity,
	"qty":         models.FieldQuantity,
	"unitprice":   models.FieldUnitPrice,
	"price":       models.FieldUnitPrice,
	"country":     models.FieldCountry,
}

// NormalizedTable is a raw table projected onto the canonical fields. Values
// are still untyped strings; the cleaner coerces them.
type NormalizedTable struct {
	Columns map[models.Field]int // canonical field -> index in the raw row
	Raw     models.RawTable
}

// Value returns the raw cell of field f in row r.
func (t *NormalizedTable) Value(r int, f models.Field) string {
	i, ok := t.Columns[f]
	if !ok {
		return ""
	}
	return t.Raw.Cell(r, i)
}

// Len returns the number of data rows.
func (t *NormalizedTable) Len() int { return len(t.Raw.Rows) }

// SourceColumns maps each canonical field to the input column it was read from.
func (t *NormalizedTable) SourceColumns() map[string]string {
	out := make(map[string]string, len(t.Columns))
	for f, i := range t.Columns {
		out[string(f)] = t.Raw.Header[i]
	}
	return out
}

// NormalizeColumnName produces the lookup key for a header: trimmed, with
// spaces and underscores removed, lowercased.
func NormalizeColumnName(name string) string {
	key := strings.TrimSpace(name)
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")
	return strings.ToLower(key)
}

// ResolveColumns maps header names to canonical fields. Unknown headers are
// ignored; when two headers resolve to the same field the later one wins.
func ResolveColumns(header []string) map[models.Field]int {
	resolved := make(map[models.Field]int, len(models.RequiredFields))
	for i, name := range header {
		if field, ok := columnSynonyms[NormalizeColumnName(name)]; ok {
			resolved[field] = i
		}
	}
	return resolved
}

// CanonicalHeader renames every recognized header to its canonical name and
// drops the rest, preserving input order. Later duplicates replace earlier ones.
func CanonicalHeader(header []string) []string {
	resolved := ResolveColumns(header)
	var out []string
	for i, name := range header {
		field, ok := columnSynonyms[NormalizeColumnName(name)]
		if ok && resolved[field] == i {
			out = append(out, string(field))
		}
	}
	return out
}

// Normalize resolves the canonical columns of raw. It fails with a
// *models.SchemaError listing the unresolved fields and the input columns.
func Normalize(raw models.RawTable) (*NormalizedTable, error) {
	resolved := ResolveColumns(raw.Header)

	found := make([]string, 0, len(resolved))
	for field := range resolved {
		found = append(found, string(field))
	}
	required := make([]string, len(models.RequiredFields))
	for i, f := range models.RequiredFields {
		required[i] = string(f)
	}
	if err := models.RequireColumns("normalize", found, required); err != nil {
		schemaErr := err.(*models.SchemaError)
		schemaErr.Columns = append([]string(nil), raw.Header...)
		return nil, schemaErr
	}

	return &NormalizedTable{
		Columns: resolved,
		Raw:     raw,
	}, nil
}
