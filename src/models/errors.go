package models

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns that could not be resolved. It is fatal
// for the stage that returns it.
type SchemaError struct {
	Stage   string   // "normalize", "build_rfm", ...
	Missing []string // required columns not found
	Columns []string // columns actually present
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns [%s]; columns found: [%s]",
		e.Stage, strings.Join(e.Missing, ", "), strings.Join(e.Columns, ", "))
}

// RequireColumns returns a *SchemaError naming every entry of required absent
// from have, or nil when all are present.
func RequireColumns(stage string, have, required []string) error {
	present := make(map[string]bool, len(have))
	for _, c := range have {
		present[c] = true
	}
	var missing []string
	for _, c := range required {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{Stage: stage, Missing: missing, Columns: append([]string(nil), have...)}
}
