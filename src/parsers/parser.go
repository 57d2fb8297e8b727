package parsers

import (
	"io"

	"github.com/username/retailrfm/src/models"
)

// Parser reads one raw tabular export.
type Parser interface {
	Parse(file io.Reader) (models.RawTable, error)
}
