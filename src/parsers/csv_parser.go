package parsers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/retailrfm/src/logger"
	"github.com/username/retailrfm/src/models"
	"golang.org/x/text/encoding/charmap"
)

// Supported input encodings.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVParser reads character-delimited exports into a RawTable.
type CSVParser struct {
	encoding  string
	delimiter rune
}

// NewCSVParser returns a parser for the given encoding ("latin1", "iso-8859-1",
// "utf8") and field delimiter.
func NewCSVParser(encoding string, delimiter rune) (*CSVParser, error) {
	enc, err := normalizeEncoding(encoding)
	if err != nil {
		return nil, err
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVParser{encoding: enc, delimiter: delimiter}, nil
}

func normalizeEncoding(encoding string) (string, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(encoding), "-", "")) {
	case "", "latin1", "iso88591":
		return EncodingLatin1, nil
	case "utf8":
		return EncodingUTF8, nil
	default:
		return "", fmt.Errorf("unsupported input encoding: %s", encoding)
	}
}

// Parse decodes the stream and returns the header plus every readable record.
// Records the csv package cannot read are skipped with a warning.
func (p *CSVParser) Parse(file io.Reader) (models.RawTable, error) {
	reader := csv.NewReader(p.decode(file))
	reader.Comma = p.delimiter
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.RawTable{}, fmt.Errorf("failed to read CSV header: input is empty")
		}
		return models.RawTable{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	table := models.RawTable{Header: header}
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				logger.L.Warn("Skipping unreadable CSV record", "line", parseErr.Line, "error", parseErr.Err)
				continue
			}
			return models.RawTable{}, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}

	if skipped > 0 {
		logger.L.Warn("CSV records skipped", "count", skipped)
	}
	return table, nil
}

// decode drops a leading UTF-8 byte order mark and applies the configured decoder.
func (p *CSVParser) decode(file io.Reader) io.Reader {
	br := bufio.NewReader(file)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	if p.encoding == EncodingUTF8 {
		return br
	}
	return charmap.ISO8859_1.NewDecoder().Reader(br)
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
