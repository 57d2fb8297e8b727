package validation

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestValidateInputFile(t *testing.T) {
	csv := []byte("InvoiceNo,CustomerID,InvoiceDate,Quantity,UnitPrice,Country\n536365,17850,2010-12-01 08:26:00,6,2.55,United Kingdom\n")
	latin1 := append([]byte("Country\nEIRE\nM"), 0xE9, 'x', 'i', 'c', 'o', '\n')

	if err := ValidateInputFile(writeFile(t, "ok.csv", csv), 0); err != nil {
		t.Errorf("valid CSV rejected: %v", err)
	}
	if err := ValidateInputFile(writeFile(t, "latin1.csv", latin1), 1<<20); err != nil {
		t.Errorf("Latin-1 CSV rejected: %v", err)
	}

	err := ValidateInputFile(writeFile(t, "big.csv", csv), 10)
	if !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("oversized file: got %v, want ErrInputTooLarge", err)
	}

	if err := ValidateInputFile(filepath.Join(t.TempDir(), "missing.csv"), 0); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want os.ErrNotExist", err)
	}
	if err := ValidateInputFile(t.TempDir(), 0); err == nil {
		t.Error("directory accepted as input file")
	}

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if err := ValidateInputFile(writeFile(t, "image.csv", png), 0); err == nil {
		t.Error("PNG content accepted as CSV")
	}
}

func TestValidateFileContentRewinds(t *testing.T) {
	data := strings.Repeat("a,b,c\n", 200)
	r := bytes.NewReader([]byte(data))
	if _, err := ValidateFileContentByMagicBytes(r); err != nil {
		t.Fatalf("ValidateFileContentByMagicBytes: %v", err)
	}
	rest, _ := io.ReadAll(r)
	if string(rest) != data {
		t.Error("reader was not rewound to the start")
	}
	if _, err := ValidateFileContentByMagicBytes(nil); err == nil {
		t.Error("nil reader accepted")
	}
}
