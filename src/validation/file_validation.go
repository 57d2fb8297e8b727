package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/username/retailrfm/src/logger"
)

// ErrInputTooLarge is returned when the export exceeds the configured size limit.
var ErrInputTooLarge = errors.New("input file exceeds size limit")

// allowedDetectedTypes are the sniffed content types accepted for a CSV export.
// Latin-1 text with high bytes is usually sniffed as octet-stream.
var allowedDetectedTypes = map[string]bool{
	"text/plain":               true,
	"text/csv":                 true,
	"application/csv":          true,
	"application/octet-stream": true,
}

// ValidateInputFile checks that path is a regular file no larger than maxBytes
// (0 disables the limit) whose leading bytes look like text.
func ValidateInputFile(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		logger.L.Warn("Input file too large", "path", path, "size", info.Size(), "maxBytes", maxBytes)
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrInputTooLarge, path, info.Size(), maxBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open input file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := ValidateFileContentByMagicBytes(f); err != nil {
		return fmt.Errorf("input file %s: %w", path, err)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the actual file content signature (magic bytes).
// It returns the detected content type and an error if validation fails. The
// reader is rewound so the parser can read the full file.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512) // first 512 bytes are enough for MIME detection
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", err)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0]) // e.g. "text/plain; charset=utf-8"

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not consistent with a CSV file", detectedContentType)
	}

	logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
