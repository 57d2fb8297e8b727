package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"INPUT_CSV", "INPUT_ENCODING", "CSV_DELIMITER", "OUTPUT_DIR",
		"DATABASE_PATH", "POSTGRES_URL", "LOG_LEVEL", "REPORT_CACHE_TTL", "MAX_INPUT_SIZE_BYTES"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	// Empty values are "set", so defaults apply only to the parsed helpers.
	if cfg.CSVDelimiter != ',' {
		t.Errorf("CSVDelimiter = %q, want ','", cfg.CSVDelimiter)
	}
	if cfg.ReportCacheTTL != 15*time.Minute {
		t.Errorf("ReportCacheTTL = %v, want 15m", cfg.ReportCacheTTL)
	}
	if cfg.MaxInputSizeBytes != 1<<30 {
		t.Errorf("MaxInputSizeBytes = %d, want 1GiB", cfg.MaxInputSizeBytes)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("INPUT_CSV", "exports/retail.csv")
	t.Setenv("INPUT_ENCODING", "UTF8")
	t.Setenv("CSV_DELIMITER", "tab")
	t.Setenv("OUTPUT_DIR", "out")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("REPORT_CACHE_TTL", "2m")
	t.Setenv("MAX_INPUT_SIZE_BYTES", "1024")

	cfg := FromEnv()
	if cfg.InputCSV != "exports/retail.csv" {
		t.Errorf("InputCSV = %q", cfg.InputCSV)
	}
	if cfg.InputEncoding != "utf8" {
		t.Errorf("InputEncoding = %q, want utf8", cfg.InputEncoding)
	}
	if cfg.CSVDelimiter != '\t' {
		t.Errorf("CSVDelimiter = %q, want tab", cfg.CSVDelimiter)
	}
	if cfg.ReportCacheTTL != 2*time.Minute {
		t.Errorf("ReportCacheTTL = %v", cfg.ReportCacheTTL)
	}
	if cfg.MaxInputSizeBytes != 1024 {
		t.Errorf("MaxInputSizeBytes = %d", cfg.MaxInputSizeBytes)
	}
	if got, want := cfg.OutputPath(SegmentSummaryFile), filepath.Join("out", "segment_summary.csv"); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestDatabasePathFollowsOutputDir(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "run42")
	t.Setenv("DATABASE_PATH", "x")
	cfg := FromEnv()
	if cfg.DatabasePath != "x" {
		t.Errorf("explicit DATABASE_PATH ignored: %q", cfg.DatabasePath)
	}
	cfg.SetOutputDir("elsewhere")
	if cfg.DatabasePath != "x" {
		t.Errorf("explicit DATABASE_PATH moved with output dir: %q", cfg.DatabasePath)
	}

	t.Setenv("DATABASE_PATH", "")
	cfg = FromEnv()
	if want := filepath.Join("run42", "pipeline.db"); cfg.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, want)
	}
	cfg.SetOutputDir(filepath.Join("tmp", "x"))
	if want := filepath.Join("tmp", "x", "pipeline.db"); cfg.DatabasePath != want {
		t.Errorf("DatabasePath after SetOutputDir = %q, want %q", cfg.DatabasePath, want)
	}
	if cfg.OutputDir != filepath.Join("tmp", "x") {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}

	cfg.SetDatabasePath("pinned.db")
	cfg.SetOutputDir("again")
	if cfg.DatabasePath != "pinned.db" {
		t.Errorf("-db path moved with output dir: %q", cfg.DatabasePath)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CSV_DELIMITER", ";;")
	t.Setenv("REPORT_CACHE_TTL", "soon")
	t.Setenv("MAX_INPUT_SIZE_BYTES", "lots")
	cfg := FromEnv()
	if cfg.CSVDelimiter != ',' || cfg.ReportCacheTTL != 15*time.Minute || cfg.MaxInputSizeBytes != 1<<30 {
		t.Errorf("invalid values did not fall back: %+v", cfg)
	}
}
