package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig carries every path and tuning knob of the pipeline. It is built once
// in main and handed to each stage; nothing reads it from package state.
type AppConfig struct {
	InputCSV          string
	InputEncoding     string // latin1 or utf8
	CSVDelimiter      rune
	MaxInputSizeBytes int64

	OutputDir    string
	DatabasePath string
	PostgresURL  string // optional RFM publish target

	LogLevel  string
	LogFormat string
	LogFile   string

	ReportCacheTTL time.Duration

	databasePathExplicit bool // DATABASE_PATH or -db given, so it does not follow OutputDir
}

// DefaultDatabaseFile is the store name used inside OutputDir when no path is configured.
const DefaultDatabaseFile = "pipeline.db"

// Output file names written by the report stage.
const (
	SegmentSummaryFile = "segment_summary.csv"
	RFMCustomersFile   = "rfm_customers.csv"
	MonthlyKPIsFile    = "monthly_kpis.csv"
	LeakageMonthlyFile = "leakage_monthly.csv"
)

// LoadConfig reads an optional .env file and the process environment.
func LoadConfig() *AppConfig {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables and defaults only.
func FromEnv() *AppConfig {
	outputDir := getEnv("OUTPUT_DIR", "outputs")

	cfg := &AppConfig{
		InputCSV:          getEnv("INPUT_CSV", filepath.Join("data", "online_retail_ii.csv")),
		InputEncoding:     strings.ToLower(getEnv("INPUT_ENCODING", "latin1")),
		CSVDelimiter:      getEnvAsRune("CSV_DELIMITER", ','),
		MaxInputSizeBytes: getEnvAsInt64("MAX_INPUT_SIZE_BYTES", 1<<30),

		OutputDir:    outputDir,
		DatabasePath: getEnv("DATABASE_PATH", ""),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		ReportCacheTTL: getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(outputDir, DefaultDatabaseFile)
	} else {
		cfg.databasePathExplicit = true
	}

	log.Printf("Configuration loaded: Input=%s, Encoding=%s, OutputDir=%s, DBPath=%s, LogLevel=%s",
		cfg.InputCSV, cfg.InputEncoding, cfg.OutputDir, cfg.DatabasePath, cfg.LogLevel)
	return cfg
}

// SetOutputDir changes the report directory. A database path that was never
// configured explicitly moves along with it.
func (c *AppConfig) SetOutputDir(dir string) {
	c.OutputDir = dir
	if !c.databasePathExplicit {
		c.DatabasePath = filepath.Join(dir, DefaultDatabaseFile)
	}
}

// SetDatabasePath pins the artifact store location.
func (c *AppConfig) SetDatabasePath(path string) {
	c.DatabasePath = path
	c.databasePathExplicit = true
}

// OutputPath joins name onto the configured output directory.
func (c *AppConfig) OutputPath(name string) string {
	return filepath.Join(c.OutputDir, name)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsRune reads a single-character delimiter. "\t" and "tab" mean a tab.
func getEnvAsRune(key string, fallback rune) rune {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "":
		return fallback
	case `\t`, "tab":
		return '\t'
	}
	r := []rune(valueStr)
	if len(r) != 1 {
		log.Printf("Invalid delimiter for %s ('%s'), using default: %q", key, valueStr, fallback)
		return fallback
	}
	return r[0]
}
