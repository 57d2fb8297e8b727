package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/retailrfm/src/models"
)

var (
	// ErrInputInvalid means the raw export failed file-level checks.
	ErrInputInvalid = errors.New("input file invalid")
	// ErrParsingFailed means the raw export could not be read as a table.
	ErrParsingFailed = errors.New("failed to parse input")
	// ErrUnknownStage is returned for a stage name the pipeline does not know.
	ErrUnknownStage = errors.New("unknown pipeline stage")
)

// Stage names accepted by Run.
const (
	StageClean  = "clean"
	StageRFM    = "rfm"
	StageReport = "report"
	StageAll    = "all"
)

// StageResult summarizes one completed stage.
type StageResult struct {
	RunID    string
	Stage    string
	RowsIn   int
	RowsOut  int
	Outputs  []string
	Duration time.Duration
}

// RFMPublisher copies report tables to an external store.
type RFMPublisher interface {
	Publish(ctx context.Context, runID string, records []models.CustomerRFMRecord, summaries []models.SegmentSummary) error
}

// Pipeline runs the batch stages.
type Pipeline interface {
	RunClean(ctx context.Context) (*StageResult, error)
	RunRFM(ctx context.Context) (*StageResult, error)
	RunReport(ctx context.Context) (*StageResult, error)
	RunAll(ctx context.Context) ([]*StageResult, error)
	Run(ctx context.Context, stage string) ([]*StageResult, error)
}

// Reports serves the report tables computed from the stored artifacts.
type Reports interface {
	GetReports(ctx context.Context) (models.Reports, error)
	Invalidate()
}
