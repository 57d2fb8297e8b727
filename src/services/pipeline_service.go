package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/username/retailrfm/src/config"
	"github.com/username/retailrfm/src/database"
	"github.com/username/retailrfm/src/exporters"
	"github.com/username/retailrfm/src/logger"
	"github.com/username/retailrfm/src/models"
	"github.com/username/retailrfm/src/parsers"
	"github.com/username/retailrfm/src/processors"
	"github.com/username/retailrfm/src/validation"
)

type pipelineServiceImpl struct {
	cfg       *config.AppConfig
	store     *database.Store
	parser    parsers.Parser
	cleaner   processors.TransactionCleaner
	rfm       processors.RFMBuilder
	reports   Reports
	exporter  *exporters.CSVExporter
	publisher RFMPublisher
}

// NewPipelineService wires the stages to cfg and store. publisher may be nil.
func NewPipelineService(cfg *config.AppConfig, store *database.Store, publisher RFMPublisher) (Pipeline, error) {
	parser, err := parsers.NewCSVParser(cfg.InputEncoding, cfg.CSVDelimiter)
	if err != nil {
		return nil, fmt.Errorf("invalid parser configuration: %w", err)
	}
	return &pipelineServiceImpl{
		cfg:       cfg,
		store:     store,
		parser:    parser,
		cleaner:   processors.NewCleaner(),
		rfm:       processors.NewRFMProcessor(),
		reports:   NewReportService(store, processors.NewReportProcessor(), cfg.ReportCacheTTL),
		exporter:  exporters.NewCSVExporter(cfg.OutputDir),
		publisher: publisher,
	}, nil
}

// runStage brackets fn with the run log and timing logs.
func (s *pipelineServiceImpl) runStage(ctx context.Context, stage string, fn func(res *StageResult) error) (*StageResult, error) {
	start := time.Now()
	runID, err := s.store.StartRun(ctx, stage)
	if err != nil {
		return nil, err
	}
	log := logger.L.With("stage", stage, "runID", runID)
	log.Info("Stage START")

	res := &StageResult{RunID: runID, Stage: stage}
	stageErr := fn(res)
	res.Duration = time.Since(start)

	if err := s.store.FinishRun(context.WithoutCancel(ctx), runID, res.RowsIn, res.RowsOut, stageErr); err != nil {
		log.Error("Failed to record stage end", "error", err)
	}
	if stageErr != nil {
		log.Error("Stage FAILED", "error", stageErr, "duration", res.Duration)
		return nil, fmt.Errorf("stage %s: %w", stage, stageErr)
	}
	log.Info("Stage END", "rowsIn", res.RowsIn, "rowsOut", res.RowsOut, "duration", res.Duration)
	return res, nil
}

func (s *pipelineServiceImpl) RunClean(ctx context.Context) (*StageResult, error) {
	return s.runStage(ctx, StageClean, func(res *StageResult) error {
		if err := validation.ValidateInputFile(s.cfg.InputCSV, s.cfg.MaxInputSizeBytes); err != nil {
			return fmt.Errorf("%w: %w", ErrInputInvalid, err)
		}
		file, err := os.Open(s.cfg.InputCSV)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInputInvalid, err)
		}
		defer file.Close()

		raw, err := s.parser.Parse(file)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParsingFailed, err)
		}
		table, err := parsers.Normalize(raw)
		if err != nil {
			return err
		}
		logger.L.Debug("Resolved input columns", "columns", table.SourceColumns())

		cleaned := s.cleaner.Clean(table)
		res.RowsIn, res.RowsOut = cleaned.RowsIn, len(cleaned.Transactions)
		if cleaned.RowsDropped > 0 {
			logger.L.Info("Dropped incomplete rows", "dropped", cleaned.RowsDropped, "rowsIn", cleaned.RowsIn)
		}
		if first, last, ok := processors.InvoiceDateRange(cleaned.Transactions); ok {
			logger.L.Info("Cleaned invoice date range", "first", first, "last", last)
		}

		if err := s.store.SaveCanonical(ctx, res.RunID, cleaned.Transactions); err != nil {
			return err
		}
		s.reports.Invalidate()
		res.Outputs = []string{s.cfg.DatabasePath}
		return nil
	})
}

func (s *pipelineServiceImpl) RunRFM(ctx context.Context) (*StageResult, error) {
	return s.runStage(ctx, StageRFM, func(res *StageResult) error {
		txs, err := s.store.LoadCanonical(ctx)
		if err != nil {
			return err
		}
		records := s.rfm.Build(txs)
		res.RowsIn, res.RowsOut = len(txs), len(records)
		counts := processors.SegmentCounts(records)
		for _, seg := range models.Segments {
			if n := counts[seg]; n > 0 {
				logger.L.Info("Segment customers", "segment", string(seg), "customers", n)
			}
		}

		if err := s.store.SaveRFM(ctx, res.RunID, records); err != nil {
			return err
		}
		s.reports.Invalidate()
		res.Outputs = []string{s.cfg.DatabasePath}
		return nil
	})
}

func (s *pipelineServiceImpl) RunReport(ctx context.Context) (*StageResult, error) {
	return s.runStage(ctx, StageReport, func(res *StageResult) error {
		reports, err := s.reports.GetReports(ctx)
		if err != nil {
			return err
		}
		res.RowsIn = len(reports.Customers)

		paths, err := s.exporter.ExportAll(ctx, reports)
		if err != nil {
			return err
		}
		res.Outputs = paths
		res.RowsOut = len(reports.Segments) + len(reports.Customers) + len(reports.Monthly) + len(reports.Leakage)

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, res.RunID, reports.Customers, reports.Segments); err != nil {
				return fmt.Errorf("publish: %w", err)
			}
		}
		return nil
	})
}

// RunAll runs clean, rfm and report in order, stopping at the first failure.
func (s *pipelineServiceImpl) RunAll(ctx context.Context) ([]*StageResult, error) {
	var results []*StageResult
	for _, run := range []func(context.Context) (*StageResult, error){s.RunClean, s.RunRFM, s.RunReport} {
		res, err := run(ctx)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Run dispatches a stage by name.
func (s *pipelineServiceImpl) Run(ctx context.Context, stage string) ([]*StageResult, error) {
	var (
		res *StageResult
		err error
	)
	switch stage {
	case StageAll:
		return s.RunAll(ctx)
	case StageClean:
		res, err = s.RunClean(ctx)
	case StageRFM:
		res, err = s.RunRFM(ctx)
	case StageReport:
		res, err = s.RunReport(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	if err != nil {
		return nil, err
	}
	return []*StageResult{res}, nil
}
