package services

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/retailrfm/src/database"
	"github.com/username/retailrfm/src/logger"
	"github.com/username/retailrfm/src/models"
	"github.com/username/retailrfm/src/processors"
)

const (
	ckCanonical = "artifact_canonical"
	ckRFM       = "artifact_rfm"
	ckReports   = "res_reports"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type reportServiceImpl struct {
	store       *database.Store
	reporter    processors.Reporter
	reportCache *cache.Cache
}

// NewReportService memoizes artifacts and report tables for ttl (DefaultCacheExpiration when ttl <= 0).
func NewReportService(store *database.Store, reporter processors.Reporter, ttl time.Duration) Reports {
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	return &reportServiceImpl{
		store:       store,
		reporter:    reporter,
		reportCache: cache.New(ttl, CacheCleanupInterval),
	}
}

func (s *reportServiceImpl) GetReports(ctx context.Context) (models.Reports, error) {
	if cached, found := s.reportCache.Get(ckReports); found {
		logger.L.Debug("Cache hit for reports")
		return cached.(models.Reports), nil
	}
	logger.L.Info("Cache miss for reports, computing from artifacts")

	rfm, err := s.getRFM(ctx)
	if err != nil {
		return models.Reports{}, err
	}
	txs, err := s.getCanonical(ctx)
	if err != nil {
		return models.Reports{}, err
	}

	reports := models.Reports{
		Segments:  s.reporter.SegmentSummaries(rfm),
		Customers: rfm,
		Monthly:   s.reporter.MonthlyKPIs(txs),
		Leakage:   s.reporter.LeakageMonthly(txs),
	}
	s.reportCache.SetDefault(ckReports, reports)
	return reports, nil
}

func (s *reportServiceImpl) getCanonical(ctx context.Context) ([]models.CanonicalTransaction, error) {
	if cached, found := s.reportCache.Get(ckCanonical); found {
		return cached.([]models.CanonicalTransaction), nil
	}
	txs, err := s.store.LoadCanonical(ctx)
	if err != nil {
		return nil, err
	}
	s.reportCache.SetDefault(ckCanonical, txs)
	return txs, nil
}

func (s *reportServiceImpl) getRFM(ctx context.Context) ([]models.CustomerRFMRecord, error) {
	if cached, found := s.reportCache.Get(ckRFM); found {
		return cached.([]models.CustomerRFMRecord), nil
	}
	rfm, err := s.store.LoadRFM(ctx)
	if err != nil {
		return nil, err
	}
	s.reportCache.SetDefault(ckRFM, rfm)
	return rfm, nil
}

// Invalidate clears every cached artifact and report, forcing a rebuild on the next request.
func (s *reportServiceImpl) Invalidate() {
	for _, key := range []string{ckCanonical, ckRFM, ckReports} {
		s.reportCache.Delete(key)
	}
	logger.L.Debug("Invalidated report caches")
}
