// Package scheduler runs the daily stock data update on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/largecap-roi-service/internal/analysis"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

// DefaultUpdateCron fires at 21:30 on weekdays, after the US close
const DefaultUpdateCron = "0 30 21 * * 1-5"

// Pipeline is the part of the analysis service the daily job drives
type Pipeline interface {
	UpdateStockData(ctx context.Context) (*models.UpdateReport, error)
	History(ctx context.Context, symbol string, windowDays int) ([]models.PriceSample, error)
	RankOpportunities(ctx context.Context) (*analysis.Ranking, error)
}

// Recorder persists price history and ranking runs
type Recorder interface {
	CreatePriceSampleBatch(ctx context.Context, samples []models.PriceSample) (int64, error)
	SaveAnalysisResults(ctx context.Context, results []*models.AnalysisResult) error
}

// JobResult summarises one run of the daily job
type JobResult struct {
	RunID           string
	Report          *models.UpdateReport
	SamplesRecorded int64
	HistoryFailures int
	ResultsSaved    int
}

// Scheduler manages the cron job
type Scheduler struct {
	cron       *cron.Cron
	pipeline   Pipeline
	recorder   Recorder
	log        logrus.FieldLogger
	ctx        context.Context
	windowDays int
	now        func() time.Time
	newRunID   func() string
}

// New creates a Scheduler. Jobs run with ctx and stop early once it is cancelled.
func New(ctx context.Context, pipeline Pipeline, recorder Recorder, windowDays int, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		pipeline:   pipeline,
		recorder:   recorder,
		log:        log,
		ctx:        ctx,
		windowDays: windowDays,
		now:        time.Now,
		newRunID:   func() string { return uuid.New().String() },
	}
}

// Register adds the daily job under spec. An empty spec uses DefaultUpdateCron.
func (s *Scheduler) Register(spec string) error {
	if spec == "" {
		spec = DefaultUpdateCron
	}
	if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
		return fmt.Errorf("register daily update %q: %w", spec, err)
	}
	s.log.WithField("cron", spec).Info("Daily update registered")
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// RunNow executes the daily job immediately
func (s *Scheduler) RunNow(ctx context.Context) (*JobResult, error) {
	runID := s.newRunID()
	log := s.log.WithField("run_id", runID)
	log.Info("Running daily update")

	report, err := s.pipeline.UpdateStockData(ctx)
	if err != nil {
		return nil, fmt.Errorf("daily update failed: %w", err)
	}

	result := &JobResult{RunID: runID, Report: report}

	for _, symbol := range report.Symbols {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		n, err := s.recordHistory(ctx, symbol)
		if err != nil {
			result.HistoryFailures++
			log.WithFields(logrus.Fields{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Failed to record price history")
			continue
		}
		result.SamplesRecorded += n
	}

	ranking, err := s.pipeline.RankOpportunities(ctx)
	if err != nil {
		return result, fmt.Errorf("ranking failed: %w", err)
	}

	top, dropped := upsertedOnly(ranking.Top, report.Symbols)
	if len(dropped) > 0 {
		// analysis_results references stocks; unknown symbols would fail the whole batch
		log.WithField("symbols", dropped).Warn("Ranked symbols missing from this run's upsert, not saved")
	}

	results := toAnalysisResults(runID, s.now().UTC(), top)
	if err := s.recorder.SaveAnalysisResults(ctx, results); err != nil {
		return result, fmt.Errorf("failed to save analysis results: %w", err)
	}
	result.ResultsSaved = len(results)

	log.WithFields(logrus.Fields{
		"inserted":         report.Inserted,
		"updated":          report.Updated,
		"samples_recorded": result.SamplesRecorded,
		"history_failures": result.HistoryFailures,
		"results_saved":    result.ResultsSaved,
	}).Info("Daily update complete")

	return result, nil
}

func (s *Scheduler) runScheduled() {
	if _, err := s.RunNow(s.ctx); err != nil {
		s.log.WithError(err).Error("Scheduled update failed")
	}
}

func (s *Scheduler) recordHistory(ctx context.Context, symbol string) (int64, error) {
	samples, err := s.pipeline.History(ctx, symbol, s.windowDays)
	if err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		return 0, nil
	}
	return s.recorder.CreatePriceSampleBatch(ctx, samples)
}

// upsertedOnly keeps the ranked entries whose symbol was upserted in this run
func upsertedOnly(top []models.OpportunityAnalysis, upserted []string) ([]models.OpportunityAnalysis, []string) {
	known := make(map[string]struct{}, len(upserted))
	for _, symbol := range upserted {
		known[symbol] = struct{}{}
	}

	kept := make([]models.OpportunityAnalysis, 0, len(top))
	var dropped []string
	for _, a := range top {
		if _, ok := known[a.Symbol]; !ok {
			dropped = append(dropped, a.Symbol)
			continue
		}
		kept = append(kept, a)
	}
	return kept, dropped
}

func toAnalysisResults(runID string, date time.Time, top []models.OpportunityAnalysis) []*models.AnalysisResult {
	results := make([]*models.AnalysisResult, 0, len(top))
	for _, a := range top {
		results = append(results, &models.AnalysisResult{
			RunID:           runID,
			Symbol:          a.Symbol,
			AnalysisDate:    date,
			TargetPrice:     a.TargetPrice,
			Recommendation:  a.AnalysisFactors.AnalystRating,
			ROIPotential:    a.ROIPotential,
			AnalysisFactors: a.AnalysisFactors,
		})
	}
	return results
}
