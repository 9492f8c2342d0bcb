package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/trogers1052/largecap-roi-service/internal/analysis"
	"github.com/trogers1052/largecap-roi-service/internal/cache"
	"github.com/trogers1052/largecap-roi-service/internal/database"
	"github.com/trogers1052/largecap-roi-service/internal/models"
)

const defaultAnalysisHistoryLimit = 20

// Analyzer is the pipeline the handlers expose
type Analyzer interface {
	FetchLargeCapStocks(ctx context.Context) ([]models.LargeCapStock, []models.FetchOutcome)
	CalculateROI(ctx context.Context, symbol string, windowDays int) (*models.ROIResult, error)
	AnalyzeInvestmentOpportunities(ctx context.Context) ([]models.OpportunityAnalysis, error)
	UpdateStockData(ctx context.Context) (*models.UpdateReport, error)
	ROIWindowDays() int
}

// Store is the read side of the database
type Store interface {
	GetAllStocks(ctx context.Context) ([]*models.Stock, error)
	GetStock(ctx context.Context, symbol string) (*models.Stock, error)
	GetPriceSamples(ctx context.Context, symbol string, startDate, endDate time.Time) ([]models.PriceSample, error)
	GetAnalysisHistory(ctx context.Context, symbol string, limit int) ([]*models.AnalysisResult, error)
}

// Cache stores computed responses
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	svc   Analyzer
	store Store
	cache Cache
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewHandler creates a new Handler. cache may be nil.
func NewHandler(svc Analyzer, store Store, cache Cache, log logrus.FieldLogger) *Handler {
	return &Handler{
		svc:   svc,
		store: store,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// GetLargeCapStocks handles GET /api/stocks/large-cap
func (h *Handler) GetLargeCapStocks(w http.ResponseWriter, r *http.Request) {
	stocks, _ := h.svc.FetchLargeCapStocks(r.Context())
	respondJSON(w, http.StatusOK, stocks)
}

// GetStockROI handles GET /api/stocks/{symbol}/roi
func (h *Handler) GetStockROI(w http.ResponseWriter, r *http.Request) {
	symbol := symbolVar(r)

	days, err := intQuery(r, "days", h.svc.ROIWindowDays())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := cache.ROIKey(symbol, days)
	var cached models.ROIResult
	if h.cacheGet(r.Context(), key, &cached) {
		respondJSON(w, http.StatusOK, &cached)
		return
	}

	result, err := h.svc.CalculateROI(r.Context(), symbol, days)
	var historyErr *analysis.HistoryError
	if errors.As(err, &historyErr) && r.Context().Err() == nil {
		// a single symbol's gateway failure is an error result, not a server error
		h.log.WithFields(logrus.Fields{
			"symbol": symbol,
			"error":  historyErr.Err.Error(),
		}).Warn("History unavailable for ROI request")
		respondJSON(w, http.StatusOK, map[string]string{
			"symbol": symbol,
			"error":  historyErr.Err.Error(),
		})
		return
	}
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"symbol": symbol,
			"error":  err.Error(),
		}).Error("ROI calculation failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result.InsufficientData {
		respondJSON(w, http.StatusOK, map[string]string{
			"symbol": result.Symbol,
			"error":  result.Error,
		})
		return
	}

	h.cacheSet(r.Context(), key, result)
	respondJSON(w, http.StatusOK, result)
}

// GetTopInvestments handles GET /api/analysis/top-investments
func (h *Handler) GetTopInvestments(w http.ResponseWriter, r *http.Request) {
	var cached []models.OpportunityAnalysis
	if h.cacheGet(r.Context(), cache.KeyTopInvestments, &cached) {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	top, err := h.svc.AnalyzeInvestmentOpportunities(r.Context())
	if err != nil {
		h.log.WithError(err).Error("Opportunity analysis failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.cacheSet(r.Context(), cache.KeyTopInvestments, top)
	respondJSON(w, http.StatusOK, top)
}

// UpdateData handles POST /api/data/update
func (h *Handler) UpdateData(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.UpdateStockData(r.Context())
	if err != nil {
		h.log.WithError(err).Error("Stock data update failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"timestamp": report.Timestamp,
		"inserted":  report.Inserted,
		"updated":   report.Updated,
		"skipped":   report.Skipped,
	})
}

// GetAllStocks handles GET /api/stocks
func (h *Handler) GetAllStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.store.GetAllStocks(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, stocks)
}

// GetStock handles GET /api/stocks/{symbol}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.store.GetStock(r.Context(), symbolVar(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stock)
}

// GetPriceHistory handles GET /api/stocks/{symbol}/history
func (h *Handler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", h.svc.ROIWindowDays())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	end := h.now()
	samples, err := h.store.GetPriceSamples(r.Context(), symbolVar(r), end.AddDate(0, 0, -days), end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, samples)
}

// GetAnalysisHistory handles GET /api/analysis/{symbol}/history
func (h *Handler) GetAnalysisHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultAnalysisHistoryLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.store.GetAnalysisHistory(r.Context(), symbolVar(r), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// HealthCheck handles GET /health and /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	found, err := h.cache.GetJSON(ctx, key, dest)
	if err != nil {
		h.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
		return false
	}
	return found
}

func (h *Handler) cacheSet(ctx context.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetJSON(ctx, key, value); err != nil {
		h.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
	}
}

func symbolVar(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
}

// intQuery reads a positive integer query parameter
func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return v, nil
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}
