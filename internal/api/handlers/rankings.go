package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/marketdata"
	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

// RunStore is the persistence surface the handlers need.
type RunStore interface {
	SaveRun(ctx context.Context, run *pipeline.Result, strategyHash string) error
	LatestRankings(ctx context.Context, sector string) (time.Time, []contracts.RankedEntry, error)
	ScreeningAudit(ctx context.Context, date time.Time, sector string) ([]contracts.ScreenResult, error)
}

// Broadcaster pushes fresh shortlists to stream subscribers.
type Broadcaster interface {
	Broadcast(message interface{})
}

// RankingHandler serves saved rankings and triggers live pipeline runs.
// Store and stream are both optional; endpoints that need a missing
// dependency answer 503.
type RankingHandler struct {
	runner       *pipeline.Runner
	store        RunStore
	stream       Broadcaster
	strategyHash string
	logger       *logger.Logger
}

// NewRankingHandler creates a ranking handler.
func NewRankingHandler(runner *pipeline.Runner, store RunStore, stream Broadcaster, strategyHash string, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		runner:       runner,
		store:        store,
		stream:       stream,
		strategyHash: strategyHash,
		logger:       log,
	}
}

// RankingsResponse is the payload for ranking reads and run triggers.
type RankingsResponse struct {
	Sector   string                  `json:"sector"`
	AsOf     string                  `json:"as_of"`
	Rankings []contracts.RankedEntry `json:"rankings"`
	Halt     string                  `json:"halt,omitempty"`
}

// GetRankings returns the latest saved shortlist for a sector.
// GET /api/v1/rankings/{sector}
func (h *RankingHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return
	}

	sector := mux.Vars(r)["sector"]

	date, entries, err := h.store.LatestRankings(r.Context(), sector)
	if err != nil {
		h.logger.WithError(err).WithField("sector", sector).Error("Failed to load rankings")
		respondError(w, http.StatusInternalServerError, "Failed to load rankings")
		return
	}

	if len(entries) == 0 {
		respondError(w, http.StatusNotFound, "No saved rankings for sector")
		return
	}

	respondJSON(w, http.StatusOK, RankingsResponse{
		Sector:   sector,
		AsOf:     date.Format("2006-01-02"),
		Rankings: entries,
	})
}

// GetScreenings returns the screening audit trail for a sector and
// date.
// GET /api/v1/screenings/{sector}?date=YYYY-MM-DD
func (h *RankingHandler) GetScreenings(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return
	}

	sector := mux.Vars(r)["sector"]

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Query parameter date must be YYYY-MM-DD")
		return
	}

	results, err := h.store.ScreeningAudit(r.Context(), date, sector)
	if err != nil {
		h.logger.WithError(err).WithField("sector", sector).Error("Failed to load screening audit")
		respondError(w, http.StatusInternalServerError, "Failed to load screening audit")
		return
	}

	if len(results) == 0 {
		respondError(w, http.StatusNotFound, "No screening results for sector and date")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sector":    sector,
		"date":      date.Format("2006-01-02"),
		"screening": results,
	})
}

// RunSector runs the pipeline for a sector right now, saves the result
// when a store is configured, and broadcasts the fresh shortlist.
// POST /api/v1/run/{sector}?as_of=YYYY-MM-DD
func (h *RankingHandler) RunSector(w http.ResponseWriter, r *http.Request) {
	sector := mux.Vars(r)["sector"]

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Query parameter as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	run, err := h.runner.Run(r.Context(), sector, asOf)
	if err != nil {
		if errors.Is(err, marketdata.ErrUnknownSector) {
			respondError(w, http.StatusNotFound, "Unknown sector")
			return
		}
		h.logger.WithError(err).WithField("sector", sector).Error("Pipeline run failed")
		respondError(w, http.StatusBadGateway, "Pipeline run failed")
		return
	}

	if h.store != nil {
		if err := h.store.SaveRun(r.Context(), run, h.strategyHash); err != nil {
			h.logger.WithError(err).WithField("sector", sector).Error("Failed to save run")
			respondError(w, http.StatusInternalServerError, "Failed to save run")
			return
		}
	}

	response := RankingsResponse{
		Sector:   sector,
		AsOf:     asOf.Format("2006-01-02"),
		Rankings: run.Ranked,
		Halt:     string(run.Halt),
	}

	if h.stream != nil && len(run.Ranked) > 0 {
		h.stream.Broadcast(response)
	}

	respondJSON(w, http.StatusOK, response)
}
