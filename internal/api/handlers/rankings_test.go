package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/marketdata"
	"github.com/dmaslov/factorsieve/internal/pipeline"
	"github.com/dmaslov/factorsieve/internal/strategy"
	"github.com/dmaslov/factorsieve/pkg/logger"
)

type fakeStore struct {
	saved      []*pipeline.Result
	latestDate time.Time
	rankings   []contracts.RankedEntry
	screening  []contracts.ScreenResult
}

func (s *fakeStore) SaveRun(ctx context.Context, run *pipeline.Result, hash string) error {
	s.saved = append(s.saved, run)
	return nil
}

func (s *fakeStore) LatestRankings(ctx context.Context, sector string) (time.Time, []contracts.RankedEntry, error) {
	return s.latestDate, s.rankings, nil
}

func (s *fakeStore) ScreeningAudit(ctx context.Context, date time.Time, sector string) ([]contracts.ScreenResult, error) {
	return s.screening, nil
}

type fakeStream struct {
	messages []interface{}
}

func (s *fakeStream) Broadcast(message interface{}) {
	s.messages = append(s.messages, message)
}

func testRunner() *pipeline.Runner {
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	provider := marketdata.NewSynthetic().AddSector("technology", "AAPL", "MSFT", "NVDA", "AMD")
	for i, ticker := range []string{"AAPL", "MSFT", "NVDA", "AMD"} {
		provider.
			SetFundamentals(contracts.Fundamentals{
				Ticker:         ticker,
				Price:          contracts.Float(150),
				MarketCap:      contracts.Float(500e9),
				AvgDailyVolume: contracts.Float(80e6),
				DebtToEquity:   contracts.Float(1.2),
				ReturnOnEquity: contracts.Float(0.30),
			}).
			GenerateWalk(ticker, asOf, 400, 100, 0.0005*float64(i+1), 0.01)
	}
	return pipeline.NewRunner(strategy.Default(), provider, logger.NewNop())
}

func testRouter(h *RankingHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/rankings/{sector}", h.GetRankings).Methods("GET")
	r.HandleFunc("/api/v1/screenings/{sector}", h.GetScreenings).Methods("GET")
	r.HandleFunc("/api/v1/run/{sector}", h.RunSector).Methods("POST")
	return r
}

func TestGetRankings(t *testing.T) {
	store := &fakeStore{
		latestDate: time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		rankings: []contracts.RankedEntry{
			{Ticker: "NVDA", CompositeScore: 0.91, Rank: 1},
			{Ticker: "AAPL", CompositeScore: 0.12, Rank: 2},
		},
	}
	h := NewRankingHandler(testRunner(), store, nil, "hash", logger.NewNop())

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/rankings/technology", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body RankingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "technology", body.Sector)
	assert.Equal(t, "2024-06-28", body.AsOf)
	require.Len(t, body.Rankings, 2)
	assert.Equal(t, "NVDA", body.Rankings[0].Ticker)
}

func TestGetRankings_NoneSaved(t *testing.T) {
	h := NewRankingHandler(testRunner(), &fakeStore{}, nil, "hash", logger.NewNop())

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/rankings/technology", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRankings_NoStore(t *testing.T) {
	h := NewRankingHandler(testRunner(), nil, nil, "hash", logger.NewNop())

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/rankings/technology", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetScreenings(t *testing.T) {
	store := &fakeStore{
		screening: []contracts.ScreenResult{
			{Ticker: "AAPL", Passed: true, Reason: "All filters passed"},
			{Ticker: "PNNY", Passed: false, Reason: "Price $0.42 below minimum $5.00"},
		},
	}
	h := NewRankingHandler(testRunner(), store, nil, "hash", logger.NewNop())

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/screenings/technology?date=2024-06-28", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PNNY")
}

func TestGetScreenings_BadDate(t *testing.T) {
	h := NewRankingHandler(testRunner(), &fakeStore{}, nil, "hash", logger.NewNop())

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/screenings/technology?date=June", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunSector_SavesAndBroadcasts(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}
	h := NewRankingHandler(testRunner(), store, stream, "hash", logger.NewNop())

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/run/technology?as_of=2024-06-28", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body RankingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "technology", body.Sector)
	assert.Len(t, body.Rankings, 3)
	assert.Empty(t, body.Halt)

	require.Len(t, store.saved, 1)
	assert.Equal(t, "technology", store.saved[0].Sector)
	assert.Len(t, stream.messages, 1)
}

func TestRunSector_UnknownSector(t *testing.T) {
	h := NewRankingHandler(testRunner(), nil, nil, "hash", logger.NewNop())

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/run/utilities", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunSector_BadAsOf(t *testing.T) {
	h := NewRankingHandler(testRunner(), nil, nil, "hash", logger.NewNop())

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, httptest.NewRequest("POST", "/api/v1/run/technology?as_of=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
