package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmaslov/factorsieve/internal/contracts"
	"github.com/dmaslov/factorsieve/internal/pipeline"
)

// Repository persists pipeline runs: the screening audit trail and the
// ranked shortlist, keyed by (run date, sector).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a run repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun writes one pipeline run inside a transaction, replacing any
// earlier run for the same date and sector.
func (r *Repository) SaveRun(ctx context.Context, run *pipeline.Result, strategyHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	date := run.AsOf.Truncate(24 * time.Hour)

	_, err = tx.Exec(ctx,
		"DELETE FROM sieve.screening_results WHERE run_date = $1 AND sector = $2", date, run.Sector)
	if err != nil {
		return fmt.Errorf("failed to delete old screening results: %w", err)
	}

	_, err = tx.Exec(ctx,
		"DELETE FROM sieve.rankings WHERE run_date = $1 AND sector = $2", date, run.Sector)
	if err != nil {
		return fmt.Errorf("failed to delete old rankings: %w", err)
	}

	screeningQuery := `
		INSERT INTO sieve.screening_results (
			run_date, sector, ticker, passed, reason
		) VALUES ($1, $2, $3, $4, $5)
	`

	for _, sr := range run.Screening {
		_, err := tx.Exec(ctx, screeningQuery, date, run.Sector, sr.Ticker, sr.Passed, sr.Reason)
		if err != nil {
			return fmt.Errorf("failed to insert screening result: %w", err)
		}
	}

	rankingQuery := `
		INSERT INTO sieve.rankings (
			run_date, sector, rank_position, ticker, composite_score,
			momentum_z, quality_z, low_vol_z, strategy_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, entry := range run.Ranked {
		_, err := tx.Exec(ctx, rankingQuery,
			date, run.Sector, entry.Rank, entry.Ticker, entry.CompositeScore,
			entry.MomentumZ, entry.QualityZ, entry.LowVolZ, strategyHash,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ranking: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestRankings returns the shortlist from the most recent saved run
// for a sector. A sector with no saved runs returns an empty slice.
func (r *Repository) LatestRankings(ctx context.Context, sector string) (time.Time, []contracts.RankedEntry, error) {
	// MAX over an empty set scans as NULL, hence the pointer.
	var latest *time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT MAX(run_date) FROM sieve.rankings WHERE sector = $1", sector,
	).Scan(&latest)
	if err != nil && err != pgx.ErrNoRows {
		return time.Time{}, nil, fmt.Errorf("failed to get latest run date: %w", err)
	}
	if latest == nil {
		return time.Time{}, []contracts.RankedEntry{}, nil
	}

	query := `
		SELECT rank_position, ticker, composite_score, momentum_z, quality_z, low_vol_z
		FROM sieve.rankings
		WHERE run_date = $1 AND sector = $2
		ORDER BY rank_position
	`

	rows, err := r.pool.Query(ctx, query, *latest, sector)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	entries := make([]contracts.RankedEntry, 0)
	for rows.Next() {
		var e contracts.RankedEntry
		err := rows.Scan(&e.Rank, &e.Ticker, &e.CompositeScore, &e.MomentumZ, &e.QualityZ, &e.LowVolZ)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return time.Time{}, nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return *latest, entries, nil
}

// ScreeningAudit returns the full screening trail for a date and
// sector, in the order it was screened.
func (r *Repository) ScreeningAudit(ctx context.Context, date time.Time, sector string) ([]contracts.ScreenResult, error) {
	query := `
		SELECT ticker, passed, reason
		FROM sieve.screening_results
		WHERE run_date = $1 AND sector = $2
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, date.Truncate(24*time.Hour), sector)
	if err != nil {
		return nil, fmt.Errorf("failed to query screening results: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.ScreenResult, 0)
	for rows.Next() {
		var sr contracts.ScreenResult
		if err := rows.Scan(&sr.Ticker, &sr.Passed, &sr.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan screening result: %w", err)
		}
		results = append(results, sr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}
