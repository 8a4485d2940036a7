package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/velvet-rope/internal/types"
)

// PartyRun is an archived simulation.
type PartyRun struct {
	ID            uuid.UUID `json:"id"`
	VenueName     string    `json:"venue_name"`
	AdmittedCount int       `json:"admitted_count"`
	TotalRounds   int       `json:"total_rounds"`
	Source        string    `json:"source"`
	Seed          uint64    `json:"seed"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewPartyRun summarizes a finished simulation for archiving.
func NewPartyRun(venue string, admitted int, result *types.SimulationResult) PartyRun {
	return PartyRun{
		ID:            uuid.New(),
		VenueName:     venue,
		AdmittedCount: admitted,
		TotalRounds:   result.TotalRounds,
		Source:        string(result.Source),
		Seed:          result.Seed,
		CreatedAt:     time.Now().UTC(),
	}
}

// SaveRun archives a finished simulation.
func (db *DB) SaveRun(ctx context.Context, run PartyRun, result *types.SimulationResult) error {
	content, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal simulation: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO party_runs (id, venue_name, admitted_count, total_rounds, source, seed, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.VenueName, run.AdmittedCount, run.TotalRounds, run.Source, int64(run.Seed), content, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]PartyRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, venue_name, admitted_count, total_rounds, source, seed, created_at
		 FROM party_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []PartyRun
	for rows.Next() {
		var run PartyRun
		var seed int64
		if err := rows.Scan(&run.ID, &run.VenueName, &run.AdmittedCount, &run.TotalRounds, &run.Source, &seed, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Seed = uint64(seed)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
