package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/velvet-rope/internal/store"
)

// StatePersister stores the serialized pipeline state as one JSONB row.
// It satisfies store.Persister.
type StatePersister struct {
	db  *DB
	key string
}

// NewStatePersister creates a persister for the default storage key.
func NewStatePersister(db *DB) *StatePersister {
	return &StatePersister{db: db, key: store.StorageKey}
}

// Key returns the row key.
func (p *StatePersister) Key() string {
	return p.key
}

// Load implements store.Persister.
func (p *StatePersister) Load(ctx context.Context) ([]byte, error) {
	var content []byte
	err := p.db.pool.QueryRow(ctx,
		`SELECT content FROM pipeline_state WHERE key = $1`,
		p.key,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load state %s: %w", p.key, err)
	}
	return content, nil
}

// Save implements store.Persister.
func (p *StatePersister) Save(ctx context.Context, data []byte) error {
	stage := stageOf(data)
	_, err := p.db.pool.Exec(ctx,
		`INSERT INTO pipeline_state (key, stage, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET stage = $2, content = $3, updated_at = NOW()`,
		p.key, stage, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save state %s: %w", p.key, err)
	}
	return nil
}

// stageOf pulls current_stage out of a state blob for the indexed column.
func stageOf(data []byte) string {
	var head struct {
		CurrentStage string `json:"current_stage"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.CurrentStage == "" {
		return "unknown"
	}
	return head.CurrentStage
}
