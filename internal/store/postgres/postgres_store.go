package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"salestrack/internal/store"
	"salestrack/types"
)

// Store persists queue state in a small key/value table. Both keys are
// rewritten inside one transaction so the list and its summary stay a single
// logical unit.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS salestrack_kv (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (s *Store) Load(ctx context.Context) ([]types.QueueItem, error) {
	raw, err := s.get(ctx, store.ItemsKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []types.QueueItem{}, nil
	}

	var items []types.QueueItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode queue items: %w", err)
	}
	return items, nil
}

func (s *Store) Save(ctx context.Context, items []types.QueueItem, summary types.QueueSummary) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode queue items: %w", err)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode queue summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if err := upsert(ctx, tx, store.ItemsKey, itemsJSON); err != nil {
		return err
	}
	if err := upsert(ctx, tx, store.SummaryKey, summaryJSON); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) LoadSummary(ctx context.Context) (types.QueueSummary, error) {
	var summary types.QueueSummary

	raw, err := s.get(ctx, store.SummaryKey)
	if err != nil {
		return summary, err
	}
	if raw == nil {
		return summary, nil
	}

	if err := json.Unmarshal(raw, &summary); err != nil {
		return types.QueueSummary{}, fmt.Errorf("decode queue summary: %w", err)
	}
	return summary, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM salestrack_kv WHERE key = $1`, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return raw, nil
}

func upsert(ctx context.Context, tx *sql.Tx, key string, value []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO salestrack_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
