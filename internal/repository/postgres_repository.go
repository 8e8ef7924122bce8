package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"salestrack/types"
)

// PostgresMetricRecordRepository stores activity records with the raw record
// body as JSONB, mirroring how they arrive from the collection endpoint.
type PostgresMetricRecordRepository struct {
	db *sql.DB
}

func NewPostgresMetricRecordRepository(db *sql.DB) *PostgresMetricRecordRepository {
	return &PostgresMetricRecordRepository{db: db}
}

// EnsureRecordSchema creates the activity record table if it is missing.
func EnsureRecordSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activity_records (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			role       TEXT NOT NULL DEFAULT '',
			category   TEXT NOT NULL DEFAULT '',
			period     TEXT NOT NULL,
			fields     JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS activity_records_user_period
			ON activity_records (user_id, period);
	`)
	if err != nil {
		return fmt.Errorf("ensure activity record schema: %w", err)
	}
	return nil
}

func (r *PostgresMetricRecordRepository) Insert(ctx context.Context, rec types.MetricRecord) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encode record fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO activity_records (user_id, role, category, period, fields)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.UserID, rec.Role, rec.Category, rec.Period, fields)
	return err
}

func (r *PostgresMetricRecordRepository) ListByPeriod(ctx context.Context, period string) ([]types.MetricRecord, error) {
	query := `
		SELECT user_id, role, category, period, fields
		FROM activity_records
		WHERE ($1 = '' OR period = $1)
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *PostgresMetricRecordRepository) ListByUser(ctx context.Context, userID, period string) ([]types.MetricRecord, error) {
	query := `
		SELECT user_id, role, category, period, fields
		FROM activity_records
		WHERE user_id = $1 AND ($2 = '' OR period = $2)
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]types.MetricRecord, error) {
	var out []types.MetricRecord
	for rows.Next() {
		var rec types.MetricRecord
		var fields []byte
		if err := rows.Scan(&rec.UserID, &rec.Role, &rec.Category, &rec.Period, &fields); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &rec.Fields); err != nil {
			return nil, fmt.Errorf("decode record fields: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PostgresGoalRepository stores goal targets one row per (role, user, metric,
// period) tuple and the weight table as a single JSONB document.
type PostgresGoalRepository struct {
	db *sql.DB
}

func NewPostgresGoalRepository(db *sql.DB) *PostgresGoalRepository {
	return &PostgresGoalRepository{db: db}
}

// EnsureGoalSchema creates the goal and weight tables if they are missing.
func EnsureGoalSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS goal_targets (
			role       TEXT NOT NULL,
			user_id    TEXT NOT NULL DEFAULT '',
			metric     TEXT NOT NULL,
			period     TEXT NOT NULL,
			target     DOUBLE PRECISION NOT NULL,
			weeks      INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (role, user_id, metric, period)
		);
		CREATE TABLE IF NOT EXISTS metric_weights (
			id         INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			weights    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure goal schema: %w", err)
	}
	return nil
}

func (r *PostgresGoalRepository) UpsertTarget(ctx context.Context, target types.GoalTarget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goal_targets (role, user_id, metric, period, target, weeks, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (role, user_id, metric, period)
		DO UPDATE SET target = EXCLUDED.target, weeks = EXCLUDED.weeks, updated_at = now()
	`, target.Role, target.UserID, target.Metric, target.Period, target.Target, target.Weeks)
	return err
}

func (r *PostgresGoalRepository) ListTargets(ctx context.Context, role, period string) ([]types.GoalTarget, error) {
	query := `
		SELECT role, user_id, metric, period, target, weeks
		FROM goal_targets
		WHERE ($1 = '' OR role = $1) AND ($2 = '' OR period = $2)
		ORDER BY metric ASC, role ASC
	`
	rows, err := r.db.QueryContext(ctx, query, role, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.GoalTarget
	for rows.Next() {
		var t types.GoalTarget
		if err := rows.Scan(&t.Role, &t.UserID, &t.Metric, &t.Period, &t.Target, &t.Weeks); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresGoalRepository) SaveWeights(ctx context.Context, weights types.WeightTable) error {
	encoded, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("encode weight table: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO metric_weights (id, weights, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET weights = EXCLUDED.weights, updated_at = now()
	`, encoded)
	return err
}

func (r *PostgresGoalRepository) LoadWeights(ctx context.Context) (types.WeightTable, error) {
	var encoded []byte
	err := r.db.QueryRowContext(ctx, `SELECT weights FROM metric_weights WHERE id = 1`).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return types.WeightTable{}, nil
	}
	if err != nil {
		return nil, err
	}

	var weights types.WeightTable
	if err := json.Unmarshal(encoded, &weights); err != nil {
		return nil, fmt.Errorf("decode weight table: %w", err)
	}
	return weights, nil
}
