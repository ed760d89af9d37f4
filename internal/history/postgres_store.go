package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-classroom/livepoll/internal/models"
)

// PostgresStore writes ended polls into the poll_history table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Name identifies the store in logs.
func (s *PostgresStore) Name() string { return "postgres" }

// Save inserts p. Saving the same poll twice is a no-op.
func (s *PostgresStore) Save(ctx context.Context, p *models.Poll) error {
	options, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	results, err := json.Marshal(p.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	const query = `INSERT INTO poll_history (id, question, options, timer_seconds, created_at, ended_at, results)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	_, err = s.pool.Exec(ctx, query, p.ID, p.Question, options, p.TimerSeconds, p.CreatedAt, p.EndedAt, results)
	if err != nil {
		return fmt.Errorf("insert poll history: %w", err)
	}
	return nil
}

// List returns archived polls in the order they ended.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Poll, error) {
	const query = `SELECT id, question, options, timer_seconds, created_at, ended_at, results
		FROM poll_history ORDER BY ended_at ASC, created_at ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Poll
	for rows.Next() {
		var (
			p                models.Poll
			options, results []byte
		)
		if err := rows.Scan(&p.ID, &p.Question, &options, &p.TimerSeconds, &p.CreatedAt, &p.EndedAt, &results); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		if err := json.Unmarshal(results, &p.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
