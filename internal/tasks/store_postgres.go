package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the task list in a single table ordered by an identity
// column. Appends are single-row inserts, so each one is atomic.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initTaskSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	if err := seedIfEmpty(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initTaskSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task_list (
			seq BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			text TEXT NOT NULL CHECK (text <> '')
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init task schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func seedIfEmpty(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Two instances starting together must not both seed.
	if _, err := tx.Exec(ctx, `LOCK TABLE task_list IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock task_list: %w", err)
	}
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM task_list)`).Scan(&exists); err != nil {
		return fmt.Errorf("check task_list: %w", err)
	}
	if exists {
		return nil
	}

	batch := &pgx.Batch{}
	for _, text := range SeedTasks {
		batch.Queue(`INSERT INTO task_list (text) VALUES ($1)`, text)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed task_list: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT text FROM task_list ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	if out == nil {
		out = []Task{}
	}
	return out, nil
}

func (s *PostgresStore) Append(ctx context.Context, text string) error {
	if err := validateText(text); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `INSERT INTO task_list (text) VALUES ($1)`, text); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PostgresStore) Mode() string { return "postgres" }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
