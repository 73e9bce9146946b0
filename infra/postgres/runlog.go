// Package postgres stores run records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kilianp07/evsched/core/factory"
	"github.com/kilianp07/evsched/core/runlog"
)

// Config holds the connection settings.
type Config struct {
	DSN      string `json:"dsn"`
	MaxConns int32  `json:"max_conns"`
	MinConns int32  `json:"min_conns"`
	Table    string `json:"table"`
}

const schema = `CREATE TABLE IF NOT EXISTS %s (
    id BIGSERIAL PRIMARY KEY,
    run_id TEXT NOT NULL,
    instance TEXT NOT NULL,
    status TEXT NOT NULL,
    ts TIMESTAMPTZ NOT NULL,
    record JSONB NOT NULL
)`

// Store implements runlog.Store.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// NewPool creates a connection pool and verifies connectivity.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping failed: %w", err)
	}
	return pool, nil
}

// NewStore connects and ensures the table exists.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "run_records"
	}
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ident := pgx.Identifier{table}.Sanitize()
	if _, err := pool.Exec(ctx, fmt.Sprintf(schema, ident)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create table: %w", err)
	}
	return &Store{pool: pool, table: ident}, nil
}

func (s *Store) Append(ctx context.Context, rec runlog.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` (run_id, instance, status, ts, record) VALUES ($1, $2, $3, $4, $5)`,
		rec.RunID, rec.Instance, rec.Status, rec.Timestamp, b)
	return err
}

func (s *Store) Query(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	sql, args := buildQuery(s.table, q)
	return s.scan(ctx, sql, args...)
}

func (s *Store) Get(ctx context.Context, runID string) (runlog.Record, error) {
	res, err := s.scan(ctx, `SELECT record FROM `+s.table+` WHERE run_id = $1 ORDER BY id DESC LIMIT 1`, runID)
	if err != nil {
		return runlog.Record{}, err
	}
	if len(res) == 0 {
		return runlog.Record{}, runlog.ErrNotFound
	}
	return res[0], nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) scan(ctx context.Context, sql string, args ...any) ([]runlog.Record, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []runlog.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r runlog.Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// buildQuery renders q as a parameterized select. With a limit the newest
// rows are picked and re-sorted oldest first.
func buildQuery(table string, q runlog.Query) (string, []any) {
	var args []any
	where := ` WHERE TRUE`
	add := func(cond string, v any) {
		args = append(args, v)
		where += ` AND ` + cond + ` $` + strconv.Itoa(len(args))
	}
	if !q.Start.IsZero() {
		add("ts >=", q.Start)
	}
	if !q.End.IsZero() {
		add("ts <=", q.End)
	}
	if q.Instance != "" {
		add("instance =", q.Instance)
	}
	if q.Status != "" {
		add("status =", q.Status)
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		inner := `SELECT id, ts, record FROM ` + table + where + ` ORDER BY ts DESC, id DESC LIMIT $` + strconv.Itoa(len(args))
		return `SELECT record FROM (` + inner + `) recent ORDER BY ts, id`, args
	}
	return `SELECT record FROM ` + table + where + ` ORDER BY ts, id`, args
}

func init() {
	_ = runlog.RegisterStore("postgres", func(conf map[string]any) (runlog.Store, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return NewStore(ctx, c)
	})
}
