package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/intervue-ai/intervue/pkg/core"
	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Postgres is the durable tier backed by a pgx pool. Session and report
// bodies are stored as JSONB documents keyed by session id.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and applies pending migrations.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) SaveSession(ctx context.Context, rec interview.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", rec.ID, err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO interview_sessions (id, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		rec.ID, string(body), rec.CreatedAt, time.Now())
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (p *Postgres) LoadSession(ctx context.Context, id string) (interview.Record, error) {
	var body []byte
	err := p.pool.QueryRow(ctx,
		`SELECT body FROM interview_sessions WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return interview.Record{}, core.NewNotFoundError("session not found: " + id)
	}
	if err != nil {
		return interview.Record{}, fmt.Errorf("load session %s: %w", id, err)
	}
	var rec interview.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return interview.Record{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return rec, nil
}

func (p *Postgres) SaveReport(ctx context.Context, rep interview.Report, status string) error {
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", rep.SessionID, err)
	}
	now := time.Now()
	_, err = p.pool.Exec(ctx, `
		INSERT INTO interview_reports (session_id, body, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (session_id) DO UPDATE
		SET body = EXCLUDED.body, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		rep.SessionID, string(body), status, now)
	if err != nil {
		return fmt.Errorf("save report %s: %w", rep.SessionID, err)
	}
	return nil
}

func (p *Postgres) LoadReport(ctx context.Context, id string) (interview.Report, error) {
	var body []byte
	err := p.pool.QueryRow(ctx,
		`SELECT body FROM interview_reports WHERE session_id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return interview.Report{}, core.NewNotFoundError("report not found: " + id)
	}
	if err != nil {
		return interview.Report{}, fmt.Errorf("load report %s: %w", id, err)
	}
	var rep interview.Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return interview.Report{}, fmt.Errorf("decode report %s: %w", id, err)
	}
	return rep, nil
}
