package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"routeopt/internal/model"
)

// Postgres persists solve history when DATABASE_URL is set.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.migrate(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS solves (
        id UUID PRIMARY KEY,
        optimize_by TEXT NOT NULL,
        feasible BOOLEAN NOT NULL,
        total_distance_km DOUBLE PRECISION NOT NULL,
        total_time_minutes DOUBLE PRECISION NOT NULL,
        total_stops INT NOT NULL,
        skipped_stops INT NOT NULL,
        processing_seconds DOUBLE PRECISION NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`)
	return err
}

func (p *Postgres) SaveSolve(ctx context.Context, rec SolveRecord) (SolveRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO solves (id, optimize_by, feasible, total_distance_km, total_time_minutes, total_stops, skipped_stops, processing_seconds, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, string(rec.OptimizeBy), rec.Feasible, rec.TotalDistanceKm, rec.TotalTimeMinutes, rec.TotalStops, rec.SkippedStops, rec.ProcessingSeconds, rec.CreatedAt)
	if err != nil {
		return SolveRecord{}, err
	}
	return rec, nil
}

func (p *Postgres) GetSolve(ctx context.Context, id string) (SolveRecord, error) {
	var rec SolveRecord
	var by string
	err := p.db.QueryRowContext(ctx, `SELECT id::text, optimize_by, feasible, total_distance_km, total_time_minutes, total_stops, skipped_stops, processing_seconds, created_at
        FROM solves WHERE id=$1`, id).
		Scan(&rec.ID, &by, &rec.Feasible, &rec.TotalDistanceKm, &rec.TotalTimeMinutes, &rec.TotalStops, &rec.SkippedStops, &rec.ProcessingSeconds, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SolveRecord{}, ErrNotFound
	}
	if err != nil {
		return SolveRecord{}, err
	}
	rec.OptimizeBy = model.OptimizeBy(by)
	return rec, nil
}

func (p *Postgres) ListSolves(ctx context.Context, limit int) ([]SolveRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, optimize_by, feasible, total_distance_km, total_time_minutes, total_stops, skipped_stops, processing_seconds, created_at
        FROM solves ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SolveRecord{}
	for rows.Next() {
		var rec SolveRecord
		var by string
		if err := rows.Scan(&rec.ID, &by, &rec.Feasible, &rec.TotalDistanceKm, &rec.TotalTimeMinutes, &rec.TotalStops, &rec.SkippedStops, &rec.ProcessingSeconds, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.OptimizeBy = model.OptimizeBy(by)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
