package store

import (
	"context"
	"errors"
	"time"

	"routeopt/internal/model"
)

// SolveRecord is the persisted summary of one optimization run. Route
// payloads are never stored, only outcome metrics.
type SolveRecord struct {
	ID                string           `json:"id"`
	OptimizeBy        model.OptimizeBy `json:"optimize_by"`
	Feasible          bool             `json:"feasible"`
	TotalDistanceKm   float64          `json:"total_distance_km"`
	TotalTimeMinutes  float64          `json:"total_time_minutes"`
	TotalStops        int              `json:"total_stops"`
	SkippedStops      int              `json:"skipped_stops"`
	ProcessingSeconds float64          `json:"processing_seconds"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Store is the persistence interface used by the API server.
type Store interface {
	SaveSolve(ctx context.Context, rec SolveRecord) (SolveRecord, error)
	GetSolve(ctx context.Context, id string) (SolveRecord, error)
	ListSolves(ctx context.Context, limit int) ([]SolveRecord, error)
	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")
