package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu     sync.Mutex
	byID   map[string]SolveRecord
	order  []string // insertion order, newest appended last
	maxLen int
}

func NewMemory() *Memory {
	return &Memory{
		byID:   map[string]SolveRecord{},
		maxLen: 1000,
	}
}

func (m *Memory) SaveSolve(ctx context.Context, rec SolveRecord) (SolveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, exists := m.byID[rec.ID]; !exists {
		m.order = append(m.order, rec.ID)
	}
	m.byID[rec.ID] = rec
	// Cap retained history
	for len(m.order) > m.maxLen {
		delete(m.byID, m.order[0])
		m.order = m.order[1:]
	}
	return rec, nil
}

func (m *Memory) GetSolve(ctx context.Context, id string) (SolveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return SolveRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) ListSolves(ctx context.Context, limit int) ([]SolveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	out := []SolveRecord{}
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.byID[m.order[i]])
	}
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
