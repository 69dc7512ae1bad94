package api

import (
	"fmt"
	"log"
	"os"
	"strings"

	"routeopt/internal/config"
	"routeopt/internal/solver"
	"routeopt/internal/store"
)

type Server struct {
	Cfg    config.Config
	Solver solver.Solver
	Store  store.Store
	Broker EventBroker
}

// NewServer creates a Server. If DATABASE_URL is unset, uses in-memory store.
func NewServer(cfg config.Config) (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		s = sp
	}
	// Broker selection. A bad REDIS_URL is fatal: falling back to the
	// in-memory broker would split event streams across replicas.
	var broker EventBroker = NewBroker()
	if url := os.Getenv("REDIS_URL"); url != "" {
		rb, err := NewRedisBroker(url)
		if err != nil {
			return nil, fmt.Errorf("redis broker: %w", err)
		}
		broker = rb
	}
	return &Server{Cfg: cfg, Solver: solver.New(cfg), Store: s, Broker: broker}, nil
}

func (s *Server) logf(format string, args ...any) {
	log.Printf(format, args...)
}
