package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"routeopt/internal/geo"
	"routeopt/internal/metrics"
	"routeopt/internal/model"
	"routeopt/internal/store"
)

// OptimizeHandler handles POST /v1/optimize-route
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateRouteRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid route request", err.Error(), r.URL.Path)
		return
	}

	solveID := uuid.New().String()
	s.Broker.Publish(solveID, startedEvent(solveID, len(req.Deliveries)))

	res, err := s.Solver.Solve(r.Context(), req)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Optimization failed", err.Error(), r.URL.Path)
		return
	}

	by := string(res.Metrics.OptimizationMethod)
	metrics.Solves.WithLabelValues(by, fmt.Sprintf("%t", res.IsFeasible)).Inc()
	metrics.SolveDuration.WithLabelValues(by).Observe(res.Metrics.ProcessingTimeSeconds)
	for _, sk := range res.SkippedDeliveries {
		metrics.SkippedDeliveries.WithLabelValues(sk.Reason).Inc()
	}

	s.Broker.Publish(solveID, finishedEvent(solveID, res.IsFeasible, res.TotalDistanceKm, len(res.SkippedDeliveries)))

	rec := store.SolveRecord{
		ID:                solveID,
		OptimizeBy:        res.Metrics.OptimizationMethod,
		Feasible:          res.IsFeasible,
		TotalDistanceKm:   res.TotalDistanceKm,
		TotalTimeMinutes:  res.TotalTimeMinutes,
		TotalStops:        res.Metrics.TotalStops,
		SkippedStops:      res.Metrics.SkippedStops,
		ProcessingSeconds: res.Metrics.ProcessingTimeSeconds,
	}
	if _, err := s.Store.SaveSolve(r.Context(), rec); err != nil {
		// History is best effort; the solve result still goes out.
		s.logf("save solve %s: %v", solveID, err)
	}

	w.Header().Set("X-Solve-Id", solveID)
	writeJSON(w, http.StatusOK, res)
}

// MatrixHandler handles POST /v1/distance-matrix
func (s *Server) MatrixHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.MatrixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateMatrixRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid matrix request", err.Error(), r.URL.Path)
		return
	}
	speed := req.SpeedKmph
	if speed == 0 {
		speed = s.Cfg.Routing.DefaultSpeedKmh
	}
	m, err := geo.BuildMatrix(req.Points, speed)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Matrix build failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, model.MatrixResponse{
		Distances: m.DistKm,
		Times:     m.Minutes,
		Points:    m.Points,
	})
}

// SolvesHandler handles GET /v1/solves
func (s *Server) SolvesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, err := s.Store.ListSolves(r.Context(), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "List solves failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// SolveByIDHandler handles /v1/solves/{id} and /v1/solves/{id}/events/stream
func (s *Server) SolveByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/solves/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	id := parts[0]

	if len(parts) >= 3 && parts[1] == "events" && parts[2] == "stream" {
		s.streamSolveEvents(w, r, id)
		return
	}
	if len(parts) != 1 || r.Method != http.MethodGet {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	rec, err := s.Store.GetSolve(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Solve not found", "", r.URL.Path)
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Get solve failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) streamSolveEvents(w http.ResponseWriter, r *http.Request, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch, cancel := s.Broker.Subscribe(id)
	defer cancel()
	// initial heartbeat
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"solveId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			b, _ := json.Marshal(evt)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"solveId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{
		"status": "ok",
		"config": map[string]any{
			"maxTravelTimeHours": s.Cfg.Routing.MaxTravelTimeHours,
			"maxRouteDistanceKm": s.Cfg.Routing.MaxRouteDistanceKm,
			"defaultSpeedKmh":    s.Cfg.Routing.DefaultSpeedKmh,
			"bufferTimeMinutes":  s.Cfg.Routing.BufferTimeMinutes,
		},
	})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}
