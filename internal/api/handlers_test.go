package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"routeopt/internal/config"
	"routeopt/internal/model"
	"routeopt/internal/solver"
	"routeopt/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Routing: config.Routing{
			MaxTravelTimeHours:        4,
			DefaultSpeedKmh:           50,
			BufferTimeMinutes:         15,
			MaxRouteDistanceKm:        200,
			DefaultServiceTimeMinutes: 10,
		},
		Priority: config.Priority{HighWeight: 1000, MediumWeight: 100, LowWeight: 1, MissingHighPenalty: 10000},
	}
	return &Server{Cfg: cfg, Solver: solver.New(cfg), Store: store.NewMemory(), Broker: NewBroker()}
}

func optimizeBody(t *testing.T) []byte {
	t.Helper()
	req := map[string]any{
		"pickup": map[string]any{
			"address": "Depot", "zipcode": "85009",
			"lat": 0.0, "lng": 0.0,
			"start_time": "08:00", "end_time": "18:00",
		},
		"settings": map[string]any{
			"return_to_origin": true, "time_per_stop_minutes": 10,
			"vehicle_speed_kmph": 60, "optimize_by": "priority",
		},
		"deliveries": []map[string]any{
			{
				"address": "Stop A", "zipcode": "85010",
				"lat": 0.0, "lng": 0.1, "priority": 1,
				"time_window": map[string]string{"start": "08:00", "end": "12:00"},
			},
		},
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestOptimizeAndHistory(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/optimize-route", bytes.NewReader(optimizeBody(t)))
	req.Header.Set("Content-Type", "application/json")
	s.OptimizeHandler(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("optimize: got %d: %s", rr.Code, rr.Body.String())
	}
	solveID := rr.Header().Get("X-Solve-Id")
	if solveID == "" {
		t.Fatal("missing X-Solve-Id header")
	}
	var res model.OptimizationResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !res.IsFeasible {
		t.Errorf("expected feasible result: %+v", res.SkippedDeliveries)
	}
	if len(res.Route) != 3 {
		t.Errorf("route stops = %d, want 3", len(res.Route))
	}

	// Solve shows up in history
	rr = httptest.NewRecorder()
	s.SolvesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solves", nil))
	if rr.Code != 200 {
		t.Fatalf("solves list: got %d", rr.Code)
	}
	var list struct {
		Items []store.SolveRecord `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != solveID {
		t.Fatalf("history = %+v, want one record with id %s", list.Items, solveID)
	}

	// And by id
	rr = httptest.NewRecorder()
	s.SolveByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solves/"+solveID, nil))
	if rr.Code != 200 {
		t.Fatalf("solve by id: got %d", rr.Code)
	}
}

func TestOptimizeRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/optimize-route", bytes.NewReader([]byte("{not json")))
	s.OptimizeHandler(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: got %d", rr.Code)
	}

	// No deliveries
	body := []byte(`{"pickup":{"address":"D","lat":0,"lng":0,"start_time":"08:00","end_time":"18:00"},"settings":{},"deliveries":[]}`)
	rr = httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize-route", bytes.NewReader(body)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty deliveries: got %d", rr.Code)
	}

	// Coordinates out of range
	body = []byte(`{"pickup":{"address":"D","lat":91,"lng":0,"start_time":"08:00","end_time":"18:00"},"settings":{},"deliveries":[{"address":"A","lat":0,"lng":0,"priority":1,"time_window":{"start":"08:00","end":"12:00"}}]}`)
	rr = httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize-route", bytes.NewReader(body)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad coords: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/optimize-route", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("method: got %d", rr.Code)
	}
}

func TestOptimizeInfeasibleIsStillOK(t *testing.T) {
	s := newTestServer(t)
	// HIGH delivery whose window closes before the vehicle can arrive.
	body := []byte(`{"pickup":{"address":"D","lat":0,"lng":0,"start_time":"08:00","end_time":"18:00"},
        "settings":{"vehicle_speed_kmph":40,"time_per_stop_minutes":10,"optimize_by":"priority"},
        "deliveries":[{"address":"A","lat":0,"lng":1.0,"priority":1,"time_window":{"start":"08:00","end":"09:00"}}]}`)
	rr := httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize-route", bytes.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("infeasible solve: got %d, want 200", rr.Code)
	}
	var res model.OptimizationResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.IsFeasible {
		t.Error("expected infeasible result")
	}
	if len(res.SkippedDeliveries) != 1 {
		t.Fatalf("skipped = %d, want 1", len(res.SkippedDeliveries))
	}
}

func TestDistanceMatrix(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"points":[{"lat":0,"lng":0},{"lat":0,"lng":0.1}],"speed_kmph":60}`)
	rr := httptest.NewRecorder()
	s.MatrixHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/distance-matrix", bytes.NewReader(body)))
	if rr.Code != 200 {
		t.Fatalf("matrix: got %d: %s", rr.Code, rr.Body.String())
	}
	var res model.MatrixResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Distances) != 2 || len(res.Times) != 2 {
		t.Fatalf("matrix shape: %dx%d", len(res.Distances), len(res.Times))
	}
	if res.Distances[0][1] < 10 || res.Distances[0][1] > 12 {
		t.Errorf("distance = %f, want ~11.1", res.Distances[0][1])
	}
	if res.Distances[0][1] != res.Distances[1][0] {
		t.Error("matrix should be symmetric")
	}

	// Single point rejected
	rr = httptest.NewRecorder()
	s.MatrixHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/distance-matrix", bytes.NewReader([]byte(`{"points":[{"lat":0,"lng":0}]}`))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("single point: got %d", rr.Code)
	}
}

func TestExampleDataSolvesEndToEnd(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.ExampleDataHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/example-data", nil))
	if rr.Code != 200 {
		t.Fatalf("example data: got %d", rr.Code)
	}

	// The sample body must be accepted by the optimizer as-is.
	opt := httptest.NewRecorder()
	s.OptimizeHandler(opt, httptest.NewRequest(http.MethodPost, "/v1/optimize-route", bytes.NewReader(rr.Body.Bytes())))
	if opt.Code != http.StatusOK {
		t.Fatalf("optimize example: got %d: %s", opt.Code, opt.Body.String())
	}
}

func TestDebugRoute(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.DebugRouteHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/debug-route", bytes.NewReader(optimizeBody(t))))
	if rr.Code != http.StatusOK {
		t.Fatalf("debug route: got %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Result model.OptimizationResult `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Result.Route) == 0 {
		t.Fatal("debug route returned no stops")
	}

	rr = httptest.NewRecorder()
	s.DebugRouteHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/debug-route", bytes.NewReader([]byte("{bad"))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: got %d", rr.Code)
	}
}

func TestNewServerRejectsBadRedisURL(t *testing.T) {
	t.Setenv("REDIS_URL", "not-a-redis-url")
	t.Setenv("DATABASE_URL", "")
	if _, err := NewServer(config.Config{}); err == nil {
		t.Fatal("want error for malformed REDIS_URL, got nil")
	}
}

func TestProblemTypePerErrorClass(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.OptimizeHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/optimize-route", bytes.NewReader([]byte("{bad"))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}
	var p Problem
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Type != problemInvalidRequest {
		t.Errorf("type = %q, want %q", p.Type, problemInvalidRequest)
	}

	rr = httptest.NewRecorder()
	s.SolveByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solves/missing", nil))
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Type != problemNotFound {
		t.Errorf("type = %q, want %q", p.Type, problemNotFound)
	}
}

func TestSolveByIDNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.SolveByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solves/00000000-0000-0000-0000-000000000000", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown solve: got %d", rr.Code)
	}
}
