package api

import (
	"encoding/json"
	"log"
	"net/http"

	"routeopt/internal/model"
)

// DebugRouteHandler handles POST /v1/debug-route: the same solve as
// /v1/optimize-route, with the schedule logged stop by stop for diagnosis.
func (s *Server) DebugRouteHandler(w http.ResponseWriter, r *http.Request) {
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
	res, err := s.Solver.Solve(r.Context(), req)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Optimization failed", err.Error(), r.URL.Path)
		return
	}

	log.Printf("debug route: feasible=%t distance=%.2fkm time=%.0fmin stops=%d skipped=%d",
		res.IsFeasible, res.TotalDistanceKm, res.TotalTimeMinutes, len(res.Route), len(res.SkippedDeliveries))
	for i, st := range res.Route {
		log.Printf("debug route:   %d. %s (%s) arrival=%s", i+1, st.Stop, st.Zipcode, st.ArrivalTime)
	}
	for _, sk := range res.SkippedDeliveries {
		log.Printf("debug route:   skipped %s (%s): %s", sk.Address, sk.Zipcode, sk.Reason)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":     res,
		"debug_info": "schedule and skips logged server-side",
	})
}

// ExampleDataHandler handles GET /v1/example-data with a ready-to-post
// request body for trying the API.
func (s *Server) ExampleDataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, exampleRouteRequest())
}

func exampleRouteRequest() model.RouteRequest {
	window := func(start, end model.Clock) model.TimeWindow {
		return model.TimeWindow{Start: start, End: end}
	}
	return model.RouteRequest{
		Pickup: model.Pickup{
			Address:   "Warehouse, Mumbai",
			Zipcode:   "400001",
			Lat:       18.9356,
			Lng:       72.8376,
			StartTime: 9 * 60,
			EndTime:   18 * 60,
		},
		Settings: model.Settings{
			ReturnToOrigin:     true,
			TimePerStopMinutes: 10,
			VehicleSpeedKmph:   40,
			OptimizeBy:         model.OptimizePriority,
		},
		Deliveries: []model.Delivery{
			{
				Address: "Client A", Zipcode: "400020",
				Lat: 18.9447, Lng: 72.8235,
				Priority:   model.PriorityHigh,
				TimeWindow: window(10*60, 13*60),
			},
			{
				Address: "Client B", Zipcode: "400028",
				Lat: 18.9894, Lng: 72.8295,
				Priority:   model.PriorityMedium,
				TimeWindow: window(12*60, 17*60),
			},
			{
				Address: "Client C", Zipcode: "400033",
				Lat: 19.0158, Lng: 72.8438,
				Priority:   model.PriorityLow,
				TimeWindow: window(9*60, 11*60+30),
			},
		},
	}
}
