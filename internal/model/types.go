package model

// Wire types shared by the gateway and the optimization engine.

// Priority ranks a delivery; lower values are more urgent.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

// OptimizeBy selects the scoring objective used by the solver.
type OptimizeBy string

const (
	OptimizeDistance OptimizeBy = "distance"
	OptimizeTime     OptimizeBy = "time"
	OptimizePriority OptimizeBy = "priority"
)

func (o OptimizeBy) Valid() bool {
	switch o {
	case OptimizeDistance, OptimizeTime, OptimizePriority:
		return true
	}
	return false
}

// GeoPoint is an immutable latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TimeWindow is a delivery window; start must precede end.
type TimeWindow struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Pickup is the depot the vehicle departs from and optionally returns to,
// with its operating window.
type Pickup struct {
	Address   string  `json:"address"`
	Zipcode   string  `json:"zipcode"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	StartTime Clock   `json:"start_time"`
	EndTime   Clock   `json:"end_time"`
}

func (p Pickup) Point() GeoPoint { return GeoPoint{Lat: p.Lat, Lng: p.Lng} }

// Settings are the per-request solver knobs.
type Settings struct {
	ReturnToOrigin     bool       `json:"return_to_origin"`
	TimePerStopMinutes int        `json:"time_per_stop_minutes"`
	VehicleSpeedKmph   float64    `json:"vehicle_speed_kmph"`
	OptimizeBy         OptimizeBy `json:"optimize_by"`
}

// Delivery is a single stop to schedule. Address and zipcode are display
// data only; computation uses the coordinates.
type Delivery struct {
	Address    string     `json:"address"`
	Zipcode    string     `json:"zipcode"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Priority   Priority   `json:"priority"`
	TimeWindow TimeWindow `json:"time_window"`
}

func (d Delivery) Point() GeoPoint { return GeoPoint{Lat: d.Lat, Lng: d.Lng} }

// RouteRequest is the optimize-route input payload.
type RouteRequest struct {
	Pickup     Pickup     `json:"pickup"`
	Settings   Settings   `json:"settings"`
	Deliveries []Delivery `json:"deliveries"`
}

// RouteStop is one timestamped stop in the solved route. The initial pickup
// departs at its arrival time; a final return stop has no departure.
type RouteStop struct {
	Stop          string    `json:"stop"`
	Zipcode       string    `json:"zipcode"`
	ArrivalTime   Clock     `json:"arrival_time"`
	DepartureTime *Clock    `json:"departure_time,omitempty"`
	Address       string    `json:"address,omitempty"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	Priority      *Priority `json:"priority,omitempty"`
}

// SkippedDelivery is a delivery excluded from the route with the reason of
// its least-violating insertion attempt.
type SkippedDelivery struct {
	Address  string   `json:"address"`
	Zipcode  string   `json:"zipcode"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
}

// OptimizationMetrics summarizes a solve.
type OptimizationMetrics struct {
	ProcessingTimeSeconds float64    `json:"processing_time_seconds"`
	OptimizationMethod    OptimizeBy `json:"optimization_method"`
	TotalStops            int        `json:"total_stops"`
	SkippedStops          int        `json:"skipped_stops"`
}

// OptimizationResult is the optimize-route output payload. Infeasibility is
// a first-class result, never an error.
type OptimizationResult struct {
	Route             []RouteStop         `json:"route"`
	TotalDistanceKm   float64             `json:"total_distance_km"`
	TotalTimeMinutes  float64             `json:"total_time_minutes"`
	IsFeasible        bool                `json:"is_feasible"`
	SkippedDeliveries []SkippedDelivery   `json:"skipped_deliveries"`
	Metrics           OptimizationMetrics `json:"optimization_metrics"`
}

// MatrixRequest is the distance-matrix input payload. SpeedKmph defaults to
// the configured vehicle speed when zero.
type MatrixRequest struct {
	Points    []GeoPoint `json:"points"`
	SpeedKmph float64    `json:"speed_kmph,omitempty"`
}

// MatrixResponse carries pairwise distances (km) and travel times (minutes).
type MatrixResponse struct {
	Distances [][]float64 `json:"distances"`
	Times     [][]float64 `json:"times"`
	Points    []GeoPoint  `json:"points"`
}
