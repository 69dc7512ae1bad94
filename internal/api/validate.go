package api

import (
	"fmt"

	"routeopt/internal/geo"
	"routeopt/internal/model"
)

func validateRouteRequest(req *model.RouteRequest) error {
	if !geo.ValidCoordinates(req.Pickup.Lat, req.Pickup.Lng) {
		return fmt.Errorf("pickup coordinates out of range: %v,%v", req.Pickup.Lat, req.Pickup.Lng)
	}
	if req.Pickup.StartTime >= req.Pickup.EndTime {
		return fmt.Errorf("pickup window start must precede end")
	}
	if len(req.Deliveries) == 0 {
		return fmt.Errorf("at least one delivery is required")
	}
	for i, d := range req.Deliveries {
		if !geo.ValidCoordinates(d.Lat, d.Lng) {
			return fmt.Errorf("delivery %d coordinates out of range: %v,%v", i, d.Lat, d.Lng)
		}
		if !d.Priority.Valid() {
			return fmt.Errorf("delivery %d has invalid priority %d (allowed: 1=HIGH, 2=MEDIUM, 3=LOW)", i, d.Priority)
		}
		if d.TimeWindow.Start >= d.TimeWindow.End {
			return fmt.Errorf("delivery %d time window start must precede end", i)
		}
	}
	s := req.Settings
	if s.VehicleSpeedKmph < 0 || s.VehicleSpeedKmph > 200 {
		return fmt.Errorf("vehicle_speed_kmph must be in (0,200], got %v", s.VehicleSpeedKmph)
	}
	if s.TimePerStopMinutes < 0 || s.TimePerStopMinutes > 120 {
		return fmt.Errorf("time_per_stop_minutes must be in [1,120], got %d", s.TimePerStopMinutes)
	}
	if s.OptimizeBy != "" && !s.OptimizeBy.Valid() {
		return fmt.Errorf("invalid optimize_by: %s (allowed: distance,time,priority)", s.OptimizeBy)
	}
	return nil
}

func validateMatrixRequest(req *model.MatrixRequest) error {
	if len(req.Points) < 2 {
		return fmt.Errorf("at least two points are required")
	}
	for i, p := range req.Points {
		if !geo.ValidCoordinates(p.Lat, p.Lng) {
			return fmt.Errorf("point %d coordinates out of range: %v,%v", i, p.Lat, p.Lng)
		}
	}
	if req.SpeedKmph < 0 || req.SpeedKmph > 200 {
		return fmt.Errorf("speed_kmph must be in (0,200], got %v", req.SpeedKmph)
	}
	return nil
}
