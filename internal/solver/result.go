package solver

import (
	"math"
	"time"

	"routeopt/internal/model"
)

// assemble converts a solved ordering and its schedule into the output
// payload: timestamped stops, leg totals, skip classification, and metrics.
func assemble(req model.RouteRequest, settings model.Settings, order []int, sched schedule, attempts []attempt, took time.Duration) model.OptimizationResult {
	stops := make([]model.RouteStop, 0, len(order)+2)

	// Depot departure: arrival and departure coincide, zero service time.
	depart := req.Pickup.StartTime
	stops = append(stops, model.RouteStop{
		Stop:          req.Pickup.Address,
		Zipcode:       req.Pickup.Zipcode,
		ArrivalTime:   req.Pickup.StartTime,
		DepartureTime: &depart,
		Address:       req.Pickup.Address,
		Lat:           req.Pickup.Lat,
		Lng:           req.Pickup.Lng,
	})

	included := make([]bool, len(req.Deliveries)+1)
	for pos, idx := range order {
		included[idx] = true
		d := req.Deliveries[idx-1]
		arrival := toClock(sched.arrivals[pos])
		departure := toClock(sched.departures[pos])
		prio := d.Priority
		stops = append(stops, model.RouteStop{
			Stop:          d.Address,
			Zipcode:       d.Zipcode,
			ArrivalTime:   arrival,
			DepartureTime: &departure,
			Address:       d.Address,
			Lat:           d.Lat,
			Lng:           d.Lng,
			Priority:      &prio,
		})
	}

	totalKm := sched.final.distKm
	totalMin := sched.final.clock - float64(req.Pickup.StartTime)
	if settings.ReturnToOrigin {
		totalKm += sched.returnKm
		totalMin += sched.returnMin
		stops = append(stops, model.RouteStop{
			Stop:        req.Pickup.Address + " (Return)",
			Zipcode:     req.Pickup.Zipcode,
			ArrivalTime: toClock(sched.returnAt),
			Address:     req.Pickup.Address,
			Lat:         req.Pickup.Lat,
			Lng:         req.Pickup.Lng,
		})
	}

	var skipped []model.SkippedDelivery
	highMissing := false
	for i, d := range req.Deliveries {
		if included[i+1] {
			continue
		}
		if d.Priority == model.PriorityHigh {
			highMissing = true
		}
		reason := attempts[i+1].reason
		if reason == "" {
			reason = ReasonTimeWindow
		}
		skipped = append(skipped, model.SkippedDelivery{
			Address:  d.Address,
			Zipcode:  d.Zipcode,
			Lat:      d.Lat,
			Lng:      d.Lng,
			Priority: d.Priority,
			Reason:   reason,
		})
	}
	if skipped == nil {
		skipped = []model.SkippedDelivery{}
	}

	// MEDIUM/LOW omissions are expected cost-minimizing skips; only a missed
	// HIGH delivery or a late return marks the whole result infeasible.
	feasible := !highMissing && sched.returnOK

	return model.OptimizationResult{
		Route:             stops,
		TotalDistanceKm:   totalKm,
		TotalTimeMinutes:  totalMin,
		IsFeasible:        feasible,
		SkippedDeliveries: skipped,
		Metrics: model.OptimizationMetrics{
			ProcessingTimeSeconds: took.Seconds(),
			OptimizationMethod:    settings.OptimizeBy,
			TotalStops:            len(stops),
			SkippedStops:          len(skipped),
		},
	}
}

func toClock(minutes float64) model.Clock {
	return model.Clock(int(math.Round(minutes)))
}
