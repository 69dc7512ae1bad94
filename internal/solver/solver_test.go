package solver

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"

	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/model"
)

func testConfig() config.Config {
	return config.Config{
		Routing: testRouting(),
		Priority: config.Priority{
			HighWeight:         1000,
			MediumWeight:       100,
			LowWeight:          1,
			MissingHighPenalty: 10000,
		},
	}
}

func baseRequest(t *testing.T, settings model.Settings, deliveries ...model.Delivery) model.RouteRequest {
	t.Helper()
	return model.RouteRequest{
		Pickup: model.Pickup{
			Address:   "Depot",
			Zipcode:   "85009",
			StartTime: mustClock(t, "08:00"),
			EndTime:   mustClock(t, "18:00"),
		},
		Settings:   settings,
		Deliveries: deliveries,
	}
}

// Scenario: a single reachable delivery inside its window yields the full
// route with no skips.
func TestSolveSingleReachableDelivery(t *testing.T) {
	eng := New(testConfig())
	req := baseRequest(t,
		model.Settings{ReturnToOrigin: true, TimePerStopMinutes: 10, VehicleSpeedKmph: 60, OptimizeBy: model.OptimizePriority},
		delivery(t, 0, 0.1, model.PriorityHigh, "08:00", "12:00"),
	)

	res, err := eng.Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.IsFeasible {
		t.Error("IsFeasible = false")
	}
	if len(res.SkippedDeliveries) != 0 {
		t.Errorf("skipped = %v, want none", res.SkippedDeliveries)
	}
	if len(res.Route) != 3 {
		t.Fatalf("route has %d stops, want 3 (depot, delivery, return)", len(res.Route))
	}
	if res.Route[0].Stop != "Depot" || res.Route[2].Stop != "Depot (Return)" {
		t.Errorf("route endpoints = %q / %q", res.Route[0].Stop, res.Route[2].Stop)
	}
	if res.Route[1].Priority == nil || *res.Route[1].Priority != model.PriorityHigh {
		t.Error("delivery stop should carry its priority")
	}
	if res.Route[2].DepartureTime != nil {
		t.Error("return stop should have no departure")
	}
}

// Scenario: a HIGH delivery whose window closes before it is reachable is
// skipped and the result is infeasible.
func TestSolveUnreachableHighIsInfeasible(t *testing.T) {
	eng := New(testConfig())
	req := baseRequest(t,
		model.Settings{TimePerStopMinutes: 10, VehicleSpeedKmph: 40, OptimizeBy: model.OptimizePriority},
		delivery(t, 0, 1.0, model.PriorityHigh, "08:00", "09:00"),
	)

	res, err := eng.Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.IsFeasible {
		t.Error("IsFeasible = true with a skipped HIGH delivery")
	}
	if len(res.SkippedDeliveries) != 1 {
		t.Fatalf("skipped = %d, want 1", len(res.SkippedDeliveries))
	}
	if res.SkippedDeliveries[0].Reason != ReasonTimeWindow {
		t.Errorf("reason = %q, want %q", res.SkippedDeliveries[0].Reason, ReasonTimeWindow)
	}
	if len(res.Route) != 1 {
		t.Errorf("route has %d stops, want only the depot", len(res.Route))
	}
}

// Scenario: with a distance cap fitting only one delivery, the HIGH delivery
// wins and the LOW one is skipped for the cap, leaving the result feasible.
func TestSolveDistanceCapPrefersHigh(t *testing.T) {
	cfg := testConfig()
	cfg.Routing.MaxRouteDistanceKm = 100
	eng := New(cfg)
	req := baseRequest(t,
		model.Settings{TimePerStopMinutes: 10, VehicleSpeedKmph: 60, OptimizeBy: model.OptimizePriority},
		delivery(t, 0, 0.5, model.PriorityHigh, "08:00", "18:00"),
		delivery(t, 0.5, 0, model.PriorityLow, "08:00", "18:00"),
	)

	res, err := eng.Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.IsFeasible {
		t.Error("IsFeasible = false; LOW skips are expected omissions")
	}
	if len(res.SkippedDeliveries) != 1 {
		t.Fatalf("skipped = %d, want 1", len(res.SkippedDeliveries))
	}
	sk := res.SkippedDeliveries[0]
	if sk.Priority != model.PriorityLow {
		t.Errorf("skipped priority = %d, want LOW", sk.Priority)
	}
	if sk.Reason != ReasonMaxDistance {
		t.Errorf("reason = %q, want %q", sk.Reason, ReasonMaxDistance)
	}
	if len(res.Route) != 2 {
		t.Errorf("route has %d stops, want depot + HIGH delivery", len(res.Route))
	}
}

// Scenario: distance and priority objectives produce different orderings on
// conflicting nearest-vs-priority input, and the priority ordering never
// omits a reachable HIGH stop the distance ordering reaches.
func TestSolveObjectivesDiverge(t *testing.T) {
	eng := New(testConfig())
	far := delivery(t, 0, 0.9, model.PriorityHigh, "08:00", "18:00")
	near := delivery(t, 0, 0.1, model.PriorityLow, "08:00", "18:00")

	byDist := baseRequest(t, model.Settings{TimePerStopMinutes: 10, VehicleSpeedKmph: 60, OptimizeBy: model.OptimizeDistance}, far, near)
	byPrio := baseRequest(t, model.Settings{TimePerStopMinutes: 10, VehicleSpeedKmph: 60, OptimizeBy: model.OptimizePriority}, far, near)

	distRes, err := eng.Solve(context.Background(), byDist)
	if err != nil {
		t.Fatalf("Solve(distance): %v", err)
	}
	prioRes, err := eng.Solve(context.Background(), byPrio)
	if err != nil {
		t.Fatalf("Solve(priority): %v", err)
	}

	distOrder := stopKeys(distRes)
	prioOrder := stopKeys(prioRes)
	if reflect.DeepEqual(distOrder, prioOrder) {
		t.Errorf("orderings should differ, both = %v", distOrder)
	}
	if distRes.TotalDistanceKm == prioRes.TotalDistanceKm {
		t.Error("distances should differ")
	}
	for _, sk := range prioRes.SkippedDeliveries {
		if sk.Priority == model.PriorityHigh {
			t.Error("priority ordering skipped a HIGH stop the distance ordering reached")
		}
	}
	if !prioRes.IsFeasible {
		t.Error("priority solve should be feasible")
	}
}

// Consecutive-stop timing, service-time, and leg-sum properties hold for a
// multi-stop solve.
func TestSolveScheduleProperties(t *testing.T) {
	eng := New(testConfig())
	req := baseRequest(t,
		model.Settings{ReturnToOrigin: true, TimePerStopMinutes: 10, VehicleSpeedKmph: 60, OptimizeBy: model.OptimizeDistance},
		delivery(t, 0, 0.1, model.PriorityMedium, "08:00", "18:00"),
		delivery(t, 0.1, 0.1, model.PriorityHigh, "08:00", "18:00"),
		delivery(t, 0.1, 0, model.PriorityLow, "09:00", "18:00"),
	)

	res, err := eng.Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.IsFeasible {
		t.Fatalf("IsFeasible = false: %+v", res.SkippedDeliveries)
	}

	for i := 0; i < len(res.Route)-1; i++ {
		cur, next := res.Route[i], res.Route[i+1]
		if cur.DepartureTime == nil {
			t.Fatalf("stop %d missing departure", i)
		}
		if *cur.DepartureTime > next.ArrivalTime {
			t.Errorf("stop %d departs %v after stop %d arrives %v", i, cur.DepartureTime, i+1, next.ArrivalTime)
		}
	}
	for i := 1; i < len(res.Route); i++ {
		st := res.Route[i]
		if st.DepartureTime == nil {
			continue // final return stop
		}
		if got := int(*st.DepartureTime - st.ArrivalTime); got != 10 {
			t.Errorf("stop %d service time = %d, want 10", i, got)
		}
	}

	var legSum float64
	for i := 0; i < len(res.Route)-1; i++ {
		a := model.GeoPoint{Lat: res.Route[i].Lat, Lng: res.Route[i].Lng}
		b := model.GeoPoint{Lat: res.Route[i+1].Lat, Lng: res.Route[i+1].Lng}
		legSum += geo.DistanceKm(a, b)
	}
	if math.Abs(legSum-res.TotalDistanceKm) > 1e-6 {
		t.Errorf("leg sum %f != total %f", legSum, res.TotalDistanceKm)
	}

	travelMin := legSum // 60 km/h, one km per minute
	serviceMin := float64(10 * len(req.Deliveries))
	if res.TotalTimeMinutes+1e-6 < travelMin+serviceMin {
		t.Errorf("total time %f < travel %f + service %f", res.TotalTimeMinutes, travelMin, serviceMin)
	}
}

// Re-solving identical input yields identical ordering and feasibility.
func TestSolveDeterministic(t *testing.T) {
	eng := New(testConfig())
	req := baseRequest(t,
		model.Settings{ReturnToOrigin: true, TimePerStopMinutes: 5, VehicleSpeedKmph: 50, OptimizeBy: model.OptimizePriority},
		delivery(t, 0, 0.2, model.PriorityLow, "08:00", "18:00"),
		delivery(t, 0.1, 0.1, model.PriorityHigh, "08:00", "18:00"),
		delivery(t, 0.2, 0, model.PriorityMedium, "08:00", "18:00"),
		delivery(t, 0.1, 0.3, model.PriorityMedium, "09:00", "17:00"),
	)

	first, err := eng.Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := eng.Solve(context.Background(), req)
		if err != nil {
			t.Fatalf("Solve: %v", err)
		}
		if !reflect.DeepEqual(stopKeys(first), stopKeys(again)) {
			t.Fatalf("ordering changed between identical solves")
		}
		if first.IsFeasible != again.IsFeasible {
			t.Fatalf("feasibility changed between identical solves")
		}
	}
}

// A delivery whose window opens late forces a wait that shows up in total
// time but not distance.
func TestSolveWaitingCountsInTimeOnly(t *testing.T) {
	eng := New(testConfig())
	req := baseRequest(t,
		model.Settings{TimePerStopMinutes: 10, VehicleSpeedKmph: 60, OptimizeBy: model.OptimizeTime},
		delivery(t, 0, 0.1, model.PriorityHigh, "10:00", "12:00"),
	)

	res, err := eng.Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.IsFeasible {
		t.Fatal("IsFeasible = false")
	}
	if res.Route[1].ArrivalTime.String() != "10:00" {
		t.Errorf("arrival = %s, want 10:00 (waited for window)", res.Route[1].ArrivalTime)
	}
	// ~11 min travel + ~109 min wait + 10 min service.
	if res.TotalTimeMinutes < 125 {
		t.Errorf("total time %f should include the wait", res.TotalTimeMinutes)
	}
	if res.TotalDistanceKm > 12 {
		t.Errorf("distance %f should not include wait", res.TotalDistanceKm)
	}
}

// Settings defaults come from process configuration when the request leaves
// them unset.
func TestSolveAppliesDefaults(t *testing.T) {
	eng := New(testConfig())
	req := baseRequest(t,
		model.Settings{}, // defaults: 10 min service, 50 km/h, priority
		delivery(t, 0, 0.1, model.PriorityHigh, "08:00", "12:00"),
	)

	res, err := eng.Solve(context.Background(), req)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Metrics.OptimizationMethod != model.OptimizePriority {
		t.Errorf("method = %s, want priority default", res.Metrics.OptimizationMethod)
	}
	st := res.Route[1]
	if got := int(*st.DepartureTime - st.ArrivalTime); got != 10 {
		t.Errorf("default service time = %d, want 10", got)
	}
}

func stopKeys(res model.OptimizationResult) []string {
	out := make([]string, 0, len(res.Route))
	for _, s := range res.Route {
		out = append(out, fmt.Sprintf("%.3f,%.3f", s.Lat, s.Lng))
	}
	return out
}
