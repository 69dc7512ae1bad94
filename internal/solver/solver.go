// Package solver implements the route optimization engine: a deterministic
// construction heuristic followed by a bounded local-search improvement
// phase, solving a single-vehicle routing problem with time windows and soft
// priority objectives.
package solver

import (
	"context"
	"fmt"
	"math"
	"time"

	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/model"
)

// Solver produces an objective-optimized visiting order for a route request.
// It is a small interface so a constraint-programming backend could be
// substituted without changing callers.
type Solver interface {
	Solve(ctx context.Context, req model.RouteRequest) (model.OptimizationResult, error)
}

// Engine is the construction + local-search heuristic solver. It holds only
// immutable configuration; every solve builds its own working state, so one
// Engine may serve concurrent requests without locking.
type Engine struct {
	routing  config.Routing
	priority PriorityModel

	// improveIterations bounds the improvement phase to keep latency
	// predictable; it is the sole internal cutoff.
	improveIterations int
}

const defaultImproveIterations = 64

func New(cfg config.Config) *Engine {
	return &Engine{
		routing:           cfg.Routing,
		priority:          NewPriorityModel(cfg.Priority),
		improveIterations: defaultImproveIterations,
	}
}

// attempt remembers the least-violating insertion attempt per delivery: the
// rejection that got furthest through the feasibility checks.
type attempt struct {
	rank   int
	reason string
}

func recordAttempt(attempts []attempt, cand int, reason string) {
	if r := reasonRank(reason); r > attempts[cand].rank {
		attempts[cand] = attempt{rank: r, reason: reason}
	}
}

// Solve runs construction, improvement, and assembly for one request. The
// input is assumed validated by the gateway; the only error paths are
// configuration-grade (an unusable speed reaching matrix construction).
func (e *Engine) Solve(ctx context.Context, req model.RouteRequest) (model.OptimizationResult, error) {
	started := time.Now()
	settings := e.applyDefaults(req.Settings)

	points := make([]model.GeoPoint, 0, len(req.Deliveries)+1)
	points = append(points, req.Pickup.Point())
	for _, d := range req.Deliveries {
		points = append(points, d.Point())
	}
	mat, err := geo.BuildMatrix(points, settings.VehicleSpeedKmph)
	if err != nil {
		return model.OptimizationResult{}, fmt.Errorf("solve: %w", err)
	}

	chk := newChecker(mat, req, settings, e.routing)
	attempts := make([]attempt, len(points))
	for i := range attempts {
		attempts[i].rank = -1
	}

	order := e.construct(chk, req, settings, attempts)
	order = e.improve(ctx, chk, settings.OptimizeBy, order, len(req.Deliveries), attempts)

	sched, reason, pos := chk.simulate(order)
	if reason != "" {
		// Cannot happen for an order built of admitted candidates.
		return model.OptimizationResult{}, fmt.Errorf("solve: inconsistent schedule at %d: %s", pos, reason)
	}
	return assemble(req, settings, order, sched, attempts, time.Since(started)), nil
}

// applyDefaults fills unset per-request knobs from process configuration.
func (e *Engine) applyDefaults(s model.Settings) model.Settings {
	if s.TimePerStopMinutes <= 0 {
		s.TimePerStopMinutes = e.routing.DefaultServiceTimeMinutes
	}
	if s.VehicleSpeedKmph <= 0 {
		s.VehicleSpeedKmph = e.routing.DefaultSpeedKmh
	}
	if s.OptimizeBy == "" {
		s.OptimizeBy = model.OptimizePriority
	}
	return s
}

// construct greedily appends the best-scoring feasible candidate until no
// candidate is admissible. Infeasible candidates are deferred, not skipped;
// the improvement phase may still admit them in a different position.
func (e *Engine) construct(chk *checker, req model.RouteRequest, settings model.Settings, attempts []attempt) []int {
	n := len(req.Deliveries)
	remaining := make([]bool, n+1)
	for i := 1; i <= n; i++ {
		remaining[i] = true
	}

	var order []int
	st := chk.start()
	for {
		best := -1
		var bestAdm admission
		bestScore := math.Inf(-1)
		for cand := 1; cand <= n; cand++ {
			if !remaining[cand] {
				continue
			}
			adm, reason := chk.check(st, cand)
			if reason != "" {
				recordAttempt(attempts, cand, reason)
				continue
			}
			score := e.score(settings.OptimizeBy, req.Deliveries[cand-1].Priority, adm)
			if best == -1 || score > bestScore ||
				(score == bestScore && e.tieBreak(chk, adm, cand, bestAdm, best)) {
				best = cand
				bestAdm = adm
				bestScore = score
			}
		}
		if best == -1 {
			break
		}
		order = append(order, best)
		remaining[best] = false
		st = bestAdm.next
	}
	return order
}

// score rates appending a candidate under the chosen objective. The time
// objective is computed from travel minutes rather than derived from
// distance, keeping the objectives decoupled.
func (e *Engine) score(by model.OptimizeBy, p model.Priority, adm admission) float64 {
	switch by {
	case model.OptimizeDistance:
		return -adm.legKm
	case model.OptimizeTime:
		return -adm.legMin
	default:
		return e.priority.Weight(p) / (1 + adm.legKm)
	}
}

// tieBreak prefers the shorter leg, then the more urgent window, then the
// lower index, keeping construction deterministic.
func (e *Engine) tieBreak(chk *checker, adm admission, cand int, bestAdm admission, best int) bool {
	if adm.legKm != bestAdm.legKm {
		return adm.legKm < bestAdm.legKm
	}
	if chk.windows[cand].End != chk.windows[best].End {
		return chk.windows[cand].End < chk.windows[best].End
	}
	return cand < best
}

// improve runs a bounded local search: first it tries to admit deferred
// deliveries by insertion, then, under the distance and time objectives,
// reduces route cost with relocate and pairwise-swap moves. The priority
// objective only gains admissions, so its priority-first ordering stands.
// Every accepted move must keep the full schedule feasible, which means
// HIGH-priority coverage never decreases.
func (e *Engine) improve(ctx context.Context, chk *checker, by model.OptimizeBy, order []int, n int, attempts []attempt) []int {
	best := append([]int(nil), order...)
	bestCost := e.orderCost(chk, by, best)

	for iter := 0; iter < e.improveIterations; iter++ {
		if ctx.Err() != nil {
			break
		}
		improved := false

		// Admission pass: membership only grows, so any feasible insertion
		// is an improvement regardless of cost.
		in := make([]bool, n+1)
		for _, idx := range best {
			in[idx] = true
		}
		for cand := 1; cand <= n; cand++ {
			if in[cand] {
				continue
			}
			pos, ok := e.bestInsertion(chk, by, best, cand, attempts)
			if !ok {
				continue
			}
			best = insertAt(best, pos, cand)
			bestCost = e.orderCost(chk, by, best)
			in[cand] = true
			improved = true
		}

		if by == model.OptimizeDistance || by == model.OptimizeTime {
			// Relocate pass.
			for i := 0; i < len(best); i++ {
				for j := 0; j <= len(best); j++ {
					if j == i || j == i+1 {
						continue
					}
					cand := relocate(best, i, j)
					if c := e.orderCost(chk, by, cand); c+1e-9 < bestCost {
						best = cand
						bestCost = c
						improved = true
					}
				}
			}

			// Pairwise swap pass.
			for i := 0; i < len(best); i++ {
				for j := i + 1; j < len(best); j++ {
					cand := append([]int(nil), best...)
					cand[i], cand[j] = cand[j], cand[i]
					if c := e.orderCost(chk, by, cand); c+1e-9 < bestCost {
						best = cand
						bestCost = c
						improved = true
					}
				}
			}
		}

		if !improved {
			break
		}
	}
	return best
}

// bestInsertion finds the cheapest feasible position for a deferred
// delivery, recording the least-violating rejection when none exists.
func (e *Engine) bestInsertion(chk *checker, by model.OptimizeBy, order []int, cand int, attempts []attempt) (int, bool) {
	bestPos := -1
	bestCost := math.Inf(1)
	for pos := 0; pos <= len(order); pos++ {
		trial := insertAt(order, pos, cand)
		_, reason, failPos := chk.simulate(trial)
		if reason != "" {
			// Only the inserted stop's own rejection diagnoses the candidate;
			// a later stop failing means this position disturbs the schedule.
			if failPos == pos {
				recordAttempt(attempts, cand, reason)
			}
			continue
		}
		if c := e.orderCost(chk, by, trial); c < bestCost {
			bestCost = c
			bestPos = pos
		}
	}
	return bestPos, bestPos >= 0
}

// orderCost rates a whole ordering for move acceptance: total travel minutes
// under the time objective, total distance including the return leg
// otherwise. Infeasible orderings cost infinity.
func (e *Engine) orderCost(chk *checker, by model.OptimizeBy, order []int) float64 {
	sched, reason, _ := chk.simulate(order)
	if reason != "" {
		return math.Inf(1)
	}
	if by == model.OptimizeTime {
		return sched.final.clock - chk.startAt + sched.returnMin
	}
	return sched.final.distKm + sched.returnKm
}

func insertAt(order []int, pos, v int) []int {
	out := make([]int, 0, len(order)+1)
	out = append(out, order[:pos]...)
	out = append(out, v)
	out = append(out, order[pos:]...)
	return out
}

func relocate(order []int, from, to int) []int {
	v := order[from]
	tmp := make([]int, 0, len(order))
	tmp = append(tmp, order[:from]...)
	tmp = append(tmp, order[from+1:]...)
	if to > from {
		to--
	}
	return insertAt(tmp, to, v)
}
