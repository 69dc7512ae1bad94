package solver

import (
	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/model"
)

// Rejection reasons, in check order. A candidate is diagnosed with the first
// constraint it violates.
const (
	ReasonTimeWindow  = "time_window_violated"
	ReasonMaxDistance = "max_distance_exceeded"
	ReasonMaxTime     = "max_time_exceeded"
	ReasonReturn      = "return_infeasible"
)

// reasonRank orders reasons by how far a candidate got through the checks.
// Higher rank means the attempt was closer to admissible.
func reasonRank(reason string) int {
	switch reason {
	case ReasonTimeWindow:
		return 0
	case ReasonMaxDistance:
		return 1
	case ReasonMaxTime:
		return 2
	case ReasonReturn:
		return 3
	}
	return -1
}

// state tracks the vehicle between stops: current matrix index, wall clock,
// minutes elapsed since departure (travel + wait + service), and cumulative
// distance.
type state struct {
	at      int
	clock   float64
	elapsed float64
	distKm  float64
}

// admission is the effect of appending one candidate to the route so far.
type admission struct {
	arrival   float64
	wait      float64
	departure float64
	legKm     float64
	legMin    float64
	next      state
}

// checker evaluates hard constraints for one solve. Matrix index 0 is the
// pickup; index i+1 is deliveries[i].
type checker struct {
	mat      *geo.Matrix
	windows  []model.TimeWindow
	service  float64
	maxKm    float64
	maxMin   float64
	returnTo bool
	returnBy float64 // buffered admission deadline for arriving back
	closeAt  float64 // pickup window end, the hard return deadline
	startAt  float64
}

func newChecker(mat *geo.Matrix, req model.RouteRequest, settings model.Settings, routing config.Routing) *checker {
	windows := make([]model.TimeWindow, len(mat.Points))
	windows[0] = model.TimeWindow{Start: req.Pickup.StartTime, End: req.Pickup.EndTime}
	for i, d := range req.Deliveries {
		windows[i+1] = d.TimeWindow
	}
	return &checker{
		mat:      mat,
		windows:  windows,
		service:  float64(settings.TimePerStopMinutes),
		maxKm:    routing.MaxRouteDistanceKm,
		maxMin:   routing.MaxTravelTimeHours * 60,
		returnTo: settings.ReturnToOrigin,
		returnBy: float64(req.Pickup.EndTime) - routing.BufferTimeMinutes,
		closeAt:  float64(req.Pickup.EndTime),
		startAt:  float64(req.Pickup.StartTime),
	}
}

func (c *checker) start() state {
	return state{at: 0, clock: c.startAt}
}

// check decides whether appending cand keeps the route within all hard
// constraints. It returns the admission with updated figures, or the
// first-triggered rejection reason.
func (c *checker) check(st state, cand int) (admission, string) {
	legKm := c.mat.DistKm[st.at][cand]
	legMin := c.mat.Minutes[st.at][cand]
	w := c.windows[cand]

	arrival := st.clock + legMin
	if arrival > float64(w.End) {
		return admission{}, ReasonTimeWindow
	}
	// Early arrival waits for the window to open. Waiting is free but still
	// counts toward the elapsed-time cap.
	wait := 0.0
	if arrival < float64(w.Start) {
		wait = float64(w.Start) - arrival
		arrival = float64(w.Start)
	}

	if st.distKm+legKm > c.maxKm {
		return admission{}, ReasonMaxDistance
	}

	elapsed := st.elapsed + legMin + wait
	if elapsed > c.maxMin {
		return admission{}, ReasonMaxTime
	}

	departure := arrival + c.service
	if c.returnTo {
		if departure+c.mat.Minutes[cand][0] > c.returnBy {
			return admission{}, ReasonReturn
		}
	}

	return admission{
		arrival:   arrival,
		wait:      wait,
		departure: departure,
		legKm:     legKm,
		legMin:    legMin,
		next: state{
			at:      cand,
			clock:   departure,
			elapsed: elapsed + c.service,
			distKm:  st.distKm + legKm,
		},
	}, ""
}

// schedule is a fully propagated timetable for an ordering.
type schedule struct {
	arrivals   []float64
	waits      []float64
	departures []float64
	final      state
	returnKm   float64
	returnMin  float64
	returnAt   float64
	returnOK   bool
}

// simulate propagates the whole ordering from the depot. On a constraint
// violation it reports the reason and the position of the offending stop.
func (c *checker) simulate(order []int) (schedule, string, int) {
	sched := schedule{
		arrivals:   make([]float64, len(order)),
		waits:      make([]float64, len(order)),
		departures: make([]float64, len(order)),
		returnOK:   true,
	}
	st := c.start()
	for pos, cand := range order {
		adm, reason := c.check(st, cand)
		if reason != "" {
			return schedule{}, reason, pos
		}
		sched.arrivals[pos] = adm.arrival
		sched.waits[pos] = adm.wait
		sched.departures[pos] = adm.departure
		st = adm.next
	}
	sched.final = st
	if c.returnTo {
		sched.returnKm = c.mat.DistKm[st.at][0]
		sched.returnMin = c.mat.Minutes[st.at][0]
		sched.returnAt = st.clock + sched.returnMin
		// Invariant: every admitted stop already satisfied the buffered
		// deadline (returnBy <= closeAt), so a cleanly simulated order
		// always returns on time. returnOK records the verdict against the
		// unbuffered window end for the result's feasibility flag.
		sched.returnOK = sched.returnAt <= c.closeAt
	}
	return sched, "", -1
}
