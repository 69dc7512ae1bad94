package solver

import (
	"routeopt/internal/config"
	"routeopt/internal/model"
)

// PriorityModel maps a delivery priority tier to an inclusion weight and a
// skip penalty. It is a pure function of configuration: weights decrease and
// skip penalties increase as priority worsens, with the missed-HIGH penalty
// dominating everything else.
type PriorityModel struct {
	cfg config.Priority
}

func NewPriorityModel(cfg config.Priority) PriorityModel {
	return PriorityModel{cfg: cfg}
}

// Weight returns the inclusion weight used by priority-objective scoring.
func (m PriorityModel) Weight(p model.Priority) float64 {
	switch p {
	case model.PriorityHigh:
		return m.cfg.HighWeight
	case model.PriorityMedium:
		return m.cfg.MediumWeight
	default:
		return m.cfg.LowWeight
	}
}

// Penalty returns the cost of leaving a delivery out of the route. The exact
// MEDIUM/LOW trade-off is a tunable from configuration, not hard-coded; only
// the ordering (HIGH largest) is guaranteed.
func (m PriorityModel) Penalty(p model.Priority) float64 {
	switch p {
	case model.PriorityHigh:
		return m.cfg.MissingHighPenalty
	case model.PriorityMedium:
		return m.cfg.MediumWeight
	default:
		return m.cfg.LowWeight
	}
}
