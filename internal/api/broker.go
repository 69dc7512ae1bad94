package api

import (
	"sync"
	"time"
)

// Solve lifecycle event types.
const (
	EventSolveStarted    = "solve.started"
	EventSolveCompleted  = "solve.completed"
	EventSolveInfeasible = "solve.infeasible"
)

// SolveEvent is one solve lifecycle event fanned out to SSE and WebSocket
// subscribers. Outcome fields are only set on completion events.
type SolveEvent struct {
	Type            string    `json:"type"`
	SolveID         string    `json:"solveId"`
	Ts              time.Time `json:"ts"`
	Deliveries      int       `json:"deliveries,omitempty"`
	Feasible        *bool     `json:"feasible,omitempty"`
	TotalDistanceKm *float64  `json:"totalDistanceKm,omitempty"`
	Skipped         *int      `json:"skipped,omitempty"`
}

// startedEvent announces that a solve began for the given request size.
func startedEvent(solveID string, deliveries int) SolveEvent {
	return SolveEvent{
		Type:       EventSolveStarted,
		SolveID:    solveID,
		Ts:         time.Now().UTC(),
		Deliveries: deliveries,
	}
}

// finishedEvent reports the solve outcome, typed by feasibility.
func finishedEvent(solveID string, feasible bool, totalKm float64, skipped int) SolveEvent {
	typ := EventSolveCompleted
	if !feasible {
		typ = EventSolveInfeasible
	}
	return SolveEvent{
		Type:            typ,
		SolveID:         solveID,
		Ts:              time.Now().UTC(),
		Feasible:        &feasible,
		TotalDistanceKm: &totalKm,
		Skipped:         &skipped,
	}
}

// EventBroker fans solve lifecycle events out to stream subscribers.
// Subscribe returns the event channel and a cancel function; cancel is the
// only way to end a subscription, and the channel is closed exactly once.
type EventBroker interface {
	Subscribe(solveID string) (<-chan SolveEvent, func())
	Publish(solveID string, evt SolveEvent)
}

// Broker is the in-memory event fanout used when no REDIS_URL is set.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SolveEvent]struct{} // solveId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SolveEvent]struct{}{}}
}

func (b *Broker) Subscribe(solveID string) (<-chan SolveEvent, func()) {
	ch := make(chan SolveEvent, 8)
	b.mu.Lock()
	if b.subs[solveID] == nil {
		b.subs[solveID] = map[chan SolveEvent]struct{}{}
	}
	b.subs[solveID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if m := b.subs[solveID]; m != nil {
				delete(m, ch)
				if len(m) == 0 {
					delete(b.subs, solveID)
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers to current subscribers, dropping events a slow consumer
// cannot buffer rather than blocking the solve path.
func (b *Broker) Publish(solveID string, evt SolveEvent) {
	b.mu.Lock()
	for ch := range b.subs[solveID] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
