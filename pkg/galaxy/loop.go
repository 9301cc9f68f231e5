package galaxy

import (
	"github.com/rs/zerolog/log"
)

// AITurnProcessor runs the AI decision layer for one tick. Implemented by
// the bot driver; the engine only knows the contract so that the loop can
// stay free of policy.
type AITurnProcessor interface {
	// ProcessAITurns applies AI decisions in place and reports whether
	// any decision executed.
	ProcessAITurns(s *State, rules Rules, currentTime int64) bool
}

// ProcessGameState advances a game to currentTime: resolves arrived
// armadas, drains due scheduled events, and runs the AI layer. It mutates
// the state in place and reports whether anything happened. LastUpdateTime
// only advances when the tick did work, which keeps idle re-simulations
// (after a version-conflict reload) from producing dirty saves.
func ProcessGameState(s *State, rules Rules, currentTime int64, ai AITurnProcessor) bool {
	changed := processArrivedArmadas(s, rules, currentTime)

	if drainDueEvents(s, rules, currentTime) {
		changed = true
	}

	if s.Status != StatusCompleted && ai != nil {
		if ai.ProcessAITurns(s, rules, currentTime) {
			changed = true
		}
	}

	if changed {
		s.LastUpdateTime = currentTime
	}
	return changed
}

// processArrivedArmadas resolves every armada whose arrival time has
// passed. Armadas are authoritative for arrival; the legacy armada_arrival
// queue entries are ignored by the event drain.
func processArrivedArmadas(s *State, rules Rules, currentTime int64) bool {
	var due []string
	for i := range s.Armadas {
		a := &s.Armadas[i]
		if a.DepartureTime > currentTime {
			// Clock skew: a departure in the future. Leave it for a
			// later tick to re-examine.
			log.Warn().Str("armadaId", a.ID).
				Int64("departureTime", a.DepartureTime).
				Int64("currentTime", currentTime).
				Msg("Armada departs in the future, skipping")
			continue
		}
		if currentTime-a.DepartureTime < rules.MinArmadaTravelTimeMs {
			// Freshly issued; never resolve inside the minimum travel
			// window.
			continue
		}
		if a.ArrivalTime <= currentTime {
			due = append(due, a.ID)
		}
	}

	for _, id := range due {
		if s.Status == StatusCompleted {
			break
		}
		HandleArmadaArrival(s, id, currentTime)
	}
	return len(due) > 0
}

// drainDueEvents pops and dispatches queued events whose scheduled time has
// passed. A resource tick reschedules itself strictly in the future, so at
// most one fires per invocation. Draining stops if the game completes.
func drainDueEvents(s *State, rules Rules, currentTime int64) bool {
	changed := false
	for {
		if s.Status == StatusCompleted {
			break
		}
		top, ok := s.EventQueue.Peek()
		if !ok || top.ScheduledTime > currentTime {
			break
		}
		ev, _ := s.EventQueue.Pop()

		switch ev.Type {
		case EventResourceTick:
			applyResourceTick(s, rules, currentTime)
			changed = true
		case EventGameEnd:
			endGame(s)
			changed = true
		case EventArmadaArrival:
			// Legacy entries from old saves; armadas carry their own
			// arrival times now.
		default:
			log.Warn().Str("eventType", string(ev.Type)).
				Int64("scheduledTime", ev.ScheduledTime).
				Msg("Unknown scheduled event type, dropping")
		}
	}
	return changed
}

// applyResourceTick credits each non-eliminated player with resources
// proportional to the total volume of their planets, then schedules the
// next tick.
func applyResourceTick(s *State, rules Rules, currentTime int64) {
	rate := s.ProductionRate
	if rate <= 0 {
		rate = rules.DefaultProductionRate
	}
	if s.PlayerResources == nil {
		s.PlayerResources = make(map[int]float64)
	}
	for _, p := range s.Players {
		if s.IsEliminated(p.SlotIndex) {
			continue
		}
		totalVolume := 0.0
		for i := range s.Planets {
			if s.Planets[i].OwnedBy(p.SlotIndex) {
				totalVolume += s.Planets[i].Volume
			}
		}
		s.PlayerResources[p.SlotIndex] += totalVolume * rate / rules.ResourceUpdatesPerMin
	}

	s.EventQueue.Push(ScheduledEvent{
		Type:          EventResourceTick,
		ScheduledTime: currentTime + rules.ResourceTickIntervalMs,
	})
}
