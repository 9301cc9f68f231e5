package bot

import (
	"math"

	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// attackCandidate is a scored (source, target) pair.
type attackCandidate struct {
	source *galaxy.Planet
	target *galaxy.Planet
	score  float64
}

// planAttack selects an attack for the slot, or nil if no target clears the
// thresholds. Source is the owned planet with the most ships above the
// minimum; targets are scored to favour weak, nearby, high-volume and
// neutral planets.
func planAttack(s *galaxy.State, p Params, slot int, hard bool) *SendArmada {
	source := pickSource(s, p, slot, hard)
	if source == nil {
		return nil
	}

	var best *galaxy.Planet
	bestScore := math.Inf(-1)
	for i := range s.Planets {
		target := &s.Planets[i]
		if target.OwnedBy(slot) {
			continue
		}
		if source.Ships <= target.Ships+p.AttackMinAdvantage {
			continue
		}
		score := scoreTarget(source, target)
		if score > bestScore {
			bestScore = score
			best = target
		}
	}
	if best == nil {
		return nil
	}

	ships := shipsToSend(source, best, p)
	if ships < p.AttackMinShipsToSend {
		return nil
	}
	return &SendArmada{SourcePlanetID: source.ID, TargetPlanetID: best.ID, Ships: ships}
}

// pickSource returns the owned planet with the most ships at or above the
// difficulty's minimum. Hard falls back to any planet with at least two
// ships rather than sitting idle.
func pickSource(s *galaxy.State, p Params, slot int, hard bool) *galaxy.Planet {
	best := strongestAbove(s, slot, p.AttackMinSourceShips)
	if best == nil && hard {
		best = strongestAbove(s, slot, 2)
	}
	return best
}

func strongestAbove(s *galaxy.State, slot, minShips int) *galaxy.Planet {
	var best *galaxy.Planet
	for i := range s.Planets {
		planet := &s.Planets[i]
		if !planet.OwnedBy(slot) || planet.Ships < minShips {
			continue
		}
		if best == nil || planet.Ships > best.Ships {
			best = planet
		}
	}
	return best
}

// scoreTarget ranks a target: fewer defenders and shorter distance are
// better, neutrals get a bonus, richer planets are worth more.
func scoreTarget(source, target *galaxy.Planet) float64 {
	score := -10 * float64(target.Ships)
	if target.OwnerSlot == nil {
		score += 20
	}
	score -= source.Position.Distance(target.Position) / 10
	score += target.Volume / 5
	return score
}

// shipsToSend sizes the strike: enough to overwhelm the garrison plus the
// advantage margin, capped by what the source can spare over its defense
// buffer.
func shipsToSend(source, target *galaxy.Planet, p Params) int {
	want := int(math.Floor(1.5*float64(target.Ships))) + p.AttackMinAdvantage
	if want < p.AttackMinShipsToSend {
		want = p.AttackMinShipsToSend
	}
	available := source.Ships - p.AttackDefenseBuffer
	if want > available {
		want = available
	}
	return want
}

// planFallbackAttack is the hard AI's last resort when the scored attack
// found nothing: the strongest planet strikes the weakest foreign planet it
// can still cover ship for ship.
func planFallbackAttack(s *galaxy.State, p Params, slot int) *SendArmada {
	source := strongestAbove(s, slot, 2)
	if source == nil {
		return nil
	}

	var best *galaxy.Planet
	for i := range s.Planets {
		target := &s.Planets[i]
		if target.OwnedBy(slot) {
			continue
		}
		ships := target.Ships
		if ships < p.AttackMinShipsToSend {
			ships = p.AttackMinShipsToSend
		}
		if ships > source.Ships-p.AttackDefenseBuffer {
			continue
		}
		if best == nil || target.Ships < best.Ships {
			best = target
		}
	}
	if best == nil {
		return nil
	}

	ships := best.Ships
	if ships < p.AttackMinShipsToSend {
		ships = p.AttackMinShipsToSend
	}
	return &SendArmada{SourcePlanetID: source.ID, TargetPlanetID: best.ID, Ships: ships}
}
