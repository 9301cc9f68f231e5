package bot

import (
	"math"

	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// planBuild selects a build for the slot, or nil if the resource pool is
// below the difficulty's spending threshold. Weakly garrisoned planets get
// reinforced first.
func planBuild(s *galaxy.State, rules galaxy.Rules, p Params, slot int) *BuildShips {
	resources := s.PlayerResources[slot]
	if resources < rules.ShipCost*p.BuildResourceMultiplier {
		return nil
	}

	owned := s.PlanetsOwnedBy(slot)
	if len(owned) == 0 {
		return nil
	}

	candidates := owned
	if len(owned) > 1 {
		var weak []*galaxy.Planet
		for _, planet := range owned {
			if planet.Ships <= p.BuildMinShipsOnPlanet {
				weak = append(weak, planet)
			}
		}
		if len(weak) > 0 {
			candidates = weak
		}
	}

	target := candidates[0]
	for _, planet := range candidates[1:] {
		if planet.Ships < target.Ships {
			target = planet
		}
	}

	count := int(math.Floor(resources / rules.ShipCost))
	if count > p.BuildMaxBuildAtOnce {
		count = p.BuildMaxBuildAtOnce
	}
	if count < 1 {
		return nil
	}
	return &BuildShips{PlanetID: target.ID, Count: count}
}
