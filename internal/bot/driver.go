package bot

import (
	"github.com/rs/zerolog/log"

	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// Driver implements galaxy.AITurnProcessor. It is stateless; everything it
// needs lives on the game state, so a driver can serve every game.
type Driver struct{}

// NewDriver returns the AI driver.
func NewDriver() *Driver {
	return &Driver{}
}

// ProcessAITurns runs one decision pass for every non-eliminated AI player
// whose cooldown has elapsed. Decisions read the same state snapshot and
// are applied sequentially; the cooldown timestamp updates whenever at
// least one decision executed, even if the other candidate was rejected.
func (d *Driver) ProcessAITurns(s *galaxy.State, rules galaxy.Rules, currentTime int64) bool {
	changed := false
	for _, player := range s.Players {
		if !player.IsAI || s.IsEliminated(player.SlotIndex) {
			continue
		}

		params := ParamsForDifficulty(player.Difficulty)
		if s.AILastDecisionTime != nil {
			if last, ok := s.AILastDecisionTime[player.SlotIndex]; ok && currentTime-last < params.CooldownMs {
				continue
			}
		}

		decisions := d.selectDecisions(s, rules, params, player)
		executed := 0
		for _, decision := range decisions {
			if d.execute(s, rules, player.SlotIndex, decision, currentTime) {
				executed++
			}
		}

		if executed > 0 {
			if s.AILastDecisionTime == nil {
				s.AILastDecisionTime = make(map[int]int64)
			}
			s.AILastDecisionTime[player.SlotIndex] = currentTime
			changed = true
		}
	}
	return changed
}

// selectDecisions evaluates the attack and build candidates in the order
// the difficulty dictates. Hard attacks first and falls back to a
// desperation strike; easy and medium only lead with an attack when a
// planet is strong enough to stage one.
func (d *Driver) selectDecisions(s *galaxy.State, rules galaxy.Rules, params Params, player galaxy.Player) []Decision {
	slot := player.SlotIndex
	hard := player.Difficulty == galaxy.DifficultyHard

	var decisions []Decision
	if hard {
		attack := planAttack(s, params, slot, true)
		if attack == nil {
			attack = planFallbackAttack(s, params, slot)
		}
		if attack != nil {
			decisions = append(decisions, *attack)
		}
		if build := planBuild(s, rules, params, slot); build != nil {
			decisions = append(decisions, *build)
		}
		return decisions
	}

	attackFirst := strongestAbove(s, slot, params.AttackMinSourceShips) != nil
	if attackFirst {
		if attack := planAttack(s, params, slot, false); attack != nil {
			decisions = append(decisions, *attack)
		}
		if build := planBuild(s, rules, params, slot); build != nil {
			decisions = append(decisions, *build)
		}
	} else {
		if build := planBuild(s, rules, params, slot); build != nil {
			decisions = append(decisions, *build)
		}
		if attack := planAttack(s, params, slot, false); attack != nil {
			decisions = append(decisions, *attack)
		}
	}
	return decisions
}

// execute applies one decision through the shared state APIs. Rejections
// are logged and swallowed: a failed decision never blocks the tick.
func (d *Driver) execute(s *galaxy.State, rules galaxy.Rules, slot int, decision Decision, currentTime int64) bool {
	switch dec := decision.(type) {
	case SendArmada:
		if _, err := s.LaunchArmada(rules, slot, dec.SourcePlanetID, dec.TargetPlanetID, dec.Ships, currentTime); err != nil {
			log.Debug().Err(err).Int("slot", slot).Msg("AI attack rejected")
			return false
		}
		return true
	case BuildShips:
		if err := s.BuildShips(rules, slot, dec.PlanetID, dec.Count); err != nil {
			log.Debug().Err(err).Int("slot", slot).Msg("AI build rejected")
			return false
		}
		return true
	default:
		log.Warn().Int("slot", slot).Msg("Unknown AI decision type, dropping")
		return false
	}
}
