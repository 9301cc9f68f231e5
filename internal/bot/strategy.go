// Package bot drives the AI players: a per-difficulty parameter table, an
// attack strategy, a build strategy, and the driver that applies decisions
// to the game state under per-player cooldowns.
package bot

import (
	"github.com/freeeve/galactic-conflict/pkg/galaxy"
)

// Params tune a difficulty level. All thresholds are positive; hard plays
// with the loosest ones.
type Params struct {
	CooldownMs int64

	AttackMinSourceShips int
	AttackMinAdvantage   int
	AttackMinShipsToSend int
	AttackDefenseBuffer  int

	BuildResourceMultiplier float64
	BuildMinShipsOnPlanet   int
	BuildMaxBuildAtOnce     int
}

// ParamsForDifficulty returns the parameter set for a difficulty level.
// Unknown difficulties play easy.
func ParamsForDifficulty(difficulty string) Params {
	switch difficulty {
	case galaxy.DifficultyMedium:
		return Params{
			CooldownMs:              10_000,
			AttackMinSourceShips:    5,
			AttackMinAdvantage:      2,
			AttackMinShipsToSend:    4,
			AttackDefenseBuffer:     2,
			BuildResourceMultiplier: 1.5,
			BuildMinShipsOnPlanet:   2,
			BuildMaxBuildAtOnce:     5,
		}
	case galaxy.DifficultyHard:
		return Params{
			CooldownMs:              2_000,
			AttackMinSourceShips:    2,
			AttackMinAdvantage:      0,
			AttackMinShipsToSend:    2,
			AttackDefenseBuffer:     0,
			BuildResourceMultiplier: 1,
			BuildMinShipsOnPlanet:   0,
			BuildMaxBuildAtOnce:     20,
		}
	default:
		return Params{
			CooldownMs:              30_000,
			AttackMinSourceShips:    10,
			AttackMinAdvantage:      4,
			AttackMinShipsToSend:    5,
			AttackDefenseBuffer:     4,
			BuildResourceMultiplier: 2,
			BuildMinShipsOnPlanet:   3,
			BuildMaxBuildAtOnce:     2,
		}
	}
}

// Decision is the tagged union of actions a strategy can select.
type Decision interface {
	decision()
}

// SendArmada launches ships from a source planet at a target.
type SendArmada struct {
	SourcePlanetID int
	TargetPlanetID int
	Ships          int
}

// BuildShips spends resources to garrison a planet.
type BuildShips struct {
	PlanetID int
	Count    int
}

func (SendArmada) decision() {}
func (BuildShips) decision() {}
