package galaxy

// Battle resolution for arriving armadas. Combat is round-based: each round
// both sides draw a die from the game RNG, the lower roll loses one ship,
// and ties favour the defender. The RNG state advances with every draw and
// is persisted, so a replay from the same state is byte-identical.

const battleDieSides = 6

// HandleArmadaArrival resolves a single armada that has reached its
// destination. The armada is removed from flight; depending on the
// destination owner the landing is a reinforcement or a battle. After any
// arrival the game-end condition is checked so a last-player-standing win
// completes the game without waiting for the scheduled end event.
func HandleArmadaArrival(s *State, armadaID string, now int64) {
	armada, ok := s.removeArmada(armadaID)
	if !ok {
		return
	}

	dest := s.PlanetByID(armada.DestinationPlanetID)
	if dest == nil {
		// Destination vanished from the record; the ships are lost.
		return
	}

	if dest.OwnedBy(armada.OwnerSlot) {
		dest.Ships += armada.Ships
		s.RecentReinforcementEvents = append(s.RecentReinforcementEvents, ReinforcementEvent{
			PlanetID:  dest.ID,
			Ships:     armada.Ships,
			OwnerSlot: armada.OwnerSlot,
			Timestamp: now,
		})
		return
	}

	resolveBattle(s, &armada, dest, now)
	maybeEndEarly(s)
}

// resolveBattle fights the armada against the destination garrison and
// applies the outcome: ownership transfer and elimination checks on an
// attacker win, garrison update on a defender win.
func resolveBattle(s *State, armada *Armada, dest *Planet, now int64) {
	replay := BattleReplay{
		PlanetID:      dest.ID,
		AttackerSlot:  armada.OwnerSlot,
		DefenderSlot:  dest.OwnerSlot,
		AttackerShips: armada.Ships,
		DefenderShips: dest.Ships,
		Timestamp:     now,
	}

	attackers := armada.Ships
	defenders := dest.Ships
	for attackers > 0 && defenders > 0 {
		var ar, dr int
		ar, s.RngState = RandIntn(s.RngState, battleDieSides)
		dr, s.RngState = RandIntn(s.RngState, battleDieSides)
		round := BattleRound{AttackerRoll: ar + 1, DefenderRoll: dr + 1}
		if ar > dr {
			defenders--
			round.DefenderLoss = 1
		} else {
			attackers--
			round.AttackerLoss = 1
		}
		replay.Rounds = append(replay.Rounds, round)
	}

	replay.AttackerSurvivors = attackers
	replay.DefenderSurvivors = defenders
	replay.Conquered = attackers > 0

	if attackers > 0 {
		previousOwner := dest.OwnerSlot
		owner := armada.OwnerSlot
		dest.OwnerSlot = &owner
		dest.Ships = attackers

		s.RecentConquestEvents = append(s.RecentConquestEvents, ConquestEvent{
			PlanetID:          dest.ID,
			NewOwnerSlot:      owner,
			PreviousOwnerSlot: previousOwner,
			Ships:             attackers,
			Timestamp:         now,
		})

		if previousOwner != nil {
			checkElimination(s, *previousOwner, now)
		}
	} else {
		dest.Ships = defenders
	}

	s.RecentBattleReplays = append(s.RecentBattleReplays, replay)
}

// checkElimination marks a slot eliminated once it owns no planets and has
// no armadas in flight. Elimination is permanent.
func checkElimination(s *State, slot int, now int64) {
	if s.IsEliminated(slot) || s.HasPresence(slot) {
		return
	}
	s.markEliminated(slot)
	name := ""
	if p := s.PlayerBySlot(slot); p != nil {
		name = p.Name
	}
	s.RecentPlayerEliminationEvents = append(s.RecentPlayerEliminationEvents, PlayerEliminationEvent{
		Slot:      slot,
		Name:      name,
		Timestamp: now,
	})
}

// maybeEndEarly completes the game as soon as at most one player retains
// any presence on the map.
func maybeEndEarly(s *State) {
	if s.Status == StatusCompleted {
		return
	}
	if len(s.SlotsWithPresence()) <= 1 {
		endGame(s)
	}
}

// endGame determines the outcome and marks the game completed. Exactly one
// player with presence wins; zero or several remaining means a draw.
func endGame(s *State) {
	if s.Status == StatusCompleted {
		return
	}
	remaining := s.SlotsWithPresence()
	if len(remaining) == 1 {
		slot := remaining[0]
		name := ""
		if p := s.PlayerBySlot(slot); p != nil {
			name = p.Name
		}
		s.EndResult = Winner(slot, name)
	} else {
		s.EndResult = DrawnGame()
	}
	s.Status = StatusCompleted
}
