package galaxy

import "testing"

// launchAndLand puts an armada in flight and resolves it immediately.
func launchAndLand(t *testing.T, s *State, rules Rules, slot, source, dest, ships int, now int64) {
	t.Helper()
	armada, err := s.LaunchArmada(rules, slot, source, dest, ships, now)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	HandleArmadaArrival(s, armada.ID, armada.ArrivalTime)
}

func TestArrival_ReinforcesFriendlyPlanet(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)
	owner := 0
	s.Planets[2].OwnerSlot = &owner // second planet for slot 0
	s.Planets[2].Ships = 1

	launchAndLand(t, s, rules, 0, 0, 2, 5, 0)

	if s.Planets[2].Ships != 6 {
		t.Errorf("destination ships = %d, want 6", s.Planets[2].Ships)
	}
	if len(s.Armadas) != 0 {
		t.Errorf("armada not removed: %+v", s.Armadas)
	}
	if len(s.RecentReinforcementEvents) != 1 {
		t.Fatalf("reinforcement events = %d, want 1", len(s.RecentReinforcementEvents))
	}
	ev := s.RecentReinforcementEvents[0]
	if ev.PlanetID != 2 || ev.Ships != 5 || ev.OwnerSlot != 0 {
		t.Errorf("reinforcement event = %+v", ev)
	}
	if len(s.RecentBattleReplays) != 0 {
		t.Error("reinforcement must not produce a battle replay")
	}
}

func TestArrival_BattleConservesShips(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)

	attackerBefore := s.TotalShips(0)
	defenderBefore := s.TotalShips(1)
	launchAndLand(t, s, rules, 0, 0, 1, 8, 0)

	if len(s.RecentBattleReplays) != 1 {
		t.Fatalf("battle replays = %d, want 1", len(s.RecentBattleReplays))
	}
	replay := s.RecentBattleReplays[0]

	attackerLosses := 0
	defenderLosses := 0
	for _, r := range replay.Rounds {
		if r.AttackerRoll < 1 || r.AttackerRoll > 6 || r.DefenderRoll < 1 || r.DefenderRoll > 6 {
			t.Fatalf("die roll out of range: %+v", r)
		}
		// Ties favour the defender.
		if r.AttackerRoll <= r.DefenderRoll && r.AttackerLoss != 1 {
			t.Errorf("round %+v: attacker must lose on a tie or lower roll", r)
		}
		attackerLosses += r.AttackerLoss
		defenderLosses += r.DefenderLoss
	}

	if replay.AttackerSurvivors != 8-attackerLosses {
		t.Errorf("attacker survivors = %d, rounds say %d", replay.AttackerSurvivors, 8-attackerLosses)
	}
	if replay.DefenderSurvivors != 10-defenderLosses {
		t.Errorf("defender survivors = %d, rounds say %d", replay.DefenderSurvivors, 10-defenderLosses)
	}
	if replay.AttackerSurvivors != 0 && replay.DefenderSurvivors != 0 {
		t.Error("battle must run until one side is destroyed")
	}

	// No ships appear from nowhere.
	if s.TotalShips(0) > attackerBefore || s.TotalShips(1) > defenderBefore {
		t.Error("battle created ships")
	}
}

func TestArrival_BattleDeterministicReplay(t *testing.T) {
	rules := DefaultRules()
	a := twoPlayerState(0)
	b := twoPlayerState(0)

	launchAndLand(t, a, rules, 0, 0, 1, 8, 0)
	launchAndLand(t, b, rules, 0, 0, 1, 8, 0)

	ra, rb := a.RecentBattleReplays[0], b.RecentBattleReplays[0]
	if len(ra.Rounds) != len(rb.Rounds) {
		t.Fatalf("round counts differ: %d vs %d", len(ra.Rounds), len(rb.Rounds))
	}
	for i := range ra.Rounds {
		if ra.Rounds[i] != rb.Rounds[i] {
			t.Errorf("round %d differs: %+v vs %+v", i, ra.Rounds[i], rb.Rounds[i])
		}
	}
	if a.RngState != b.RngState {
		t.Error("rng state diverged across identical battles")
	}
}

func TestArrival_ConquestTransfersOwnership(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)
	s.Planets[0].Ships = 30
	s.Planets[2].Ships = 1 // weak neutral garrison

	launchAndLand(t, s, rules, 0, 0, 2, 25, 0)

	replay := s.RecentBattleReplays[0]
	if !replay.Conquered {
		t.Fatalf("expected a 25v1 conquest, replay: %+v", replay)
	}
	if !s.Planets[2].OwnedBy(0) {
		t.Error("planet ownership did not transfer")
	}
	if s.Planets[2].Ships != replay.AttackerSurvivors {
		t.Errorf("garrison = %d, want survivors %d", s.Planets[2].Ships, replay.AttackerSurvivors)
	}
	if len(s.RecentConquestEvents) != 1 {
		t.Fatalf("conquest events = %d, want 1", len(s.RecentConquestEvents))
	}
	ev := s.RecentConquestEvents[0]
	if ev.PlanetID != 2 || ev.NewOwnerSlot != 0 || ev.PreviousOwnerSlot != nil {
		t.Errorf("conquest event = %+v", ev)
	}
}

func TestArrival_EliminationAndEarlyEnd(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)
	s.Planets = s.Planets[:2] // no neutral planet
	s.Planets[0].Ships = 50
	s.Planets[1].Ships = 1

	launchAndLand(t, s, rules, 0, 0, 1, 40, 0)

	if !s.Planets[1].OwnedBy(0) {
		t.Fatal("expected the 40v1 attack to conquer")
	}
	if !s.IsEliminated(1) {
		t.Error("defender lost the last planet and must be eliminated")
	}
	if len(s.RecentPlayerEliminationEvents) != 1 {
		t.Fatalf("elimination events = %d, want 1", len(s.RecentPlayerEliminationEvents))
	}
	if ev := s.RecentPlayerEliminationEvents[0]; ev.Slot != 1 || ev.Name != "bob" {
		t.Errorf("elimination event = %+v", ev)
	}

	if s.Status != StatusCompleted {
		t.Error("last player standing must complete the game")
	}
	if s.EndResult == nil || s.EndResult.WinnerSlot == nil || *s.EndResult.WinnerSlot != 0 {
		t.Errorf("end result = %+v, want winner slot 0", s.EndResult)
	}
}

func TestArrival_ConquestWithoutEliminationWhenOtherPlanetsRemain(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)
	// Slot 1 holds a second planet, so losing one is not elimination.
	owner := 1
	s.Planets[2].OwnerSlot = &owner
	s.Planets[0].Ships = 30
	s.Planets[1].Ships = 1

	launchAndLand(t, s, rules, 0, 0, 1, 25, 0)

	if !s.Planets[1].OwnedBy(0) {
		t.Fatal("expected conquest")
	}
	ev := s.RecentConquestEvents[0]
	if ev.PreviousOwnerSlot == nil || *ev.PreviousOwnerSlot != 1 {
		t.Errorf("conquest event previous owner = %v, want 1", ev.PreviousOwnerSlot)
	}
	if s.IsEliminated(1) {
		t.Error("slot with another planet must not be eliminated")
	}
	if s.Status == StatusCompleted {
		t.Error("game must continue with both players present")
	}
}

func TestArrival_NoEliminationWhileArmadaInFlight(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)
	s.Planets = s.Planets[:2]
	s.Planets[0].Ships = 50
	s.Planets[1].Ships = 5

	// Defender has everything in flight when their planet falls.
	if _, err := s.LaunchArmada(rules, 1, 1, 0, 4, 0); err != nil {
		t.Fatal(err)
	}
	launchAndLand(t, s, rules, 0, 0, 1, 40, 0)

	if !s.Planets[1].OwnedBy(0) {
		t.Fatal("expected conquest")
	}
	if s.IsEliminated(1) {
		t.Error("slot with an armada in flight must not be eliminated")
	}
	if s.Status == StatusCompleted {
		t.Error("game must not end while the defender's armada flies")
	}
}

func TestArrival_UnknownArmadaIsNoop(t *testing.T) {
	s := twoPlayerState(0)
	HandleArmadaArrival(s, "no-such-armada", 0)
	if s.HasRecentEvents() || len(s.Armadas) != 0 {
		t.Error("unknown armada id must be a no-op")
	}
}

func TestEndResult_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b *EndResult
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs draw", nil, DrawnGame(), false},
		{"draw vs draw", DrawnGame(), DrawnGame(), true},
		{"draw vs winner", DrawnGame(), Winner(1, "x"), false},
		{"same winner", Winner(1, "x"), Winner(1, "y"), true},
		{"different winner", Winner(1, "x"), Winner(2, "x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("Equal (reversed) = %v, want %v", got, tt.want)
			}
		})
	}
}
