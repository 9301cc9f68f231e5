package galaxy

import "testing"

func testPlayers() []Player {
	return []Player{
		{SlotIndex: 0, Name: "alice"},
		{SlotIndex: 1, Name: "hard-bot", IsAI: true, Difficulty: DifficultyHard},
	}
}

func TestNewState_Layout(t *testing.T) {
	rules := DefaultRules()
	s := NewState(rules, testPlayers(), Settings{}, 7, 1000)

	if s.Status != StatusActive {
		t.Errorf("status = %s, want ACTIVE", s.Status)
	}
	if s.StartTime != 1000 || s.LastUpdateTime != 1000 {
		t.Errorf("start = %d, lastUpdate = %d, want 1000", s.StartTime, s.LastUpdateTime)
	}

	wantPlanets := len(testPlayers()) + rules.DefaultNeutralPlanetCount
	if len(s.Planets) != wantPlanets {
		t.Fatalf("planets = %d, want %d", len(s.Planets), wantPlanets)
	}
	for i, p := range testPlayers() {
		home := s.Planets[i]
		if !home.OwnedBy(p.SlotIndex) {
			t.Errorf("planet %d not owned by slot %d", i, p.SlotIndex)
		}
		if home.Ships == 0 || home.Volume == 0 {
			t.Errorf("home planet %d missing garrison or volume: %+v", i, home)
		}
		if s.PlayerResources[p.SlotIndex] != 0 {
			t.Errorf("slot %d starts with %f resources", p.SlotIndex, s.PlayerResources[p.SlotIndex])
		}
	}
	for i := len(testPlayers()); i < wantPlanets; i++ {
		if s.Planets[i].OwnerSlot != nil {
			t.Errorf("planet %d should be neutral", i)
		}
	}
}

func TestNewState_ScheduledEvents(t *testing.T) {
	rules := DefaultRules()
	s := NewState(rules, testPlayers(), Settings{DurationMinutes: 5}, 7, 1000)

	events := s.EventQueue.Events()
	if len(events) != 2 {
		t.Fatalf("scheduled events = %d, want 2", len(events))
	}
	if events[0].Type != EventResourceTick || events[0].ScheduledTime != 1000+rules.ResourceTickIntervalMs {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Type != EventGameEnd || events[1].ScheduledTime != 1000+5*60_000 {
		t.Errorf("second event = %+v", events[1])
	}
	if s.DurationMinutes != 5 {
		t.Errorf("duration = %d, want 5", s.DurationMinutes)
	}
}

func TestNewState_SettingsDefaults(t *testing.T) {
	rules := DefaultRules()
	s := NewState(rules, testPlayers(), Settings{}, 7, 0)

	if s.DurationMinutes != rules.DefaultDurationMinutes {
		t.Errorf("duration = %d, want default %d", s.DurationMinutes, rules.DefaultDurationMinutes)
	}
	if s.ProductionRate != rules.DefaultProductionRate {
		t.Errorf("production rate = %f", s.ProductionRate)
	}
	if s.ArmadaSpeed != rules.DefaultArmadaSpeed {
		t.Errorf("armada speed = %f", s.ArmadaSpeed)
	}
	if s.NeutralPlanetCount != rules.DefaultNeutralPlanetCount {
		t.Errorf("neutral planet count = %d", s.NeutralPlanetCount)
	}
}

func TestNewState_SameSeedSameMap(t *testing.T) {
	rules := DefaultRules()
	a := NewState(rules, testPlayers(), Settings{}, 1234, 0)
	b := NewState(rules, testPlayers(), Settings{}, 1234, 0)
	c := NewState(rules, testPlayers(), Settings{}, 5678, 0)

	// Compare the generated neutral planets; homes are fixed.
	neutralsMatch := func(x, y *State) bool {
		for i := len(testPlayers()); i < len(x.Planets); i++ {
			px, py := x.Planets[i], y.Planets[i]
			if px.Position != py.Position || px.Volume != py.Volume || px.Ships != py.Ships {
				return false
			}
		}
		return true
	}

	if !neutralsMatch(a, b) {
		t.Error("same seed produced different maps")
	}
	if neutralsMatch(a, c) {
		t.Error("different seeds produced identical maps")
	}
}
