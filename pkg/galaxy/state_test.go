package galaxy

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLaunchArmada_DebitsSourceAndComputesTravel(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(1000)

	armada, err := s.LaunchArmada(rules, 0, 0, 1, 4, 1000)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if s.Planets[0].Ships != 6 {
		t.Errorf("source ships = %d, want 6", s.Planets[0].Ships)
	}
	if armada.Ships != 4 || armada.OwnerSlot != 0 {
		t.Errorf("armada = %+v", armada)
	}
	// 100 units at 0.02 units/ms = 5000ms.
	if got := armada.ArrivalTime - armada.DepartureTime; got != 5000 {
		t.Errorf("travel time = %d, want 5000", got)
	}
}

func TestLaunchArmada_MinimumTravelTime(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)
	// Move the neutral planet right next to the source.
	s.Planets[2].Position = Position{X: 1, Y: 0}

	armada, err := s.LaunchArmada(rules, 0, 0, 2, 2, 0)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if got := armada.ArrivalTime - armada.DepartureTime; got != rules.MinArmadaTravelTimeMs {
		t.Errorf("travel time = %d, want minimum %d", got, rules.MinArmadaTravelTimeMs)
	}
}

func TestLaunchArmada_Rejections(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name    string
		slot    int
		source  int
		dest    int
		ships   int
		wantErr string
	}{
		{"zero ships", 0, 0, 1, 0, "at least one ship"},
		{"same planet", 0, 0, 0, 2, "source and destination"},
		{"missing source", 0, 99, 1, 2, "not found"},
		{"missing destination", 0, 0, 99, 2, "not found"},
		{"not owner", 0, 1, 0, 2, "not owned"},
		{"too many ships", 0, 0, 1, 11, "cannot send"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := twoPlayerState(0)
			_, err := s.LaunchArmada(rules, tt.slot, tt.source, tt.dest, tt.ships, 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			if s.Planets[0].Ships != 10 || len(s.Armadas) != 0 {
				t.Error("rejected launch must not mutate state")
			}
		})
	}
}

func TestLaunchArmada_DeterministicIDs(t *testing.T) {
	rules := DefaultRules()
	a := twoPlayerState(0)
	b := twoPlayerState(0)

	aa, _ := a.LaunchArmada(rules, 0, 0, 1, 2, 0)
	ba, _ := b.LaunchArmada(rules, 0, 0, 1, 2, 0)
	if aa.ID != ba.ID {
		t.Errorf("same seed minted different armada ids: %s vs %s", aa.ID, ba.ID)
	}
}

func TestBuildShips(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)
	s.PlayerResources[0] = 35

	if err := s.BuildShips(rules, 0, 0, 3); err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.Planets[0].Ships != 13 {
		t.Errorf("ships = %d, want 13", s.Planets[0].Ships)
	}
	if s.PlayerResources[0] != 5 {
		t.Errorf("resources = %f, want 5", s.PlayerResources[0])
	}

	if err := s.BuildShips(rules, 0, 0, 1); err == nil {
		t.Error("expected insufficient resources error")
	}
	if err := s.BuildShips(rules, 0, 1, 1); err == nil {
		t.Error("expected ownership error")
	}
	if err := s.BuildShips(rules, 0, 0, 0); err == nil {
		t.Error("expected count validation error")
	}
}

func TestState_JSONRoundTrip(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)
	s.RngState = 18446744073709551615 // max uint64 must survive JSON
	s.EventQueue.Push(ScheduledEvent{Type: EventResourceTick, ScheduledTime: 10000})
	s.EventQueue.Push(ScheduledEvent{Type: EventGameEnd, ScheduledTime: 1800000})
	if _, err := s.LaunchArmada(rules, 0, 0, 1, 2, 0); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored State
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.RngState != s.RngState {
		t.Errorf("rng state = %d, want %d", restored.RngState, s.RngState)
	}
	if restored.EventQueue.Len() != 2 {
		t.Errorf("event queue len = %d, want 2", restored.EventQueue.Len())
	}
	if len(restored.Armadas) != 1 || restored.Armadas[0].ID != s.Armadas[0].ID {
		t.Errorf("armadas did not survive: %+v", restored.Armadas)
	}
	if !restored.Planets[0].OwnedBy(0) || restored.Planets[2].OwnerSlot != nil {
		t.Error("planet ownership did not survive")
	}
}

func TestState_CloneIsIndependent(t *testing.T) {
	s := twoPlayerState(0)
	s.RecentReinforcementEvents = []ReinforcementEvent{{PlanetID: 0, Ships: 2}}

	clone, err := s.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}

	s.ClearRecentEvents()
	s.Planets[0].Ships = 99

	if len(clone.RecentReinforcementEvents) != 1 {
		t.Error("clearing the original emptied the clone's buffers")
	}
	if clone.Planets[0].Ships != 10 {
		t.Errorf("clone planet ships = %d, want 10", clone.Planets[0].Ships)
	}
}

func TestState_PresenceAndTotals(t *testing.T) {
	rules := DefaultRules()
	s := twoPlayerState(0)

	if got := s.TotalShips(0); got != 10 {
		t.Errorf("total ships = %d, want 10", got)
	}
	if _, err := s.LaunchArmada(rules, 0, 0, 1, 10, 0); err != nil {
		t.Fatal(err)
	}
	// All ships in flight: still 10 total, still present.
	if got := s.TotalShips(0); got != 10 {
		t.Errorf("total ships after launch = %d, want 10", got)
	}
	if !s.HasPresence(0) {
		t.Error("slot with an armada in flight must have presence")
	}

	slots := s.SlotsWithPresence()
	if len(slots) != 2 {
		t.Errorf("slots with presence = %v, want both", slots)
	}
}
