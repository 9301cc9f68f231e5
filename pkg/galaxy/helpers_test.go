package galaxy

// Test fixtures shared across the engine tests.

func intPtr(v int) *int { return &v }

// twoPlayerState builds a minimal active game: two home planets 100 units
// apart (5000ms travel at default speed) and one neutral planet.
func twoPlayerState(now int64) *State {
	return &State{
		Status:          StatusActive,
		StartTime:       now,
		DurationMinutes: 30,
		LastUpdateTime:  now,
		Players: []Player{
			{SlotIndex: 0, Name: "alice"},
			{SlotIndex: 1, Name: "bob"},
		},
		Planets: []Planet{
			{ID: 0, OwnerSlot: intPtr(0), Volume: 10, Ships: 10, Position: Position{X: 0, Y: 0}},
			{ID: 1, OwnerSlot: intPtr(1), Volume: 10, Ships: 10, Position: Position{X: 100, Y: 0}},
			{ID: 2, Volume: 5, Ships: 3, Position: Position{X: 50, Y: 50}},
		},
		PlayerResources:    map[int]float64{0: 0, 1: 0},
		AILastDecisionTime: map[int]int64{},
		RngSeed:            99,
		RngState:           99,
		ProductionRate:     1,
		ArmadaSpeed:        0.02,
		NeutralPlanetCount: 1,
	}
}
