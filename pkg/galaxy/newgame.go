package galaxy

// Settings are the per-game options chosen in the pending configuration.
// Zero values fall back to the deployment rules.
type Settings struct {
	DurationMinutes    int     `json:"durationMinutes,omitempty"`
	ProductionRate     float64 `json:"productionRate,omitempty"`
	ArmadaSpeed        float64 `json:"armadaSpeed,omitempty"`
	NeutralPlanetCount int     `json:"neutralPlanetCount,omitempty"`
}

// Map generation constants. Home planets sit on the edges of the map box;
// neutral planets fill the interior.
const (
	mapSize         = 1000.0
	homeVolume      = 10.0
	homeShips       = 10
	neutralMinShips = 1
	neutralMaxShips = 5
	neutralMinVol   = 3.0
	neutralMaxVol   = 12.0
)

// homeCorners lists the slot starting positions for up to four players.
var homeCorners = []Position{
	{X: 100, Y: 100},
	{X: mapSize - 100, Y: mapSize - 100},
	{X: mapSize - 100, Y: 100},
	{X: 100, Y: mapSize - 100},
}

// NewState builds the initial state of a started game: one home planet per
// player plus the configured number of neutral planets, with the first
// resource tick and the game-end event scheduled. Generation draws from the
// seed only, so the same seed and players produce the same map.
func NewState(rules Rules, players []Player, set Settings, seed uint64, now int64) *State {
	if set.DurationMinutes <= 0 {
		set.DurationMinutes = rules.DefaultDurationMinutes
	}
	if set.ProductionRate <= 0 {
		set.ProductionRate = rules.DefaultProductionRate
	}
	if set.ArmadaSpeed <= 0 {
		set.ArmadaSpeed = rules.DefaultArmadaSpeed
	}
	if set.NeutralPlanetCount <= 0 {
		set.NeutralPlanetCount = rules.DefaultNeutralPlanetCount
	}

	s := &State{
		Status:             StatusActive,
		StartTime:          now,
		DurationMinutes:    set.DurationMinutes,
		LastUpdateTime:     now,
		Players:            append([]Player(nil), players...),
		PlayerResources:    make(map[int]float64, len(players)),
		AILastDecisionTime: make(map[int]int64),
		RngSeed:            seed,
		RngState:           seed,
		ProductionRate:     set.ProductionRate,
		ArmadaSpeed:        set.ArmadaSpeed,
		NeutralPlanetCount: set.NeutralPlanetCount,
	}

	id := 0
	for i, p := range players {
		slot := p.SlotIndex
		pos := homeCorners[i%len(homeCorners)]
		s.Planets = append(s.Planets, Planet{
			ID:        id,
			OwnerSlot: &slot,
			Volume:    homeVolume,
			Ships:     homeShips,
			Position:  pos,
		})
		s.PlayerResources[slot] = 0
		id++
	}

	for i := 0; i < set.NeutralPlanetCount; i++ {
		var xr, yr, vr, sr int
		xr, s.RngState = RandIntn(s.RngState, int(mapSize-400))
		yr, s.RngState = RandIntn(s.RngState, int(mapSize-400))
		vr, s.RngState = RandIntn(s.RngState, int(neutralMaxVol-neutralMinVol)+1)
		sr, s.RngState = RandIntn(s.RngState, neutralMaxShips-neutralMinShips+1)
		s.Planets = append(s.Planets, Planet{
			ID:       id,
			Volume:   neutralMinVol + float64(vr),
			Ships:    neutralMinShips + sr,
			Position: Position{X: 200 + float64(xr), Y: 200 + float64(yr)},
		})
		id++
	}

	s.EventQueue.Push(ScheduledEvent{
		Type:          EventResourceTick,
		ScheduledTime: now + rules.ResourceTickIntervalMs,
	})
	s.EventQueue.Push(ScheduledEvent{
		Type:          EventGameEnd,
		ScheduledTime: now + int64(set.DurationMinutes)*60_000,
	})

	return s
}
