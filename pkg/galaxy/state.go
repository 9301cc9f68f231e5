// Package galaxy implements the deterministic Galactic Conflict engine:
// the in-memory state of a single match, the event loop that advances it,
// and the battle resolution for arriving armadas. The package performs no
// I/O; callers persist the state as JSON and thread wall-clock times in.
package galaxy

import (
	"encoding/json"
	"fmt"
	"math"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

// Difficulty levels for AI players.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Rules holds the deployment-wide constants of the simulation. Per-game
// settings (production rate, armada speed, planet count) live on the State.
type Rules struct {
	ShipCost                  float64 `toml:"ship_cost"`
	DefaultProductionRate     float64 `toml:"default_production_rate"`
	ResourceTickIntervalMs    int64   `toml:"resource_tick_interval_ms"`
	ResourceUpdatesPerMin     float64 `toml:"resource_updates_per_min"`
	StaleGameTimeoutMs        int64   `toml:"stale_game_timeout_ms"`
	MinArmadaTravelTimeMs     int64   `toml:"min_armada_travel_time_ms"`
	EventBufferMs             int64   `toml:"event_buffer_ms"`
	MaxSlots                  int     `toml:"max_slots"`
	DefaultArmadaSpeed        float64 `toml:"default_armada_speed"`
	DefaultNeutralPlanetCount int     `toml:"default_neutral_planet_count"`
	DefaultDurationMinutes    int     `toml:"default_duration_minutes"`
}

// DefaultRules returns the standard deployment constants.
func DefaultRules() Rules {
	return Rules{
		ShipCost:                  10,
		DefaultProductionRate:     1,
		ResourceTickIntervalMs:    10_000,
		ResourceUpdatesPerMin:     6,
		StaleGameTimeoutMs:        60 * 60 * 1000,
		MinArmadaTravelTimeMs:     2_000,
		EventBufferMs:             100,
		MaxSlots:                  4,
		DefaultArmadaSpeed:        0.02, // distance units per millisecond
		DefaultNeutralPlanetCount: 6,
		DefaultDurationMinutes:    30,
	}
}

// Player is one participant slot in a game.
type Player struct {
	SlotIndex  int    `json:"slotIndex"`
	Name       string `json:"name"`
	IsAI       bool   `json:"isAI"`
	Difficulty string `json:"difficulty,omitempty"` // AI only
	Color      string `json:"color,omitempty"`
}

// Position is a planet's location on the map.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance to another position.
func (p Position) Distance(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Planet is a stationary position with an owner, a garrison, and a volume
// that drives resource production. OwnerSlot nil means neutral.
type Planet struct {
	ID        int      `json:"id"`
	OwnerSlot *int     `json:"ownerSlot,omitempty"`
	Volume    float64  `json:"volume"`
	Ships     int      `json:"ships"`
	Position  Position `json:"position"`
}

// OwnedBy reports whether the planet is owned by the given slot.
func (p *Planet) OwnedBy(slot int) bool {
	return p.OwnerSlot != nil && *p.OwnerSlot == slot
}

// Armada is an in-flight group of ships travelling between planets.
type Armada struct {
	ID                  string `json:"id"`
	OwnerSlot           int    `json:"ownerSlot"`
	Ships               int    `json:"ships"`
	SourcePlanetID      int    `json:"sourcePlanetId"`
	DestinationPlanetID int    `json:"destinationPlanetId"`
	DepartureTime       int64  `json:"departureTime"`
	ArrivalTime         int64  `json:"arrivalTime"`
}

// ReinforcementEvent records an armada landing on a friendly planet.
type ReinforcementEvent struct {
	PlanetID  int   `json:"planetId"`
	Ships     int   `json:"ships"`
	OwnerSlot int   `json:"ownerSlot"`
	Timestamp int64 `json:"timestamp"`
}

// ConquestEvent records a planet changing hands after a battle.
type ConquestEvent struct {
	PlanetID          int   `json:"planetId"`
	NewOwnerSlot      int   `json:"newOwnerSlot"`
	PreviousOwnerSlot *int  `json:"previousOwnerSlot,omitempty"`
	Ships             int   `json:"ships"`
	Timestamp         int64 `json:"timestamp"`
}

// PlayerEliminationEvent records a player losing their last planet with no
// armadas left in flight.
type PlayerEliminationEvent struct {
	Slot      int    `json:"slot"`
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
}

// BattleRound is one exchange in a battle replay.
type BattleRound struct {
	AttackerRoll int `json:"attackerRoll"`
	DefenderRoll int `json:"defenderRoll"`
	AttackerLoss int `json:"attackerLoss"`
	DefenderLoss int `json:"defenderLoss"`
}

// BattleReplay records a resolved battle round by round, enough for clients
// to reconstruct the animation.
type BattleReplay struct {
	PlanetID          int           `json:"planetId"`
	AttackerSlot      int           `json:"attackerSlot"`
	DefenderSlot      *int          `json:"defenderSlot,omitempty"` // nil = neutral garrison
	AttackerShips     int           `json:"attackerShips"`
	DefenderShips     int           `json:"defenderShips"`
	Rounds            []BattleRound `json:"rounds"`
	AttackerSurvivors int           `json:"attackerSurvivors"`
	DefenderSurvivors int           `json:"defenderSurvivors"`
	Conquered         bool          `json:"conquered"`
	Timestamp         int64         `json:"timestamp"`
}

// State is the canonical in-memory model of one match. It is mutated only
// by the game loop, the battle resolution, the AI driver, and the player
// action methods below, and round-trips through JSON without loss.
type State struct {
	Status          Status `json:"status"`
	StartTime       int64  `json:"startTime"`
	DurationMinutes int    `json:"durationMinutes"`
	LastUpdateTime  int64  `json:"lastUpdateTime"`

	Players []Player `json:"players"`
	Planets []Planet `json:"planets"`
	Armadas []Armada `json:"armadas"`

	PlayerResources    map[int]float64 `json:"playerResources"`
	EliminatedPlayers  []int           `json:"eliminatedPlayers,omitempty"`
	AILastDecisionTime map[int]int64   `json:"aiLastDecisionTime,omitempty"`

	EventQueue EventQueue `json:"eventQueue"`

	// Ephemeral buffers, cleared after each successful broadcast.
	RecentBattleReplays           []BattleReplay           `json:"recentBattleReplays,omitempty"`
	RecentReinforcementEvents     []ReinforcementEvent     `json:"recentReinforcementEvents,omitempty"`
	RecentConquestEvents          []ConquestEvent          `json:"recentConquestEvents,omitempty"`
	RecentPlayerEliminationEvents []PlayerEliminationEvent `json:"recentPlayerEliminationEvents,omitempty"`

	RngSeed  uint64 `json:"rngSeed,string"`
	RngState uint64 `json:"rngState,string"`

	EndResult *EndResult `json:"endResult,omitempty"`

	// Per-game configuration, fixed at creation.
	ProductionRate     float64 `json:"productionRate"`
	ArmadaSpeed        float64 `json:"armadaSpeed"`
	NeutralPlanetCount int     `json:"neutralPlanetCount"`
}

// PlanetByID returns the planet with the given id, or nil.
func (s *State) PlanetByID(id int) *Planet {
	for i := range s.Planets {
		if s.Planets[i].ID == id {
			return &s.Planets[i]
		}
	}
	return nil
}

// PlayerBySlot returns the player in the given slot, or nil.
func (s *State) PlayerBySlot(slot int) *Player {
	for i := range s.Players {
		if s.Players[i].SlotIndex == slot {
			return &s.Players[i]
		}
	}
	return nil
}

// IsEliminated reports whether the slot has been eliminated.
func (s *State) IsEliminated(slot int) bool {
	for _, e := range s.EliminatedPlayers {
		if e == slot {
			return true
		}
	}
	return false
}

// markEliminated adds a slot to the eliminated set. Idempotent.
func (s *State) markEliminated(slot int) {
	if s.IsEliminated(slot) {
		return
	}
	s.EliminatedPlayers = append(s.EliminatedPlayers, slot)
}

// PlanetsOwnedBy returns the planets owned by the slot.
func (s *State) PlanetsOwnedBy(slot int) []*Planet {
	var out []*Planet
	for i := range s.Planets {
		if s.Planets[i].OwnedBy(slot) {
			out = append(out, &s.Planets[i])
		}
	}
	return out
}

// ArmadaCount returns how many armadas the slot has in flight.
func (s *State) ArmadaCount(slot int) int {
	n := 0
	for i := range s.Armadas {
		if s.Armadas[i].OwnerSlot == slot {
			n++
		}
	}
	return n
}

// HasPresence reports whether the slot owns at least one planet or has at
// least one armada in flight.
func (s *State) HasPresence(slot int) bool {
	for i := range s.Planets {
		if s.Planets[i].OwnedBy(slot) {
			return true
		}
	}
	return s.ArmadaCount(slot) > 0
}

// SlotsWithPresence returns the slots that still hold planets or armadas,
// in player order.
func (s *State) SlotsWithPresence() []int {
	var out []int
	for _, p := range s.Players {
		if s.HasPresence(p.SlotIndex) {
			out = append(out, p.SlotIndex)
		}
	}
	return out
}

// TotalShips returns the slot's ships across planets and armadas. Used by
// conservation checks: the total changes only through builds and battle
// casualties.
func (s *State) TotalShips(slot int) int {
	total := 0
	for i := range s.Planets {
		if s.Planets[i].OwnedBy(slot) {
			total += s.Planets[i].Ships
		}
	}
	for i := range s.Armadas {
		if s.Armadas[i].OwnerSlot == slot {
			total += s.Armadas[i].Ships
		}
	}
	return total
}

// Clone returns a deep copy of the state via a JSON round trip. Used to
// snapshot the broadcast payload before the recent-event buffers are
// cleared.
func (s *State) Clone() (*State, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &out, nil
}

// ClearRecentEvents drops the ephemeral event buffers. Call strictly after
// the broadcast snapshot has been taken.
func (s *State) ClearRecentEvents() {
	s.RecentBattleReplays = nil
	s.RecentReinforcementEvents = nil
	s.RecentConquestEvents = nil
	s.RecentPlayerEliminationEvents = nil
}

// HasRecentEvents reports whether any ephemeral buffer is non-empty.
func (s *State) HasRecentEvents() bool {
	return len(s.RecentBattleReplays) > 0 ||
		len(s.RecentReinforcementEvents) > 0 ||
		len(s.RecentConquestEvents) > 0 ||
		len(s.RecentPlayerEliminationEvents) > 0
}

// nextArmadaID draws a fresh armada id from the game's RNG so that replays
// of the same seed mint the same ids.
func (s *State) nextArmadaID() string {
	v, next := NextRand(s.RngState)
	s.RngState = next
	return fmt.Sprintf("a%x-%d", v&0xffffffff, len(s.Armadas))
}

// LaunchArmada debits ships from a source planet and puts them in flight
// toward the destination. The same entry point serves AI decisions and
// player actions, so both honour the same invariants.
func (s *State) LaunchArmada(rules Rules, ownerSlot, sourceID, destID, ships int, now int64) (*Armada, error) {
	if ships < 1 {
		return nil, fmt.Errorf("armada needs at least one ship, got %d", ships)
	}
	if sourceID == destID {
		return nil, fmt.Errorf("armada source and destination are both planet %d", sourceID)
	}
	source := s.PlanetByID(sourceID)
	if source == nil {
		return nil, fmt.Errorf("source planet %d not found", sourceID)
	}
	dest := s.PlanetByID(destID)
	if dest == nil {
		return nil, fmt.Errorf("destination planet %d not found", destID)
	}
	if !source.OwnedBy(ownerSlot) {
		return nil, fmt.Errorf("planet %d is not owned by slot %d", sourceID, ownerSlot)
	}
	if ships > source.Ships {
		return nil, fmt.Errorf("planet %d has %d ships, cannot send %d", sourceID, source.Ships, ships)
	}

	speed := s.ArmadaSpeed
	if speed <= 0 {
		speed = rules.DefaultArmadaSpeed
	}
	travel := int64(source.Position.Distance(dest.Position) / speed)
	if travel < rules.MinArmadaTravelTimeMs {
		travel = rules.MinArmadaTravelTimeMs
	}

	source.Ships -= ships
	armada := Armada{
		ID:                  s.nextArmadaID(),
		OwnerSlot:           ownerSlot,
		Ships:               ships,
		SourcePlanetID:      sourceID,
		DestinationPlanetID: destID,
		DepartureTime:       now,
		ArrivalTime:         now + travel,
	}
	s.Armadas = append(s.Armadas, armada)
	return &s.Armadas[len(s.Armadas)-1], nil
}

// BuildShips spends a player's resource pool to add ships to a planet they
// own.
func (s *State) BuildShips(rules Rules, slot, planetID, count int) error {
	if count < 1 {
		return fmt.Errorf("must build at least one ship, got %d", count)
	}
	planet := s.PlanetByID(planetID)
	if planet == nil {
		return fmt.Errorf("planet %d not found", planetID)
	}
	if !planet.OwnedBy(slot) {
		return fmt.Errorf("planet %d is not owned by slot %d", planetID, slot)
	}
	cost := float64(count) * rules.ShipCost
	if s.PlayerResources[slot] < cost {
		return fmt.Errorf("slot %d has %.1f resources, needs %.1f", slot, s.PlayerResources[slot], cost)
	}
	s.PlayerResources[slot] -= cost
	planet.Ships += count
	return nil
}

// removeArmada deletes an armada by id, returning it. The second return is
// false if no such armada exists.
func (s *State) removeArmada(id string) (Armada, bool) {
	for i := range s.Armadas {
		if s.Armadas[i].ID == id {
			a := s.Armadas[i]
			s.Armadas = append(s.Armadas[:i], s.Armadas[i+1:]...)
			return a, true
		}
	}
	return Armada{}, false
}
