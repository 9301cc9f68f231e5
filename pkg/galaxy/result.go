package galaxy

// EndResult is the outcome of a finished game: either a draw or a single
// winner. A nil *EndResult means the game is still running.
type EndResult struct {
	Draw       bool   `json:"draw,omitempty"`
	WinnerSlot *int   `json:"winnerSlot,omitempty"`
	WinnerName string `json:"name,omitempty"`
}

// DrawnGame returns the drawn-game outcome.
func DrawnGame() *EndResult {
	return &EndResult{Draw: true}
}

// Winner returns a decisive outcome for the given player.
func Winner(slot int, name string) *EndResult {
	s := slot
	return &EndResult{WinnerSlot: &s, WinnerName: name}
}

// Equal compares two outcomes as a total function: nil equals nil, draws
// equal draws, winners compare by slot. The winner name is cosmetic and
// does not participate.
func (e *EndResult) Equal(other *EndResult) bool {
	if e == nil || other == nil {
		return e == nil && other == nil
	}
	if e.Draw || other.Draw {
		return e.Draw == other.Draw
	}
	if e.WinnerSlot == nil || other.WinnerSlot == nil {
		return e.WinnerSlot == nil && other.WinnerSlot == nil
	}
	return *e.WinnerSlot == *other.WinnerSlot
}
