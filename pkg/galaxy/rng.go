package galaxy

// The engine uses a pure xorshift64* generator so that combat and map
// generation are reproducible: the caller threads the state value through
// every call and persists it alongside the game.

// rngDefaultSeed replaces a zero state, which xorshift cannot escape.
const rngDefaultSeed uint64 = 0x9e3779b97f4a7c15

// NextRand advances the generator once, returning the drawn value and the
// next state. Same state in, same pair out.
func NextRand(state uint64) (uint64, uint64) {
	if state == 0 {
		state = rngDefaultSeed
	}
	state ^= state >> 12
	state ^= state << 25
	state ^= state >> 27
	return state * 0x2545f4914f6cdd1d, state
}

// RandIntn draws a value in [0, n) from the generator. n must be positive.
func RandIntn(state uint64, n int) (int, uint64) {
	v, next := NextRand(state)
	return int(v % uint64(n)), next
}

// RandFloat draws a value in [0, 1).
func RandFloat(state uint64) (float64, uint64) {
	v, next := NextRand(state)
	return float64(v>>11) / float64(1<<53), next
}
