package model

import "time"

// PairKey identifies an unordered player pair, canonicalized so A < B.
type PairKey struct {
	A int64
	B int64
}

// NewPairKey canonicalizes two player ids into a PairKey.
func NewPairKey(x, y int64) PairKey {
	if x < y {
		return PairKey{A: x, B: y}
	}
	return PairKey{A: y, B: x}
}

// Contains reports whether id is one of the pair's members.
func (k PairKey) Contains(id int64) bool {
	return k.A == id || k.B == id
}

// Other returns the opposite member of the pair, or 0 if id is not a member.
func (k PairKey) Other(id int64) int64 {
	switch id {
	case k.A:
		return k.B
	case k.B:
		return k.A
	}
	return 0
}

// PairStats holds raw together/versus counters for one unordered pair plus
// the derived synergy and counter ratings. VsWins is always credited to the
// smaller-id member (Key.A); the larger-id member's view is the sign flip.
// Invariant: 0 <= wins <= games for both counter groups.
type PairStats struct {
	Key           PairKey
	TogetherGames int
	TogetherWins  int
	VsGames       int
	VsWins        int
	SynergyMu     float64
	SynergySigma  float64
	CounterMu     float64
	CounterSigma  float64
	LastGameAt    *time.Time
}

// NewPairStats returns the no-information default for a pair: zero effect,
// maximal uncertainty.
func NewPairStats(key PairKey) PairStats {
	return PairStats{
		Key:          key,
		SynergySigma: 1,
		CounterSigma: 1,
	}
}

// CounterMuFor returns the directional counter advantage from the given
// member's perspective.
func (s PairStats) CounterMuFor(id int64) float64 {
	if id == s.Key.A {
		return s.CounterMu
	}
	return -s.CounterMu
}

// PairMatrix maps every unordered pair of a player pool to its stats.
type PairMatrix map[PairKey]PairStats

// Get returns the stored stats for (x, y), or the no-information default.
func (m PairMatrix) Get(x, y int64) PairStats {
	key := NewPairKey(x, y)
	if s, ok := m[key]; ok {
		return s
	}
	return NewPairStats(key)
}
