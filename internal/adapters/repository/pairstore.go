package repository

import (
	"context"
	"sync"

	"github.com/matchday/engine/internal/domain/model"
)

// PairStore keeps pair statistics rows in memory keyed by canonical pair.
type PairStore struct {
	mu    sync.RWMutex
	pairs map[model.PairKey]model.PairStats
}

// NewPairStore creates an empty PairStore.
func NewPairStore() *PairStore {
	return &PairStore{
		pairs: make(map[model.PairKey]model.PairStats),
	}
}

// GetPairs returns stored stats for the given keys; unknown keys are simply
// absent from the result.
func (s *PairStore) GetPairs(ctx context.Context, keys []model.PairKey) ([]model.PairStats, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.PairStats, 0, len(keys))
	for _, k := range keys {
		if p, ok := s.pairs[k]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// PairsForPlayer returns every stored pair involving the player.
func (s *PairStore) PairsForPlayer(ctx context.Context, playerID int64) ([]model.PairStats, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.PairStats
	for k, p := range s.pairs {
		if k.Contains(playerID) {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpsertPairs writes the given pair rows, replacing existing ones.
func (s *PairStore) UpsertPairs(ctx context.Context, pairs []model.PairStats) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pairs {
		s.pairs[p.Key] = p
	}
	return nil
}

// Count returns the number of stored pair rows.
func (s *PairStore) Count(ctx context.Context) int {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.pairs)
}
