// Package repository provides in-memory stores for player ratings and pair
// statistics. The stores guard all state behind a mutex and commit write
// batches atomically, which makes them suitable both for tests and as the
// cache tier in front of the durable store.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/pkg/metrics"
)

// PlayerStore keeps player rating state and the rating event log in memory.
type PlayerStore struct {
	mu      sync.RWMutex
	players map[int64]model.PlayerRating
	events  []model.RatingEvent
}

// NewPlayerStore creates an empty PlayerStore.
func NewPlayerStore(opts ...PlayerOption) *PlayerStore {
	s := &PlayerStore{
		players: make(map[int64]model.PlayerRating),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a new player at the rating prior. It fails if the id is
// already tracked.
func (s *PlayerStore) Register(ctx context.Context, id int64, registeredAt time.Time) (model.PlayerRating, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; ok {
		return model.PlayerRating{}, fmt.Errorf("%w: id %d", ErrAlreadyExists, id)
	}
	p := model.NewPlayerRating(id, registeredAt)
	s.players[id] = p
	metrics.UpdatePlayersTracked(len(s.players))
	return p, nil
}

// FindByIDs returns the rating state for the given ids; absent ids are simply
// missing from the result.
func (s *PlayerStore) FindByIDs(ctx context.Context, ids []int64) ([]model.PlayerRating, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.PlayerRating, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.players[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Find returns one player's rating state.
func (s *PlayerStore) Find(ctx context.Context, id int64) (model.PlayerRating, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return model.PlayerRating{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return p, nil
}

// AllPlayers returns every tracked player's rating state.
func (s *PlayerStore) AllPlayers(ctx context.Context) ([]model.PlayerRating, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.PlayerRating, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	return out, nil
}

// Apply commits a write batch atomically: either every player row and event
// lands, or none do. Unknown player ids are upserted rather than rejected so
// replays of historical batches stay idempotent.
func (s *PlayerStore) Apply(ctx context.Context, batch model.WriteBatch) error {
	_ = ctx

	if batch.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range batch.Players {
		s.players[p.ID] = p
	}
	s.events = append(s.events, batch.Events...)
	metrics.UpdatePlayersTracked(len(s.players))
	return nil
}

// Events returns a copy of the event log for a player, oldest first. A zero
// id returns the full log.
func (s *PlayerStore) Events(ctx context.Context, playerID int64) ([]model.RatingEvent, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RatingEvent, 0, len(s.events))
	for _, e := range s.events {
		if playerID == 0 || e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Count returns the number of tracked players.
func (s *PlayerStore) Count(ctx context.Context) int {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.players)
}
