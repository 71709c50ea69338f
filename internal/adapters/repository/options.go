package repository

import "github.com/matchday/engine/internal/domain/model"

// PlayerOption applies a configuration option to the PlayerStore.
type PlayerOption func(*PlayerStore)

// WithSeedPlayers preloads the store with existing rating state, e.g. when
// warming the cache tier from the durable store at startup.
func WithSeedPlayers(players []model.PlayerRating) PlayerOption {
	return func(s *PlayerStore) {
		for _, p := range players {
			s.players[p.ID] = p
		}
	}
}
