// Package model contains domain models passed between layers.
package model

import "time"

// Default rating priors. Sigma0 is the prior uncertainty a fresh player
// starts with and the ceiling idle inflation converges toward.
const (
	Mu0        = 25.0
	Sigma0     = 8.333
	SigmaFloor = 1.0
)

// PlayerRating is the per-player skill state mutated only by the rating
// engine. Sigma never drops below SigmaFloor.
type PlayerRating struct {
	ID            int64
	Mu            float64
	Sigma         float64
	GamesPlayed   int
	MVPCount      int
	LastPlayedAt  *time.Time
	FirstPlayedAt *time.Time
	RegisteredAt  time.Time
}

// NewPlayerRating returns the default rating state assigned at registration.
func NewPlayerRating(id int64, registeredAt time.Time) PlayerRating {
	return PlayerRating{
		ID:           id,
		Mu:           Mu0,
		Sigma:        Sigma0,
		RegisteredAt: registeredAt,
	}
}

// LastActivity resolves the inactivity anchor: last game, then first game,
// then registration time.
func (p PlayerRating) LastActivity() time.Time {
	if p.LastPlayedAt != nil {
		return *p.LastPlayedAt
	}
	if p.FirstPlayedAt != nil {
		return *p.FirstPlayedAt
	}
	return p.RegisteredAt
}
