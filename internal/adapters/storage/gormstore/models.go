package gormstore

import (
	"time"

	"github.com/matchday/engine/internal/domain/model"
)

// playerRow is the persisted form of a player's rating state.
type playerRow struct {
	ID            int64      `gorm:"primaryKey"`
	Mu            float64    `gorm:"not null"`
	Sigma         float64    `gorm:"not null"`
	GamesPlayed   int        `gorm:"not null;default:0"`
	MVPCount      int        `gorm:"not null;default:0"`
	LastPlayedAt  *time.Time `gorm:"index"`
	FirstPlayedAt *time.Time
	RegisteredAt  time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

func (playerRow) TableName() string { return "players" }

// ratingEventRow is one append-only audit log entry.
type ratingEventRow struct {
	EventID     string         `gorm:"primaryKey;size:64"`
	PlayerID    int64          `gorm:"not null;index"`
	MuBefore    float64        `gorm:"not null"`
	MuAfter     float64        `gorm:"not null"`
	SigmaBefore float64        `gorm:"not null"`
	SigmaAfter  float64        `gorm:"not null"`
	Reason      string         `gorm:"not null;size:16;index"`
	Meta        map[string]any `gorm:"serializer:json"`
	CreatedAt   time.Time      `gorm:"not null;index"`
}

func (ratingEventRow) TableName() string { return "rating_events" }

// pairRow stores together/versus counters for one canonical pair (A < B).
type pairRow struct {
	PlayerA       int64 `gorm:"primaryKey;autoIncrement:false"`
	PlayerB       int64 `gorm:"primaryKey;autoIncrement:false"`
	TogetherGames int   `gorm:"not null;default:0"`
	TogetherWins  int   `gorm:"not null;default:0"`
	VsGames       int   `gorm:"not null;default:0"`
	VsWins        int   `gorm:"not null;default:0"`
	SynergyMu     float64
	SynergySigma  float64
	CounterMu     float64
	CounterSigma  float64
	LastGameAt    *time.Time
	UpdatedAt     time.Time
}

func (pairRow) TableName() string { return "player_pairs" }

func toPlayerRow(p model.PlayerRating) playerRow {
	return playerRow{
		ID:            p.ID,
		Mu:            p.Mu,
		Sigma:         p.Sigma,
		GamesPlayed:   p.GamesPlayed,
		MVPCount:      p.MVPCount,
		LastPlayedAt:  p.LastPlayedAt,
		FirstPlayedAt: p.FirstPlayedAt,
		RegisteredAt:  p.RegisteredAt,
	}
}

func (r playerRow) toModel() model.PlayerRating {
	return model.PlayerRating{
		ID:            r.ID,
		Mu:            r.Mu,
		Sigma:         r.Sigma,
		GamesPlayed:   r.GamesPlayed,
		MVPCount:      r.MVPCount,
		LastPlayedAt:  r.LastPlayedAt,
		FirstPlayedAt: r.FirstPlayedAt,
		RegisteredAt:  r.RegisteredAt,
	}
}

func toEventRow(e model.RatingEvent) ratingEventRow {
	return ratingEventRow{
		EventID:     e.EventID,
		PlayerID:    e.PlayerID,
		MuBefore:    e.MuBefore,
		MuAfter:     e.MuAfter,
		SigmaBefore: e.SigmaBefore,
		SigmaAfter:  e.SigmaAfter,
		Reason:      string(e.Reason),
		Meta:        e.Meta,
		CreatedAt:   e.CreatedAt,
	}
}

func (r ratingEventRow) toModel() model.RatingEvent {
	return model.RatingEvent{
		EventID:     r.EventID,
		PlayerID:    r.PlayerID,
		MuBefore:    r.MuBefore,
		MuAfter:     r.MuAfter,
		SigmaBefore: r.SigmaBefore,
		SigmaAfter:  r.SigmaAfter,
		Reason:      model.EventReason(r.Reason),
		Meta:        r.Meta,
		CreatedAt:   r.CreatedAt,
	}
}

func toPairRow(p model.PairStats) pairRow {
	return pairRow{
		PlayerA:       p.Key.A,
		PlayerB:       p.Key.B,
		TogetherGames: p.TogetherGames,
		TogetherWins:  p.TogetherWins,
		VsGames:       p.VsGames,
		VsWins:        p.VsWins,
		SynergyMu:     p.SynergyMu,
		SynergySigma:  p.SynergySigma,
		CounterMu:     p.CounterMu,
		CounterSigma:  p.CounterSigma,
		LastGameAt:    p.LastGameAt,
	}
}

func (r pairRow) toModel() model.PairStats {
	return model.PairStats{
		Key:           model.PairKey{A: r.PlayerA, B: r.PlayerB},
		TogetherGames: r.TogetherGames,
		TogetherWins:  r.TogetherWins,
		VsGames:       r.VsGames,
		VsWins:        r.VsWins,
		SynergyMu:     r.SynergyMu,
		SynergySigma:  r.SynergySigma,
		CounterMu:     r.CounterMu,
		CounterSigma:  r.CounterSigma,
		LastGameAt:    r.LastGameAt,
	}
}
