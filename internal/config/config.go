// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Components never read ambient globals: carve the sub-config each one
//   needs with the typed accessors below and hand it over explicitly.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/matchday/engine/internal/domain/balance"
	"github.com/matchday/engine/internal/domain/inactivity"
	"github.com/matchday/engine/internal/domain/pairstats"
	"github.com/matchday/engine/internal/domain/rating"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the Prometheus listen address, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// DatabaseDSN is the Postgres connection string for the durable store.
	DatabaseDSN string `koanf:"database_dsn"`

	// SweepSpec is the cron expression (with seconds) for the weekly idle
	// inflation sweep.
	SweepSpec string `koanf:"sweep_spec"`

	// DedupeSize bounds the processed-match id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Idle inflation.
	IdleEnabled    bool    `koanf:"idle_enabled"`
	IdleLambda     float64 `koanf:"idle_lambda"`
	IdlePeriodDays int     `koanf:"idle_period_days"`
	RatingSigma0   float64 `koanf:"rating_sigma0"`

	// MVP bonus.
	MVPEnabled         bool    `koanf:"mvp_enabled"`
	MVPMuBonus         float64 `koanf:"mvp_mu_bonus"`
	MVPSigmaMultiplier float64 `koanf:"mvp_sigma_multiplier"`

	// Draw handling.
	DrawBaseBonus       float64 `koanf:"draw_base_bonus"`
	DrawUpsetBonus      float64 `koanf:"draw_upset_bonus"`
	DrawUpsetPenalty    float64 `koanf:"draw_upset_penalty"`
	DrawSignificantWinP float64 `koanf:"draw_significant_win_p"`

	// Pair statistics.
	SynergyEnabled         bool    `koanf:"synergy_enabled"`
	PairScale              float64 `koanf:"pair_scale"`
	PairCap                float64 `koanf:"pair_cap"`
	PairGamesForConfidence int     `koanf:"pair_games_for_confidence"`
	PairHalfLifeWeeks      float64 `koanf:"pair_half_life_weeks"`
	PairDecayFactor        float64 `koanf:"pair_decay_factor"`
	PairMinGames           int     `koanf:"pair_min_games"`

	// Team balancing.
	SynergyWeightSame   float64 `koanf:"synergy_weight_same"`
	SynergyWeightVs     float64 `koanf:"synergy_weight_vs"`
	MaxBaseDiff         float64 `koanf:"max_base_diff"`
	TwoTeamIterations   int     `koanf:"two_team_iterations"`
	ThreeTeamIterations int     `koanf:"three_team_iterations"`
	TargetDiff          float64 `koanf:"target_diff"`
}

// New creates a Config with production defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		MetricsAddr: ":9090",
		SweepSpec:   "0 0 6 * * MON", // Monday 06:00, after the weekend games
		DedupeSize:  10_000,

		IdleEnabled:    true,
		IdleLambda:     inactivity.DefaultLambda,
		IdlePeriodDays: inactivity.DefaultPeriodDays,
		RatingSigma0:   8.333,

		MVPEnabled:         true,
		MVPMuBonus:         rating.DefaultMVPMuBonus,
		MVPSigmaMultiplier: rating.DefaultMVPSigmaMultiplier,

		DrawBaseBonus:       rating.DefaultDrawBaseBonus,
		DrawUpsetBonus:      rating.DefaultDrawUpsetBonus,
		DrawUpsetPenalty:    rating.DefaultDrawUpsetPenalty,
		DrawSignificantWinP: rating.DefaultDrawSignificantWinP,

		SynergyEnabled:         true,
		PairScale:              pairstats.DefaultScale,
		PairCap:                pairstats.DefaultCap,
		PairGamesForConfidence: pairstats.DefaultGamesForConfidence,
		PairHalfLifeWeeks:      pairstats.DefaultHalfLifeWeeks,
		PairDecayFactor:        pairstats.DefaultDecayFactor,
		PairMinGames:           pairstats.DefaultMinGames,

		SynergyWeightSame:   balance.DefaultSynergyWeightSame,
		SynergyWeightVs:     balance.DefaultSynergyWeightVs,
		MaxBaseDiff:         balance.DefaultMaxBaseDiff,
		TwoTeamIterations:   balance.DefaultTwoTeamIterations,
		ThreeTeamIterations: balance.DefaultThreeTeamIterations,
		TargetDiff:          balance.DefaultTargetDiff,
	}
}

// Inactivity carves out the inactivity model's configuration.
func (c *Config) Inactivity() inactivity.Config {
	return inactivity.Config{
		Enabled:    c.IdleEnabled,
		Lambda:     c.IdleLambda,
		PeriodDays: c.IdlePeriodDays,
		Sigma0:     c.RatingSigma0,
	}
}

// Rating carves out the rating engine's configuration.
func (c *Config) Rating() rating.Config {
	return rating.Config{
		MVPEnabled:          c.MVPEnabled,
		MVPMuBonus:          c.MVPMuBonus,
		MVPSigmaMultiplier:  c.MVPSigmaMultiplier,
		ApplyIdleInflation:  c.IdleEnabled,
		DrawBaseBonus:       c.DrawBaseBonus,
		DrawUpsetBonus:      c.DrawUpsetBonus,
		DrawUpsetPenalty:    c.DrawUpsetPenalty,
		DrawSignificantWinP: c.DrawSignificantWinP,
	}
}

// PairStats carves out the pair statistics store's configuration.
func (c *Config) PairStats() pairstats.Config {
	return pairstats.Config{
		Enabled:            c.SynergyEnabled,
		Scale:              c.PairScale,
		Cap:                c.PairCap,
		GamesForConfidence: c.PairGamesForConfidence,
		HalfLifeWeeks:      c.PairHalfLifeWeeks,
		DecayFactor:        c.PairDecayFactor,
		MinGames:           c.PairMinGames,
	}
}

// Balance carves out the team balancer's configuration.
func (c *Config) Balance() balance.Config {
	return balance.Config{
		SynergyEnabled:      c.SynergyEnabled,
		SynergyWeightSame:   c.SynergyWeightSame,
		SynergyWeightVs:     c.SynergyWeightVs,
		MaxBaseDiff:         c.MaxBaseDiff,
		TwoTeamIterations:   c.TwoTeamIterations,
		ThreeTeamIterations: c.ThreeTeamIterations,
		TargetDiff:          c.TargetDiff,
	}
}
