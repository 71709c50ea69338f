package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if MATCHDAY_CONFIG is set
//  3. env (prefix MATCHDAY_)
func Load() (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("MATCHDAY_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MATCHDAY_LOG_LEVEL, MATCHDAY_IDLE_LAMBDA, ...
	// Map env keys like MATCHDAY_IDLE_LAMBDA -> idle_lambda (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("MATCHDAY_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "matchday_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.SweepSpec == "":
		return fmt.Errorf("%w: sweep_spec must not be empty", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.IdleLambda < 0:
		return fmt.Errorf("%w: idle_lambda must not be negative", ErrInvalidConfig)
	case c.IdlePeriodDays <= 0:
		return fmt.Errorf("%w: idle_period_days must be positive", ErrInvalidConfig)
	case c.RatingSigma0 <= 0:
		return fmt.Errorf("%w: rating_sigma0 must be positive", ErrInvalidConfig)
	case c.PairGamesForConfidence <= 0:
		return fmt.Errorf("%w: pair_games_for_confidence must be positive", ErrInvalidConfig)
	case c.PairDecayFactor <= 0 || c.PairDecayFactor > 1:
		return fmt.Errorf("%w: pair_decay_factor must be in (0, 1]", ErrInvalidConfig)
	case c.MaxBaseDiff <= 0:
		return fmt.Errorf("%w: max_base_diff must be positive", ErrInvalidConfig)
	case c.TwoTeamIterations <= 0 || c.ThreeTeamIterations <= 0:
		return fmt.Errorf("%w: balancer iterations must be positive", ErrInvalidConfig)
	case c.DrawSignificantWinP <= 0.5 || c.DrawSignificantWinP >= 1:
		return fmt.Errorf("%w: draw_significant_win_p must be in (0.5, 1)", ErrInvalidConfig)
	}
	return nil
}
