package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matchday/engine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":9090")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.IdleLambda, convey.ShouldAlmostEqual, 0.35)
				convey.So(cfg.IdlePeriodDays, convey.ShouldEqual, 7)
				convey.So(cfg.RatingSigma0, convey.ShouldAlmostEqual, 8.333)
				convey.So(cfg.MVPMuBonus, convey.ShouldAlmostEqual, 0.6)
				convey.So(cfg.PairGamesForConfidence, convey.ShouldEqual, 10)
				convey.So(cfg.MaxBaseDiff, convey.ShouldAlmostEqual, 2.0)
				convey.So(cfg.TwoTeamIterations, convey.ShouldEqual, 500)
				convey.So(cfg.ThreeTeamIterations, convey.ShouldEqual, 400)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			// Set environment variables
			_ = os.Setenv("MATCHDAY_LOG_LEVEL", "debug")
			_ = os.Setenv("MATCHDAY_IDLE_LAMBDA", "0.5")
			_ = os.Setenv("MATCHDAY_DEDUPE_SIZE", "2500")
			_ = os.Setenv("MATCHDAY_SYNERGY_ENABLED", "false")
			_ = os.Setenv("MATCHDAY_TWO_TEAM_ITERATIONS", "900")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.IdleLambda, convey.ShouldAlmostEqual, 0.5)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 2500)
				convey.So(cfg.SynergyEnabled, convey.ShouldBeFalse)
				convey.So(cfg.TwoTeamIterations, convey.ShouldEqual, 900)
				// Untouched knobs keep their defaults.
				convey.So(cfg.ThreeTeamIterations, convey.ShouldEqual, 400)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars()

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			yaml := "log_level: warn\nmetrics_addr: \":7070\"\npair_min_games: 5\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("MATCHDAY_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":7070")
				convey.So(cfg.PairMinGames, convey.ShouldEqual, 5)
			})

			convey.Convey("And env vars override the file", func() {
				_ = os.Setenv("MATCHDAY_LOG_LEVEL", "error")

				cfg, err := config.Load()

				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "error")
				convey.So(cfg.MetricsAddr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the config file is missing", func() {
			clearConfigEnvVars()
			_ = os.Setenv("MATCHDAY_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should fail with a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a value fails validation", func() {
			clearConfigEnvVars()
			_ = os.Setenv("MATCHDAY_PAIR_DECAY_FACTOR", "1.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should return an invalid config error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "pair_decay_factor")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigCarving(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When carving component configs", func() {
			idle := cfg.Inactivity()
			rat := cfg.Rating()
			pairs := cfg.PairStats()
			bal := cfg.Balance()

			convey.Convey("Then each carries its slice of the knobs", func() {
				convey.So(idle.Lambda, convey.ShouldAlmostEqual, cfg.IdleLambda)
				convey.So(idle.Sigma0, convey.ShouldAlmostEqual, cfg.RatingSigma0)
				convey.So(rat.MVPMuBonus, convey.ShouldAlmostEqual, cfg.MVPMuBonus)
				convey.So(rat.ApplyIdleInflation, convey.ShouldEqual, cfg.IdleEnabled)
				convey.So(pairs.DecayFactor, convey.ShouldAlmostEqual, cfg.PairDecayFactor)
				convey.So(bal.TargetDiff, convey.ShouldAlmostEqual, cfg.TargetDiff)
				convey.So(bal.SynergyEnabled, convey.ShouldEqual, cfg.SynergyEnabled)
			})
		})
	})
}

// clearConfigEnvVars removes all MATCHDAY_ environment variables used in tests.
func clearConfigEnvVars() {
	vars := []string{
		"MATCHDAY_CONFIG",
		"MATCHDAY_LOG_LEVEL",
		"MATCHDAY_METRICS_ADDR",
		"MATCHDAY_DEDUPE_SIZE",
		"MATCHDAY_IDLE_LAMBDA",
		"MATCHDAY_SYNERGY_ENABLED",
		"MATCHDAY_TWO_TEAM_ITERATIONS",
		"MATCHDAY_PAIR_DECAY_FACTOR",
	}
	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}
