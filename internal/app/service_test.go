package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/matchday/engine/internal/adapters/repository"
	"github.com/matchday/engine/internal/app"
	"github.com/matchday/engine/internal/domain/balance"
	"github.com/matchday/engine/internal/domain/inactivity"
	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/pairstats"
	"github.com/matchday/engine/internal/domain/rating"
	"github.com/smartystreets/goconvey/convey"
)

func newService(playerCount int, now time.Time) (*app.Service, *repository.PlayerStore) {
	store := repository.NewPlayerStore()
	for i := 1; i <= playerCount; i++ {
		p := model.NewPlayerRating(int64(i), now)
		p.Mu = 18 + float64(i%12)*1.3
		played := now.AddDate(0, 0, -1)
		p.LastPlayedAt = &played
		p.GamesPlayed = 5
		_ = store.Apply(context.Background(), model.WriteBatch{Players: []model.PlayerRating{p}})
	}

	pairs := pairstats.New(repository.NewPairStore(), pairstats.Config{
		Enabled:            true,
		Scale:              pairstats.DefaultScale,
		Cap:                pairstats.DefaultCap,
		GamesForConfidence: pairstats.DefaultGamesForConfidence,
		HalfLifeWeeks:      pairstats.DefaultHalfLifeWeeks,
		DecayFactor:        pairstats.DefaultDecayFactor,
		MinGames:           1,
	})
	idle := inactivity.New(inactivity.DefaultConfig())
	engine := rating.New(store, pairs, idle, rating.Config{MVPEnabled: true, ApplyIdleInflation: true},
		rating.WithClock(func() time.Time { return now }))
	balancer := balance.New(balance.Config{
		SynergyEnabled:      true,
		SynergyWeightSame:   balance.DefaultSynergyWeightSame,
		SynergyWeightVs:     balance.DefaultSynergyWeightVs,
		MaxBaseDiff:         balance.DefaultMaxBaseDiff,
		TwoTeamIterations:   balance.DefaultTwoTeamIterations,
		ThreeTeamIterations: balance.DefaultThreeTeamIterations,
		TargetDiff:          balance.DefaultTargetDiff,
	}, balance.WithRand(rand.New(rand.NewSource(1))))
	sweeper := inactivity.NewSweeper(idle, store)

	return app.New(store, pairs, engine, balancer, sweeper), store
}

func TestServiceMatchProcessing(t *testing.T) {
	convey.Convey("Given a service over a seeded store", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
		svc, store := newService(8, now)

		winners := []int64{1, 2, 3, 4}
		losers := []int64{5, 6, 7, 8}

		convey.Convey("When processing a match the first time", func() {
			res, err := svc.ProcessMatch(ctx, "m-1", winners, losers, rating.MatchOptions{PlayedAt: now})

			convey.Convey("Then ratings move and events land", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Changes, convey.ShouldHaveLength, 8)
				events, err := store.Events(ctx, 1)
				convey.So(err, convey.ShouldBeNil)
				convey.So(events, convey.ShouldNotBeEmpty)
			})

			convey.Convey("And a repeated delivery of the same id is rejected", func() {
				convey.So(err, convey.ShouldBeNil)
				_, err := svc.ProcessMatch(ctx, "m-1", winners, losers, rating.MatchOptions{PlayedAt: now})
				convey.So(errors.Is(err, app.ErrDuplicateMatch), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a match fails validation", func() {
			_, err := svc.ProcessMatch(ctx, "m-2", []int64{1, 2}, []int64{2, 3}, rating.MatchOptions{PlayedAt: now})
			convey.So(err, convey.ShouldNotBeNil)

			convey.Convey("Then the id is released for a retry", func() {
				res, err := svc.ProcessMatch(ctx, "m-2", winners, losers, rating.MatchOptions{PlayedAt: now})
				convey.So(err, convey.ShouldBeNil)
				convey.So(res, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When processing a draw between even sides", func() {
			// Both quartets sum to the same mu, so neither side is docked.
			res, err := svc.ProcessDraw(ctx, "d-1", []int64{1, 4, 5, 8}, []int64{2, 3, 6, 7}, rating.MatchOptions{PlayedAt: now})

			convey.Convey("Then both sides gain some mu", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, ch := range res.Changes {
					convey.So(ch.After.Mu, convey.ShouldBeGreaterThan, ch.Before.Mu)
				}
			})

			convey.Convey("And the draw id joins the dedupe set", func() {
				convey.So(err, convey.ShouldBeNil)
				_, err := svc.ProcessDraw(ctx, "d-1", []int64{1, 4, 5, 8}, []int64{2, 3, 6, 7}, rating.MatchOptions{PlayedAt: now})
				convey.So(errors.Is(err, app.ErrDuplicateMatch), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When asking for partner stats after a match", func() {
			_, err := svc.ProcessMatch(ctx, "m-3", winners, losers, rating.MatchOptions{PlayedAt: now})
			convey.So(err, convey.ShouldBeNil)

			summary, err := svc.PartnerStats(ctx, 1)

			convey.Convey("Then the summary reflects the played pairs", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(summary.BestPartners, convey.ShouldNotBeEmpty)
			})
		})
	})
}

func TestServiceTeamBuilding(t *testing.T) {
	convey.Convey("Given a service with a 16-player pool", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
		svc, _ := newService(16, now)

		ids := make([]int64, 16)
		for i := range ids {
			ids[i] = int64(i + 1)
		}

		convey.Convey("When building two teams", func() {
			res, err := svc.BuildTwoTeams(ctx, ids)

			convey.Convey("Then the pool splits into two eights", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.TeamA, convey.ShouldHaveLength, 8)
				convey.So(res.TeamB, convey.ShouldHaveLength, 8)
			})
		})

		convey.Convey("When the pool contains an unknown id", func() {
			bad := append([]int64{}, ids[:15]...)
			bad = append(bad, 999)
			_, err := svc.BuildTwoTeams(ctx, bad)

			convey.Convey("Then the service names the missing player", func() {
				convey.So(errors.Is(err, app.ErrUnknownPlayers), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "999")
			})
		})
	})

	convey.Convey("Given a service with a 24-player pool", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
		svc, _ := newService(24, now)

		ids := make([]int64, 24)
		for i := range ids {
			ids[i] = int64(i + 1)
		}

		convey.Convey("When building three teams", func() {
			res, err := svc.BuildThreeTeams(ctx, ids)

			convey.Convey("Then the pool splits into three eights", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.TeamA, convey.ShouldHaveLength, 8)
				convey.So(res.TeamB, convey.ShouldHaveLength, 8)
				convey.So(res.TeamC, convey.ShouldHaveLength, 8)
			})
		})
	})
}

func TestServiceIdleSweep(t *testing.T) {
	convey.Convey("Given a service with a long-idle player", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
		svc, store := newService(4, now)

		stale, err := store.Find(ctx, 1)
		convey.So(err, convey.ShouldBeNil)
		idleSince := now.AddDate(0, 0, -70)
		stale.LastPlayedAt = &idleSince
		stale.Sigma = 2.0
		convey.So(store.Apply(ctx, model.WriteBatch{Players: []model.PlayerRating{stale}}), convey.ShouldBeNil)

		convey.Convey("When running the sweep manually", func() {
			res, err := svc.RunIdleSweep(ctx, now)

			convey.Convey("Then the idle player's sigma inflates", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Inflated, convey.ShouldEqual, 1)
				p, err := store.Find(ctx, 1)
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Sigma, convey.ShouldBeGreaterThan, 2.0)
			})
		})
	})
}
