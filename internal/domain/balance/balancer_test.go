package balance_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/matchday/engine/internal/domain/balance"
	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/pairstats"
	. "github.com/smartystreets/goconvey/convey"
)

// pool builds n players with spread-out skill levels.
func pool(n int) []model.PlayerRating {
	registered := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	players := make([]model.PlayerRating, n)
	for i := range players {
		p := model.NewPlayerRating(int64(i+1), registered)
		p.Mu = 18 + float64(i%12)*1.3
		players[i] = p
	}
	return players
}

func seeded(cfg balance.Config) *balance.Balancer {
	return balance.New(cfg, balance.WithRand(rand.New(rand.NewSource(7))))
}

func collectIDs(teams ...[]model.PlayerRating) map[int64]int {
	ids := make(map[int64]int)
	for _, team := range teams {
		for _, p := range team {
			ids[p.ID]++
		}
	}
	return ids
}

func TestTwoTeams(t *testing.T) {
	Convey("Given a 16-player pool", t, func() {
		players := pool(16)
		b := seeded(balance.DefaultConfig())

		Convey("When balancing without synergy", func() {
			res, err := b.TwoTeams(players, nil)
			So(err, ShouldBeNil)

			Convey("The result is an exact 8+8 partition of the input", func() {
				So(res.TeamA, ShouldHaveLength, 8)
				So(res.TeamB, ShouldHaveLength, 8)
				ids := collectIDs(res.TeamA, res.TeamB)
				So(ids, ShouldHaveLength, 16)
				for _, count := range ids {
					So(count, ShouldEqual, 1)
				}
			})

			Convey("Metrics are consistent with the rosters", func() {
				So(res.Diff, ShouldAlmostEqual, absDiff(res.TotalA, res.TotalB), 1e-9)
				So(res.AverageA, ShouldAlmostEqual, res.TotalA/8, 1e-9)
				So(res.AdjustedDiff, ShouldAlmostEqual, res.Diff, 1e-9)
				So(res.WinProbabilityA, ShouldBeBetween, 0, 100)
			})

			Convey("The search converges near the raw-balance target", func() {
				So(res.Diff, ShouldBeLessThan, 3.0)
			})
		})

		Convey("When balancing with a synergy matrix", func() {
			repo := newPairRepo()
			store := pairstats.New(repo, pairstats.DefaultConfig())
			ctx := context.Background()
			at := time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				So(store.UpdateAfterMatch(ctx, []int64{1, 2, 3, 4}, []int64{5, 6, 7, 8}, at.AddDate(0, 0, 7*i)), ShouldBeNil)
			}
			matrix, err := store.MatrixFor(ctx, idsOf(players))
			So(err, ShouldBeNil)

			res, err := b.TwoTeams(players, matrix)
			So(err, ShouldBeNil)

			Convey("The partition invariant still holds", func() {
				So(collectIDs(res.TeamA, res.TeamB), ShouldHaveLength, 16)
			})

			Convey("Synergy never drives raw imbalance past the hard cap plus seed slack", func() {
				// The seed itself is near-balanced, so the cap bounds the result.
				So(res.Diff, ShouldBeLessThanOrEqualTo, balance.DefaultMaxBaseDiff+2.0)
			})
		})

		Convey("Identical seeds give identical partitions", func() {
			first, err := seeded(balance.DefaultConfig()).TwoTeams(players, nil)
			So(err, ShouldBeNil)
			second, err := seeded(balance.DefaultConfig()).TwoTeams(players, nil)
			So(err, ShouldBeNil)
			So(second.TeamA, ShouldResemble, first.TeamA)
			So(second.TeamB, ShouldResemble, first.TeamB)
		})
	})

	Convey("Any pool size other than 16 is rejected", t, func() {
		b := seeded(balance.DefaultConfig())
		for _, n := range []int{0, 8, 15, 17, 24} {
			_, err := b.TwoTeams(pool(n), nil)
			So(errors.Is(err, balance.ErrInvalidPoolSize), ShouldBeTrue)
		}
	})
}

func TestThreeTeams(t *testing.T) {
	Convey("Given a 24-player pool", t, func() {
		players := pool(24)
		b := seeded(balance.DefaultConfig())

		Convey("When balancing without synergy", func() {
			res, err := b.ThreeTeams(players, nil)
			So(err, ShouldBeNil)

			Convey("The result is an exact 8+8+8 partition", func() {
				So(res.TeamA, ShouldHaveLength, 8)
				So(res.TeamB, ShouldHaveLength, 8)
				So(res.TeamC, ShouldHaveLength, 8)
				ids := collectIDs(res.TeamA, res.TeamB, res.TeamC)
				So(ids, ShouldHaveLength, 24)
				for _, count := range ids {
					So(count, ShouldEqual, 1)
				}
			})

			Convey("Spread metrics are consistent", func() {
				So(res.MaxDiff, ShouldBeGreaterThanOrEqualTo, 0)
				So(res.MeanAbsDev, ShouldBeLessThanOrEqualTo, res.MaxDiff+1e-9)
				for t := range res.Totals {
					So(res.Averages[t], ShouldAlmostEqual, res.Totals[t]/8, 1e-9)
				}
			})

			Convey("The snake seed plus search keeps teams close", func() {
				So(res.MaxDiff, ShouldBeLessThan, 4.0)
			})
		})

		Convey("Any pool size other than 24 is rejected", func() {
			for _, n := range []int{0, 16, 23, 25} {
				_, err := b.ThreeTeams(pool(n), nil)
				So(errors.Is(err, balance.ErrInvalidPoolSize), ShouldBeTrue)
			}
		})
	})
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func idsOf(players []model.PlayerRating) []int64 {
	ids := make([]int64, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

// pairRepo is a minimal in-memory pairstats repo for matrix construction.
type pairRepo struct {
	pairs map[model.PairKey]model.PairStats
}

func newPairRepo() *pairRepo {
	return &pairRepo{pairs: make(map[model.PairKey]model.PairStats)}
}

func (r *pairRepo) GetPairs(_ context.Context, keys []model.PairKey) ([]model.PairStats, error) {
	var out []model.PairStats
	for _, key := range keys {
		if p, ok := r.pairs[key]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *pairRepo) PairsForPlayer(_ context.Context, playerID int64) ([]model.PairStats, error) {
	var out []model.PairStats
	for _, p := range r.pairs {
		if p.Key.Contains(playerID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *pairRepo) UpsertPairs(_ context.Context, pairs []model.PairStats) error {
	for _, p := range pairs {
		r.pairs[p.Key] = p
	}
	return nil
}
