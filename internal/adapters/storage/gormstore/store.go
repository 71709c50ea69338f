// Package gormstore persists rating state in Postgres through GORM. It
// implements the same player and pair repository contracts as the in-memory
// stores, with Apply mapped onto a database transaction so a write batch
// commits atomically.
package gormstore

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/matchday/engine/internal/domain/model"
)

// Store provides durable access to players, events, and pair statistics.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and runs schema migration.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and runs schema migration.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&playerRow{}, &ratingEventRow{}, &pairRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Register inserts a new player at the rating prior. Existing rows are left
// untouched and returned as-is.
func (s *Store) Register(ctx context.Context, id int64, p model.PlayerRating) (model.PlayerRating, error) {
	row := toPlayerRow(p)
	row.ID = id
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return model.PlayerRating{}, fmt.Errorf("register player %d: %w", id, err)
	}

	var stored playerRow
	if err := s.db.WithContext(ctx).First(&stored, id).Error; err != nil {
		return model.PlayerRating{}, fmt.Errorf("load player %d: %w", id, err)
	}
	return stored.toModel(), nil
}

// FindByIDs returns rating state for the given ids; absent ids are simply
// missing from the result.
func (s *Store) FindByIDs(ctx context.Context, ids []int64) ([]model.PlayerRating, error) {
	var rows []playerRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find players: %w", err)
	}
	out := make([]model.PlayerRating, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// AllPlayers returns every registered player's rating state.
func (s *Store) AllPlayers(ctx context.Context) ([]model.PlayerRating, error) {
	var rows []playerRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	out := make([]model.PlayerRating, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// Apply commits a write batch in one transaction: player rows are upserted
// and events appended, or nothing lands at all.
func (s *Store) Apply(ctx context.Context, batch model.WriteBatch) error {
	if batch.Empty() {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range batch.Players {
			row := toPlayerRow(p)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&row).Error; err != nil {
				return err
			}
		}
		for _, e := range batch.Events {
			row := toEventRow(e)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

// EventsForPlayer returns a player's audit log, oldest first.
func (s *Store) EventsForPlayer(ctx context.Context, playerID int64) ([]model.RatingEvent, error) {
	var rows []ratingEventRow
	err := s.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load events for player %d: %w", playerID, err)
	}
	out := make([]model.RatingEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// GetPairs returns stored stats for the given keys; unknown keys are simply
// absent from the result.
func (s *Store) GetPairs(ctx context.Context, keys []model.PairKey) ([]model.PairStats, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	tuples := make([][]int64, 0, len(keys))
	for _, k := range keys {
		tuples = append(tuples, []int64{k.A, k.B})
	}
	var rows []pairRow
	err := s.db.WithContext(ctx).
		Where("(player_a, player_b) IN ?", tuples).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load pairs: %w", err)
	}
	out := make([]model.PairStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// PairsForPlayer returns every stored pair involving the player.
func (s *Store) PairsForPlayer(ctx context.Context, playerID int64) ([]model.PairStats, error) {
	var rows []pairRow
	err := s.db.WithContext(ctx).
		Where("player_a = ? OR player_b = ?", playerID, playerID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load pairs for player %d: %w", playerID, err)
	}
	out := make([]model.PairStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// UpsertPairs writes the given pair rows, replacing existing counters.
func (s *Store) UpsertPairs(ctx context.Context, pairs []model.PairStats) error {
	if len(pairs) == 0 {
		return nil
	}

	rows := make([]pairRow, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, toPairRow(p))
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_a"}, {Name: "player_b"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert pairs: %w", err)
	}
	return nil
}
