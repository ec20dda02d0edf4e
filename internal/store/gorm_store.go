package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cardroomlabs/cardroom/internal/engine/game"
	"github.com/cardroomlabs/cardroom/internal/models"
)

// GormStore persists snapshots in Postgres through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the snapshot table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.GameSnapshot{})
}

func (s *GormStore) Save(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", g.ID, err)
	}

	row := models.GameSnapshot{
		ID:        g.ID,
		Status:    string(g.Status),
		Format:    string(g.Format),
		StartTime: g.StartTime,
		Data:      data,
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

func (s *GormStore) Load(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	var row models.GameSnapshot
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	var g game.Game
	if err := json.Unmarshal(row.Data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal game %s: %w", id, err)
	}
	return &g, nil
}

func (s *GormStore) FindDueGames(ctx context.Context, now time.Time, window time.Duration) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.GameSnapshot{}).
		Where("status <> ?", string(game.StatusCompleted)).
		Where("start_time <= ?", now.Add(window)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("find due games: %w", err)
	}
	return ids, nil
}
