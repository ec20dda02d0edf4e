package models

import (
	"time"

	"github.com/google/uuid"
)

// GameSnapshot is the durable form of one game: a JSON snapshot of the full
// aggregate plus the columns the scheduler's due-game query filters on.
type GameSnapshot struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Status    string    `json:"status" gorm:"not null;size:20;index"`
	Format    string    `json:"format" gorm:"not null;size:20"`
	StartTime time.Time `json:"start_time" gorm:"not null;index"`
	Data      []byte    `json:"-" gorm:"type:jsonb;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
