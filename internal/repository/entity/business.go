package entity

import (
	"time"

	"lineup/queue-engine/internal/domain"
)

type Business struct {
	ID        string    `gorm:"primary_key" json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Business) TableName() string {
	return "businesses"
}

func (b Business) ToDomain() domain.Business {
	return domain.Business{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
