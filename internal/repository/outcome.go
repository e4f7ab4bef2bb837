package repository

import (
	"context"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"
	"lineup/queue-engine/internal/repository/entity"

	"gorm.io/gorm"
)

type outcomeRepository struct {
	db *gorm.DB
}

func NewOutcomeRepository(db *gorm.DB) *outcomeRepository {
	return &outcomeRepository{
		db: db,
	}
}

// Insert returns constant.ErrDuplicateEntry when the outcome was already stored.
func (ocr *outcomeRepository) Insert(ctx context.Context, outcome domain.NotificationOutcome) error {
	ctx, cancel := context.WithTimeout(ctx, constant.DBTxTimeout)
	defer cancel()

	row := entity.NewNotificationOutcome(outcome)
	return translate(gorm.G[entity.NotificationOutcome](ocr.db).Create(ctx, &row), "failed to insert notification outcome")
}

func (ocr *outcomeRepository) ListByEntry(ctx context.Context, entryID string) ([]domain.NotificationOutcome, error) {
	rows, err := gorm.G[entity.NotificationOutcome](ocr.db).
		Where("entry_id = ?", entryID).
		Order("created_at DESC").
		Find(ctx)
	if err != nil {
		return nil, translate(err, "failed to list notification outcomes")
	}

	outcomes := make([]domain.NotificationOutcome, 0, len(rows))
	for _, row := range rows {
		outcomes = append(outcomes, row.ToDomain())
	}
	return outcomes, nil
}
