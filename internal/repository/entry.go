package repository

import (
	"context"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"
	"lineup/queue-engine/internal/repository/entity"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type entryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *entryRepository {
	return &entryRepository{
		db: db,
	}
}

// Save upserts entries. A row is only overwritten by a strictly newer version,
// so writes arriving out of order never roll an entry back.
func (er *entryRepository) Save(ctx context.Context, entries ...domain.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, constant.DBTxTimeout)
	defer cancel()

	rows := make([]entity.QueueEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, entity.NewQueueEntry(e))
	}

	err := gorm.G[entity.QueueEntry](er.db, clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "position", "notified_at", "called_at", "finished_at", "version", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "queue_entries.version < excluded.version"},
		}},
	}).CreateInBatches(ctx, &rows, 100)

	return translate(err, "failed to save queue entries")
}

func (er *entryRepository) Get(ctx context.Context, id string) (domain.QueueEntry, error) {
	row, err := gorm.G[entity.QueueEntry](er.db).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.QueueEntry{}, errors.Wrapf(constant.ErrEntryNotFound, "entry %s", id)
		}
		return domain.QueueEntry{}, translate(err, "failed to get queue entry")
	}
	return row.ToDomain()
}
