package repository

import (
	"context"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"
	"lineup/queue-engine/internal/repository/entity"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type BusinessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) *BusinessRepository {
	return &BusinessRepository{
		db: db,
	}
}

func (br *BusinessRepository) GetAllBusinesses(ctx context.Context) ([]domain.Business, error) {
	rows, err := gorm.G[entity.Business](br.db).Find(ctx)
	if err != nil {
		return nil, translate(err, "failed to list businesses")
	}

	businesses := make([]domain.Business, 0, len(rows))
	for _, row := range rows {
		businesses = append(businesses, row.ToDomain())
	}
	return businesses, nil
}

func (br *BusinessRepository) GetBusiness(ctx context.Context, id string) (domain.Business, error) {
	row, err := gorm.G[entity.Business](br.db).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Business{}, errors.Wrapf(constant.ErrBusinessNotFound, "business %s", id)
		}
		return domain.Business{}, translate(err, "failed to get business")
	}
	return row.ToDomain(), nil
}

func (br *BusinessRepository) CreateBusiness(ctx context.Context, b domain.Business) (domain.Business, error) {
	ctx, cancel := context.WithTimeout(ctx, constant.DBTxTimeout)
	defer cancel()

	row := entity.Business{ID: b.ID, Name: b.Name}
	if err := gorm.G[entity.Business](br.db).Create(ctx, &row); err != nil {
		return domain.Business{}, translate(err, "failed to create business")
	}
	return row.ToDomain(), nil
}
