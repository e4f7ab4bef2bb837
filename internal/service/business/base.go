package business

import (
	"context"

	"lineup/queue-engine/internal/domain"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type businessService struct {
	businessRepository businessRepository
	redisClient        *redis.Client
	logger             *log.Logger
}

type businessRepository interface {
	GetAllBusinesses(ctx context.Context) ([]domain.Business, error)
	GetBusiness(ctx context.Context, id string) (domain.Business, error)
	CreateBusiness(ctx context.Context, b domain.Business) (domain.Business, error)
}

func NewBusinessService(businessRepository businessRepository, redisClient *redis.Client, logger *log.Logger) *businessService {
	return &businessService{
		businessRepository: businessRepository,
		redisClient:        redisClient,
		logger:             logger,
	}
}
