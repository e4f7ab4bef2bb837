package business

import (
	"context"

	"lineup/queue-engine/internal/domain"
)

type BusinessHandler struct {
	businessService businessService
}

type businessService interface {
	Create(ctx context.Context, id, name string) (domain.Business, error)
	Name(ctx context.Context, businessID string) (string, error)
}

func New(businessService businessService) *BusinessHandler {
	return &BusinessHandler{
		businessService: businessService,
	}
}
