package provider

import (
	"context"

	"lineup/queue-engine/internal/domain"

	log "github.com/sirupsen/logrus"
)

type SMSProvider interface {
	Send(ctx context.Context, msg domain.Message) error
}

type StubProvider struct {
	logger *log.Logger
}

func NewStubProvider(logger *log.Logger) SMSProvider {
	return &StubProvider{logger: logger}
}
