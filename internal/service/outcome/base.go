package outcome

import (
	"context"

	"lineup/queue-engine/internal/domain"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type outcomeRepository interface {
	Insert(ctx context.Context, outcome domain.NotificationOutcome) error
}

// publisher pushes outcomes to the status topic for the consume-status command.
type publisher struct {
	writer messageWriter
}

func NewPublisher(writer messageWriter) *publisher {
	return &publisher{writer: writer}
}

// store writes outcomes to postgres, either directly or from the status topic.
type store struct {
	outcomeRepository outcomeRepository
	logger            *log.Logger
}

func NewStore(outcomeRepository outcomeRepository, logger *log.Logger) *store {
	return &store{
		outcomeRepository: outcomeRepository,
		logger:            logger,
	}
}
