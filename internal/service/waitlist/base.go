package waitlist

import (
	"context"
	"time"

	"lineup/queue-engine/internal/domain"
	"lineup/queue-engine/internal/queue"

	log "github.com/sirupsen/logrus"
)

// waitlistService fronts the queue registry for the HTTP API and the
// scheduler. After every mutation it persists the changed entries and pushes
// a fresh snapshot to live clients.
type waitlistService struct {
	registry        *queue.Registry
	directory       directory
	entryRepository entryRepository
	broadcaster     broadcaster
	logger          *log.Logger
	now             func() time.Time
}

type directory interface {
	Exists(ctx context.Context, businessID string) error
}

type entryRepository interface {
	Save(ctx context.Context, entries ...domain.QueueEntry) error
	Get(ctx context.Context, id string) (domain.QueueEntry, error)
}

type broadcaster interface {
	Broadcast(businessID string, snapshot domain.QueueSnapshot)
}

// NewWaitlistService wires the service. entryRepository and broadcaster may be nil.
func NewWaitlistService(
	registry *queue.Registry,
	directory directory,
	entryRepository entryRepository,
	broadcaster broadcaster,
	logger *log.Logger,
) *waitlistService {
	return &waitlistService{
		registry:        registry,
		directory:       directory,
		entryRepository: entryRepository,
		broadcaster:     broadcaster,
		logger:          logger,
		now:             time.Now,
	}
}
