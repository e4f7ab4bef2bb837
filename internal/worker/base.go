package worker

import (
	"context"
	"sync"

	"lineup/queue-engine/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Source hands out notification intents and delivers them.
type Source interface {
	Next(ctx context.Context) (domain.NotificationIntent, bool)
	Process(ctx context.Context, intent domain.NotificationIntent)
}

// WorkerPool coordinates a set of workers that drain a Source.
type WorkerPool struct {
	source     Source
	numWorkers int
	logger     *log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorkerPool(source Source, numWorkers int, logger *log.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	return &WorkerPool{
		source:     source,
		numWorkers: numWorkers,
		logger:     logger,
	}
}
