// Package scheduler runs the periodic queue sweeps: no-show expiry, idle
// engine eviction and pruning of finished entries.
package scheduler

import (
	"context"
	"time"

	"lineup/queue-engine/internal/config"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type sweeper interface {
	ExpireNoShows(ctx context.Context, grace time.Duration) int
	EvictIdle(ctx context.Context, idle time.Duration) int
	Prune(ctx context.Context, retention time.Duration) int
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper sweeper
	queue   config.Queue
	logger  *log.Logger
	ctx     context.Context
}

func New(cfg config.Scheduler, queueCfg config.Queue, sweeper sweeper, logger *log.Logger) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(logger)
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		sweeper: sweeper,
		queue:   queueCfg,
		logger:  logger,
		ctx:     context.Background(),
	}

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"no-show", cfg.NoShowSpec, s.expireNoShows},
		{"eviction", cfg.EvictionSpec, s.evictIdle},
		{"prune", cfg.PruneSpec, s.prune},
	}
	for _, job := range jobs {
		if job.spec == "" {
			logger.Infof("scheduler: %s sweep disabled", job.name)
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return nil, errors.Wrapf(err, "invalid schedule for %s sweep", job.name)
		}
	}
	return s, nil
}

func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.WithContext(ctx).Infof("scheduler: started %d jobs", len(s.cron.Entries()))
}

// Stop waits for running sweeps to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler: stopped")
}

func (s *Scheduler) expireNoShows() {
	s.sweeper.ExpireNoShows(s.ctx, s.queue.NoShowGrace)
}

func (s *Scheduler) evictIdle() {
	s.sweeper.EvictIdle(s.ctx, s.queue.IdleEviction)
}

func (s *Scheduler) prune() {
	s.sweeper.Prune(s.ctx, s.queue.Retention)
}
