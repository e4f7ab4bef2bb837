package command

import (
	"context"
	"fmt"

	"lineup/queue-engine/internal/api"
	"lineup/queue-engine/internal/api/handler/business"
	queueHandler "lineup/queue-engine/internal/api/handler/queue"
	"lineup/queue-engine/internal/api/ws"
	"lineup/queue-engine/internal/backoff"
	"lineup/queue-engine/internal/config"
	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"
	"lineup/queue-engine/internal/infra"
	"lineup/queue-engine/internal/metrics"
	"lineup/queue-engine/internal/notification"
	"lineup/queue-engine/internal/provider"
	"lineup/queue-engine/internal/queue"
	"lineup/queue-engine/internal/repository"
	"lineup/queue-engine/internal/scheduler"
	businessService "lineup/queue-engine/internal/service/business"
	"lineup/queue-engine/internal/service/outcome"
	"lineup/queue-engine/internal/service/waitlist"
	"lineup/queue-engine/internal/worker"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type Server struct {
	Logger *logrus.Logger
}

func (cmd Server) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "run queue server",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.main(cfg, ctx)
		},
	}
}

func (cmd Server) main(cfg *config.Config, ctx context.Context) {
	if err := cfg.Validate(); err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : invalid configuration"))
		return
	}

	psql, err := infra.NewPostgresClient(ctx, cfg.Database.Postgres, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : failed to connect to postgresql"))
		return
	}
	defer func() {
		if err := psql.Close(); err != nil {
			cmd.Logger.WithContext(ctx).Warnf("server : failed to close postgresql: %v", err)
		}
	}()

	redisClient, err := infra.NewRedisClient(ctx, cfg.Database.Redis, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : failed to connect to redis"))
		return
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			cmd.Logger.WithContext(ctx).Warnf("server : failed to close redis: %v", err)
		}
	}()

	// create repositories
	businessRepository := repository.NewBusinessRepository(psql.GetDb())
	entryRepository := repository.NewEntryRepository(psql.GetDb())
	outcomeRepository := repository.NewOutcomeRepository(psql.GetDb())

	// set business names in redis for the dispatcher
	businessServiceInstance := businessService.NewBusinessService(businessRepository, redisClient, cmd.Logger)
	n, err := businessServiceInstance.WarmCache(ctx)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : failed to warm business cache"))
		return
	}
	cmd.Logger.WithContext(ctx).Infof("cached %d businesses", n)

	// the dispatcher reads entries back from the registry it is a sink for
	var registry *queue.Registry
	lookup := domain.EntryLookupFunc(func(businessID, entryID string) (domain.QueueEntry, error) {
		return registry.BusinessEntry(businessID, entryID)
	})

	smsProvider := provider.NewStubProvider(cmd.Logger)
	if cfg.Kafka.Enabled {
		gatewayWriter := infra.NewKafkaWriter(cfg.Kafka, constant.TopicSmsAccepted)
		defer closeWriter(ctx, cmd.Logger, gatewayWriter.Close)
		smsProvider = provider.NewKafkaProvider(gatewayWriter)
	}

	dispatcher := notification.NewDispatcher(
		notification.Config{
			Capacity:  cfg.Notification.QueueCapacity,
			Attempts:  cfg.Notification.Attempts,
			Backoff:   backoff.NewExponential(cfg.Notification.BackoffInitial, cfg.Notification.BackoffMax),
			RateLimit: cfg.Notification.RateLimit,
			RateBurst: cfg.Notification.RateBurst,
		},
		lookup,
		businessServiceInstance,
		smsProvider,
		notification.NewRedisDeduper(redisClient, constant.RedisDedupTTL),
		cmd.Logger,
	)

	registry = queue.NewRegistry(queue.Config{
		NotifyThreshold:  cfg.Queue.NotifyThreshold,
		MaxActive:        cfg.Queue.MaxActive,
		SendConfirmation: cfg.Queue.SendConfirmation,
	}, dispatcher, cmd.Logger)

	metricsCollector := metrics.New(registry, dispatcher)
	dispatcher.AddRecorder(metricsCollector)
	if cfg.Kafka.Enabled {
		statusWriter := infra.NewKafkaWriter(cfg.Kafka, constant.TopicNotificationStatus)
		defer closeWriter(ctx, cmd.Logger, statusWriter.Close)
		dispatcher.AddRecorder(outcome.NewPublisher(statusWriter))
	} else {
		dispatcher.AddRecorder(outcome.NewStore(outcomeRepository, cmd.Logger))
	}
	dispatcher.OnFailure(func(ctx context.Context, event domain.NotificationFailed) {
		cmd.Logger.WithContext(ctx).WithFields(logrus.Fields{
			"business_id": event.BusinessID,
			"entry_id":    event.EntryID,
			"reason":      event.Reason,
			"attempts":    event.Attempts,
		}).Error(event.Err)
	})

	hub := ws.NewHub(cmd.Logger)
	go hub.Run(ctx)

	waitlistServiceInstance := waitlist.NewWaitlistService(
		registry,
		businessServiceInstance,
		entryRepository,
		hub,
		cmd.Logger,
	)

	sweeps, err := scheduler.New(cfg.Scheduler, cfg.Queue, waitlistServiceInstance, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "server : failed to create scheduler"))
		return
	}

	// start background workers; they outlive ctx until the dispatcher is drained
	pool := worker.NewWorkerPool(dispatcher, cfg.WorkerCount, cmd.Logger)
	pool.Start(context.WithoutCancel(ctx))
	sweeps.Start(ctx)

	// Graceful shutdown handler
	defer func() {
		cmd.Logger.Info("shutting down background workers...")
		sweeps.Stop()
		dispatcher.Stop()
		pool.Wait()
		cmd.Logger.Info("background workers stopped")
	}()

	// create handlers
	server := api.New(cfg.AppEnv, cmd.Logger)
	server.SetupAPIRoutes(
		queueHandler.New(waitlistServiceInstance, hub),
		business.New(businessServiceInstance),
		metricsCollector.Handler(),
	)

	// run the server
	if err := server.Serve(ctx, fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
		cmd.Logger.WithContext(ctx).Error(err)
	}
}

func closeWriter(ctx context.Context, logger *logrus.Logger, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.WithContext(ctx).Warnf("failed to close kafka writer: %v", err)
	}
}
