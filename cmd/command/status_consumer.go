package command

import (
	"context"
	"sync"
	"time"

	"lineup/queue-engine/internal/config"
	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/infra"
	"lineup/queue-engine/internal/repository"
	"lineup/queue-engine/internal/service/outcome"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type StatusConsumerCommand struct {
	Logger *log.Logger
}

func (cmd StatusConsumerCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "consume-status",
		Short: "consume notification outcomes from Kafka and store them in postgres",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.main(cfg, ctx)
		},
	}
}

func (cmd StatusConsumerCommand) main(cfg *config.Config, ctx context.Context) {
	psql, err := infra.NewPostgresClient(ctx, cfg.Database.Postgres, cmd.Logger)
	if err != nil {
		cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "consume-status : failed to connect to postgresql"))
		return
	}
	defer func() {
		if err := psql.Close(); err != nil {
			cmd.Logger.WithContext(ctx).Warnf("consume-status : failed to close postgresql: %v", err)
		}
	}()

	reader := infra.NewKafkaConsumer(cfg.Kafka, constant.TopicNotificationStatus)
	defer func() {
		if err := reader.Close(); err != nil {
			cmd.Logger.WithContext(ctx).Errorf("failed to close Kafka consumer: %v", err)
		}
	}()

	store := outcome.NewStore(repository.NewOutcomeRepository(psql.GetDb()), cmd.Logger)

	numConsumers := cfg.WorkerCount
	if numConsumers <= 0 {
		numConsumers = 4
	}
	cmd.Logger.WithContext(ctx).Infof("starting %d consumer goroutines for %s topic", numConsumers, constant.TopicNotificationStatus)

	var wg sync.WaitGroup
	for i := 0; i < numConsumers; i++ {
		wg.Add(1)
		go func(consumerID int) {
			defer wg.Done()
			for {
				m, err := reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					cmd.Logger.WithContext(ctx).Errorf("consumer %d: read error: %v", consumerID, err)
					time.Sleep(500 * time.Millisecond)
					continue
				}

				if err := store.HandleMessage(ctx, m); err != nil {
					// poison messages are logged and committed, never retried
					cmd.Logger.WithContext(ctx).Errorf("consumer %d: %v, raw: %s", consumerID, err, string(m.Value))
				}

				if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
					cmd.Logger.WithContext(ctx).Warnf("consumer %d: commit failed: %v", consumerID, err)
				}
			}
		}(i)
	}

	cmd.Logger.WithContext(ctx).Info("status consumer started successfully")

	<-ctx.Done()
	cmd.Logger.WithContext(ctx).Info("status consumer: shutting down gracefully...")
	wg.Wait()
}
