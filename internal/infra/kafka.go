package infra

import (
	"fmt"
	"time"

	"lineup/queue-engine/internal/config"
	"lineup/queue-engine/internal/constant"

	"github.com/segmentio/kafka-go"
)

func NewKafkaWriter(cfg config.Kafka, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           constant.KafkaProducerAcks,
		Async:                  false, // the dispatcher retries on its own
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              1024,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaConsumer(cfg config.Kafka, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		GroupID:        cfg.GroupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}
