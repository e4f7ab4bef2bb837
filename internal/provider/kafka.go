package provider

import (
	"context"
	"encoding/json"
	"time"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaProvider hands rendered messages to the SMS gateway through its
// accepted topic. The gateway owns the actual carrier delivery.
type KafkaProvider struct {
	writer messageWriter
}

func NewKafkaProvider(writer messageWriter) *KafkaProvider {
	return &KafkaProvider{writer: writer}
}

func (k *KafkaProvider) Send(ctx context.Context, msg domain.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payload")
	}

	ctx, cancel := context.WithTimeout(ctx, constant.KafkaWriteTimeout)
	defer cancel()

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to write sms to gateway topic")
	}
	return nil
}
