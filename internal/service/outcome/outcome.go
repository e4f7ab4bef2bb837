package outcome

import (
	"context"
	"encoding/json"
	"time"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

func (p *publisher) Record(ctx context.Context, outcome domain.NotificationOutcome) error {
	marshalled, err := json.Marshal(outcome)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payload")
	}

	ctx, cancel := context.WithTimeout(ctx, constant.KafkaWriteTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(outcome.EntryID),
		Value: marshalled,
		Time:  time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to write messages")
	}

	return nil
}

func (s *store) Record(ctx context.Context, outcome domain.NotificationOutcome) error {
	err := s.outcomeRepository.Insert(ctx, outcome)
	if errors.Is(err, constant.ErrDuplicateEntry) {
		// redelivered message
		s.logger.WithContext(ctx).Debugf("outcome %s already stored", outcome.ID)
		return nil
	}
	return err
}

// HandleMessage decodes one status topic message and stores it.
func (s *store) HandleMessage(ctx context.Context, m kafka.Message) error {
	var outcome domain.NotificationOutcome
	if err := json.Unmarshal(m.Value, &outcome); err != nil {
		return errors.Wrapf(err, "invalid payload at offset %d", m.Offset)
	}
	if outcome.ID == "" {
		return errors.Errorf("outcome without id at offset %d", m.Offset)
	}

	return s.Record(ctx, outcome)
}
