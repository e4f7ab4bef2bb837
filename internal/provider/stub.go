package provider

import (
	"context"

	"lineup/queue-engine/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Send only logs the message. Used in local and test environments.
func (s *StubProvider) Send(ctx context.Context, msg domain.Message) error {
	s.logger.WithContext(ctx).WithFields(log.Fields{
		"message_id": msg.ID,
		"to":         msg.To,
	}).Infof("sms sent successfully: %s", msg.Body)
	return nil
}
