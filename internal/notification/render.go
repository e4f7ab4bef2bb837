package notification

import (
	"fmt"

	"lineup/queue-engine/internal/domain"
)

const (
	joinedTemplate   = "Hi %s, you've been added to the queue at %s. You are number %d in line. We'll notify you as your turn approaches."
	positionTemplate = "Hi %s, your position at %s has been updated. You are now number %d in line."
	turnTemplate     = "Hi %s, it's your turn at %s! You are number %d in line. Please proceed to the counter/desk."
)

// Render builds the SMS body for an intent from the entry's current state.
func Render(reason domain.Reason, entry domain.QueueEntry, businessName string) string {
	switch reason {
	case domain.ReasonQueueJoined:
		return fmt.Sprintf(joinedTemplate, entry.DisplayName, businessName, entry.Position)
	case domain.ReasonYourTurnSoon:
		return fmt.Sprintf(turnTemplate, entry.DisplayName, businessName, entry.Position)
	default:
		return fmt.Sprintf(positionTemplate, entry.DisplayName, businessName, entry.Position)
	}
}
