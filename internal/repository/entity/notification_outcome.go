package entity

import (
	"time"

	"lineup/queue-engine/internal/domain"
)

type NotificationOutcome struct {
	ID         string `gorm:"primary_key"`
	EntryID    string
	BusinessID string
	Reason     string
	Status     string
	Attempts   int
	Error      string
	CreatedAt  time.Time
}

func (NotificationOutcome) TableName() string {
	return "notification_outcomes"
}

func NewNotificationOutcome(o domain.NotificationOutcome) NotificationOutcome {
	return NotificationOutcome{
		ID:         o.ID,
		EntryID:    o.EntryID,
		BusinessID: o.BusinessID,
		Reason:     string(o.Reason),
		Status:     string(o.Status),
		Attempts:   o.Attempts,
		Error:      o.Error,
		CreatedAt:  o.CreatedAt,
	}
}

func (n NotificationOutcome) ToDomain() domain.NotificationOutcome {
	return domain.NotificationOutcome{
		ID:         n.ID,
		EntryID:    n.EntryID,
		BusinessID: n.BusinessID,
		Reason:     domain.Reason(n.Reason),
		Status:     domain.OutcomeStatus(n.Status),
		Attempts:   n.Attempts,
		Error:      n.Error,
		CreatedAt:  n.CreatedAt,
	}
}
