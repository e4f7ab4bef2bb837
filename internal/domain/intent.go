package domain

import "time"

type Reason string

const (
	ReasonYourTurnSoon    Reason = "your_turn_soon"
	ReasonPositionReached Reason = "position_reached"
	ReasonQueueJoined     Reason = "queue_joined"
)

// NotificationIntent is produced by a queue engine and consumed by the dispatcher.
type NotificationIntent struct {
	EntryID         string    `json:"entry_id"`
	BusinessID      string    `json:"business_id"`
	Reason          Reason    `json:"reason"`
	TriggerPosition int       `json:"trigger_position"`
	CreatedAt       time.Time `json:"created_at"`
}

type NotificationFailed struct {
	EntryID    string `json:"entry_id"`
	BusinessID string `json:"business_id"`
	Reason     Reason `json:"reason"`
	Attempts   int    `json:"attempts"`
	Err        error  `json:"-"`
}

type OutcomeStatus string

const (
	OutcomeSent      OutcomeStatus = "sent"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeDuplicate OutcomeStatus = "duplicate"
	OutcomeDropped   OutcomeStatus = "dropped"
)

type NotificationOutcome struct {
	ID         string        `json:"id"`
	EntryID    string        `json:"entry_id"`
	BusinessID string        `json:"business_id"`
	Reason     Reason        `json:"reason"`
	Status     OutcomeStatus `json:"status"`
	Attempts   int           `json:"attempts"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
