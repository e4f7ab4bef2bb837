package domain

import "time"

// QueueEntry is one customer in a business queue. NotifiedAt records the first
// notification of any kind, CalledAt only the Advance that asks the customer to
// come to the counter.
type QueueEntry struct {
	ID           string     `json:"id"`
	BusinessID   string     `json:"business_id"`
	DisplayName  string     `json:"display_name"`
	Contact      string     `json:"contact"`
	JoinSequence uint64     `json:"join_sequence"`
	Status       Status     `json:"status"`
	Position     int        `json:"position"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
	CalledAt     *time.Time `json:"called_at,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	// Version is the engine mutation sequence at which the entry last changed.
	Version uint64 `json:"version"`
}

type Admission struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}
