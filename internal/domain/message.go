package domain

import "time"

// Message is a rendered SMS ready for a provider.
type Message struct {
	ID         string    `json:"message_id"`
	EntryID    string    `json:"entry_id"`
	BusinessID string    `json:"business_id"`
	To         string    `json:"to"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
