package domain

import "time"

// QueueSnapshot is the public view of a business queue pushed to live clients.
// Contacts are left out.
type QueueSnapshot struct {
	BusinessID string          `json:"business_id"`
	Entries    []SnapshotEntry `json:"entries"`
	Length     int             `json:"length"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type SnapshotEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Status      Status `json:"status"`
	Position    int    `json:"position"`
}

func NewQueueSnapshot(businessID string, active []QueueEntry, at time.Time) QueueSnapshot {
	entries := make([]SnapshotEntry, 0, len(active))
	for _, e := range active {
		entries = append(entries, SnapshotEntry{
			ID:          e.ID,
			DisplayName: e.DisplayName,
			Status:      e.Status,
			Position:    e.Position,
		})
	}
	return QueueSnapshot{
		BusinessID: businessID,
		Entries:    entries,
		Length:     len(entries),
		UpdatedAt:  at,
	}
}

// PositionView answers a customer's "where am I" lookup.
type PositionView struct {
	EntryID       string        `json:"entry_id"`
	DisplayName   string        `json:"display_name"`
	Status        Status        `json:"status"`
	Position      int           `json:"position"`
	EstimatedWait time.Duration `json:"estimated_wait"`
}
