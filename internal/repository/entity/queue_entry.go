package entity

import (
	"time"

	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
)

type QueueEntry struct {
	ID           string `gorm:"primary_key"`
	BusinessID   string
	DisplayName  string
	Contact      string
	JoinSequence uint64
	Status       string
	Position     int
	NotifiedAt   *time.Time
	CalledAt     *time.Time
	JoinedAt     time.Time
	FinishedAt   *time.Time
	Version      uint64
	UpdatedAt    time.Time
}

func (QueueEntry) TableName() string {
	return "queue_entries"
}

func NewQueueEntry(e domain.QueueEntry) QueueEntry {
	return QueueEntry{
		ID:           e.ID,
		BusinessID:   e.BusinessID,
		DisplayName:  e.DisplayName,
		Contact:      e.Contact,
		JoinSequence: e.JoinSequence,
		Status:       string(e.Status),
		Position:     e.Position,
		NotifiedAt:   e.NotifiedAt,
		CalledAt:     e.CalledAt,
		JoinedAt:     e.JoinedAt,
		FinishedAt:   e.FinishedAt,
		Version:      e.Version,
	}
}

// ToDomain converts a stored row. Rows carrying a status this build does not
// know are rejected.
func (q QueueEntry) ToDomain() (domain.QueueEntry, error) {
	status := domain.Status(q.Status)
	if !status.Valid() {
		return domain.QueueEntry{}, errors.Errorf("queue entry %s has unknown status %q", q.ID, q.Status)
	}

	return domain.QueueEntry{
		ID:           q.ID,
		BusinessID:   q.BusinessID,
		DisplayName:  q.DisplayName,
		Contact:      q.Contact,
		JoinSequence: q.JoinSequence,
		Status:       status,
		Position:     q.Position,
		NotifiedAt:   q.NotifiedAt,
		CalledAt:     q.CalledAt,
		JoinedAt:     q.JoinedAt,
		FinishedAt:   q.FinishedAt,
		Version:      q.Version,
	}, nil
}
