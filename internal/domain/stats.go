package domain

import "time"

// defaultWaitPerPerson is the estimate used before anyone has been served.
const defaultWaitPerPerson = 5 * time.Minute

type Statistics struct {
	BusinessID         string        `json:"business_id"`
	TotalServed        int           `json:"total_served"`
	AvgWaitTime        time.Duration `json:"avg_wait_time"`
	PeakQueueLength    int           `json:"peak_queue_length"`
	CurrentQueueLength int           `json:"current_queue_length"`
}

// EstimatedWait estimates how long an entry at the given position still waits.
func (s Statistics) EstimatedWait(position int) time.Duration {
	if position <= 0 {
		return 0
	}
	if s.AvgWaitTime > 0 {
		return s.AvgWaitTime * time.Duration(position)
	}
	return defaultWaitPerPerson * time.Duration(position)
}

type HistoryItem struct {
	EntryID     string        `json:"entry_id"`
	DisplayName string        `json:"display_name"`
	WaitTime    time.Duration `json:"wait_time"`
	JoinedAt    time.Time     `json:"joined_at"`
	CompletedAt time.Time     `json:"completed_at"`
}
