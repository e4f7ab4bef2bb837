package constant

import "github.com/pkg/errors"

var (
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrResourceExhausted  = errors.New("queue is full")
	ErrNoActiveEntries    = errors.New("no waiting entries")
	ErrNotificationFailed = errors.New("notification failed")

	ErrInvalidEntry      = errors.New("display name and contact are required")
	ErrBusinessNotFound  = errors.New("business not found")
	ErrDispatchQueueFull = errors.New("notification queue is full")
	ErrEngineEvicted     = errors.New("queue engine evicted")
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)
