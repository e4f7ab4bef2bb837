package domain

import "context"

// IntentSink accepts notification intents without blocking on delivery.
type IntentSink interface {
	Submit(intent NotificationIntent) error
}

// EntryLookup resolves the entry an intent targets through its business.
type EntryLookup interface {
	Entry(businessID, entryID string) (QueueEntry, error)
}

type BusinessDirectory interface {
	Name(ctx context.Context, businessID string) (string, error)
}

// EntryLookupFunc adapts a function to EntryLookup.
type EntryLookupFunc func(businessID, entryID string) (QueueEntry, error)

func (f EntryLookupFunc) Entry(businessID, entryID string) (QueueEntry, error) {
	return f(businessID, entryID)
}
