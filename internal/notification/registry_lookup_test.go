package notification

import (
	"context"
	"sync"
	"testing"

	"lineup/queue-engine/internal/domain"
	"lineup/queue-engine/internal/queue"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSink struct {
	mu      sync.Mutex
	intents []domain.NotificationIntent
}

func (s *capturingSink) Submit(intent domain.NotificationIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = append(s.intents, intent)
	return nil
}

// Intents emitted during admission must resolve before the registry has
// indexed the new entry.
func TestDispatcher_ResolvesEntriesThroughBusiness(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sink := &capturingSink{}
	registry := queue.NewRegistry(queue.Config{NotifyThreshold: 1, SendConfirmation: true}, sink, logger)

	provider := &fakeProvider{}
	recorder := &memoryRecorder{}
	lookup := domain.EntryLookupFunc(registry.BusinessEntry)
	d := NewDispatcher(Config{Capacity: 4, Attempts: 1}, lookup, staticDirectory{"cafe": "Cafe Central"}, provider, NewMemoryDeduper(), logger)
	d.AddRecorder(recorder)

	// admit on the engine only, as Registry.Admit does before it indexes the id
	adm, err := registry.GetOrCreate("cafe").Admit("Ann", "+15550001")
	require.NoError(t, err)
	_, err = registry.Entry(adm.ID)
	require.Error(t, err)

	require.Len(t, sink.intents, 2)
	for _, in := range sink.intents {
		d.Process(context.Background(), in)
	}

	for _, o := range recorder.Outcomes() {
		assert.Equal(t, domain.OutcomeSent, o.Status, "reason %s: %s", o.Reason, o.Error)
	}
	require.Len(t, provider.sent, 2)
	assert.Equal(t, "+15550001", provider.sent[0].To)
}
