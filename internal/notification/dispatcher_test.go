package notification

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"lineup/queue-engine/internal/backoff"
	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu       sync.Mutex
	failures int
	sent     []domain.Message
	calls    int
}

func (p *fakeProvider) Send(_ context.Context, msg domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.failures != 0 {
		if p.failures > 0 {
			p.failures--
		}
		return errors.New("gateway unavailable")
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type memoryRecorder struct {
	mu       sync.Mutex
	outcomes []domain.NotificationOutcome
}

func (r *memoryRecorder) Record(_ context.Context, o domain.NotificationOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return nil
}

func (r *memoryRecorder) Outcomes() []domain.NotificationOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.NotificationOutcome(nil), r.outcomes...)
}

type staticDirectory map[string]string

func (s staticDirectory) Name(_ context.Context, businessID string) (string, error) {
	name, ok := s[businessID]
	if !ok {
		return "", constant.ErrBusinessNotFound
	}
	return name, nil
}

type fixture struct {
	dispatcher *Dispatcher
	provider   *fakeProvider
	recorder   *memoryRecorder
	entries    map[string]domain.QueueEntry
	failed     []domain.NotificationFailed
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	f := &fixture{
		provider: &fakeProvider{},
		recorder: &memoryRecorder{},
		entries: map[string]domain.QueueEntry{
			"e1": {ID: "e1", BusinessID: "cafe", DisplayName: "Ann", Contact: "+15550001", Status: domain.StatusNotified, Position: 1},
			"e2": {ID: "e2", BusinessID: "cafe", DisplayName: "Bob", Contact: "+15550002", Status: domain.StatusWaiting, Position: 2},
			"e3": {ID: "e3", BusinessID: "cafe", DisplayName: "Cid", Contact: "+15550003", Status: domain.StatusCancelled, Position: 3},
		},
	}
	if cfg.Backoff == nil {
		cfg.Backoff = backoff.NewConstant(0)
	}

	lookup := domain.EntryLookupFunc(func(businessID, id string) (domain.QueueEntry, error) {
		entry, ok := f.entries[id]
		if !ok || entry.BusinessID != businessID {
			return domain.QueueEntry{}, constant.ErrEntryNotFound
		}
		return entry, nil
	})
	f.dispatcher = NewDispatcher(cfg, lookup, staticDirectory{"cafe": "Cafe Central"}, f.provider, NewMemoryDeduper(), logger)
	f.dispatcher.AddRecorder(f.recorder)
	f.dispatcher.OnFailure(func(_ context.Context, event domain.NotificationFailed) {
		f.failed = append(f.failed, event)
	})
	return f
}

func intent(entryID string, reason domain.Reason) domain.NotificationIntent {
	return domain.NotificationIntent{EntryID: entryID, BusinessID: "cafe", Reason: reason}
}

func drain(d *Dispatcher) []domain.NotificationIntent {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	out := make([]domain.NotificationIntent, 0)
	for d.Len() > 0 {
		next, ok := d.Next(ctx)
		if !ok {
			break
		}
		out = append(out, next)
	}
	return out
}

func TestDispatcher_SubmitKeepsOrder(t *testing.T) {
	f := newFixture(t, Config{Capacity: 4})

	require.NoError(t, f.dispatcher.Submit(intent("e1", domain.ReasonPositionReached)))
	require.NoError(t, f.dispatcher.Submit(intent("e2", domain.ReasonYourTurnSoon)))

	got := drain(f.dispatcher)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].EntryID)
	assert.Equal(t, "e2", got[1].EntryID)
}

func TestDispatcher_FullBufferDropsOldestNonUrgent(t *testing.T) {
	f := newFixture(t, Config{Capacity: 3})

	require.NoError(t, f.dispatcher.Submit(intent("e1", domain.ReasonYourTurnSoon)))
	require.NoError(t, f.dispatcher.Submit(intent("e2", domain.ReasonPositionReached)))
	require.NoError(t, f.dispatcher.Submit(intent("e3", domain.ReasonQueueJoined)))

	require.NoError(t, f.dispatcher.Submit(intent("e4", domain.ReasonYourTurnSoon)))

	got := drain(f.dispatcher)
	f.dispatcher.Stop()

	ids := make([]string, 0, len(got))
	for _, i := range got {
		ids = append(ids, i.EntryID)
	}
	assert.Equal(t, []string{"e1", "e3", "e4"}, ids)

	outcomes := f.recorder.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, "e2", outcomes[0].EntryID)
	assert.Equal(t, domain.OutcomeDropped, outcomes[0].Status)
}

func TestDispatcher_YourTurnSoonIsNeverDropped(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2})

	require.NoError(t, f.dispatcher.Submit(intent("e1", domain.ReasonYourTurnSoon)))
	require.NoError(t, f.dispatcher.Submit(intent("e2", domain.ReasonYourTurnSoon)))

	err := f.dispatcher.Submit(intent("e3", domain.ReasonYourTurnSoon))
	assert.ErrorIs(t, err, constant.ErrDispatchQueueFull)

	// a less urgent intent is dropped rather than refused
	assert.NoError(t, f.dispatcher.Submit(intent("e3", domain.ReasonPositionReached)))

	assert.Equal(t, 2, f.dispatcher.Len())
	f.dispatcher.Stop()

	outcomes := f.recorder.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.ReasonPositionReached, outcomes[0].Reason)
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2})
	require.NoError(t, f.dispatcher.Submit(intent("e1", domain.ReasonPositionReached)))
	f.dispatcher.Stop()

	assert.ErrorIs(t, f.dispatcher.Submit(intent("e2", domain.ReasonPositionReached)), constant.ErrDispatcherStopped)

	// buffered intents are still handed out, then Next reports the end
	_, ok := f.dispatcher.Next(context.Background())
	assert.True(t, ok)
	_, ok = f.dispatcher.Next(context.Background())
	assert.False(t, ok)
}

func TestDispatcher_NextWaitsForSubmit(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2})

	got := make(chan domain.NotificationIntent, 1)
	go func() {
		next, ok := f.dispatcher.Next(context.Background())
		if ok {
			got <- next
		}
	}()

	require.NoError(t, f.dispatcher.Submit(intent("e2", domain.ReasonPositionReached)))

	select {
	case next := <-got:
		assert.Equal(t, "e2", next.EntryID)
	case <-time.After(time.Second):
		t.Fatal("worker was not woken by submit")
	}
}

func TestDispatcher_NextHonoursContext(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := f.dispatcher.Next(ctx)
	assert.False(t, ok)
}

func TestDispatcher_ProcessSends(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 3})

	f.dispatcher.Process(context.Background(), intent("e2", domain.ReasonPositionReached))

	require.Len(t, f.provider.sent, 1)
	msg := f.provider.sent[0]
	assert.Equal(t, "+15550002", msg.To)
	assert.Equal(t, "e2", msg.EntryID)
	assert.Contains(t, msg.Body, "Cafe Central")
	assert.Contains(t, msg.Body, "number 2")

	outcomes := f.recorder.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeSent, outcomes[0].Status)
	assert.Equal(t, 1, outcomes[0].Attempts)
}

func TestDispatcher_ProcessRetries(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 3})
	f.provider.failures = 2

	f.dispatcher.Process(context.Background(), intent("e1", domain.ReasonYourTurnSoon))

	assert.Equal(t, 3, f.provider.Calls())
	outcomes := f.recorder.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeSent, outcomes[0].Status)
	assert.Equal(t, 3, outcomes[0].Attempts)
	assert.Empty(t, f.failed)
}

func TestDispatcher_ProcessExhaustsRetries(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 3})
	f.provider.failures = -1

	f.dispatcher.Process(context.Background(), intent("e1", domain.ReasonYourTurnSoon))

	assert.Equal(t, 3, f.provider.Calls())

	require.Len(t, f.failed, 1)
	assert.Equal(t, "e1", f.failed[0].EntryID)
	assert.Equal(t, domain.ReasonYourTurnSoon, f.failed[0].Reason)
	assert.Equal(t, 3, f.failed[0].Attempts)
	assert.ErrorIs(t, f.failed[0].Err, constant.ErrNotificationFailed)

	outcomes := f.recorder.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.OutcomeFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Error, "gateway unavailable")
}

func TestDispatcher_ProcessStopsRetryingOnCancel(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 5, Backoff: backoff.NewConstant(time.Hour)})
	f.provider.failures = -1

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	f.dispatcher.Process(ctx, intent("e1", domain.ReasonYourTurnSoon))

	assert.Equal(t, 1, f.provider.Calls())
	require.Len(t, f.failed, 1)
	assert.Equal(t, 1, f.failed[0].Attempts)
}

func TestDispatcher_ProcessDropsDuplicates(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 3})

	f.dispatcher.Process(context.Background(), intent("e1", domain.ReasonYourTurnSoon))
	f.dispatcher.Process(context.Background(), intent("e1", domain.ReasonYourTurnSoon))
	// a different reason for the same entry is its own dispatch
	f.dispatcher.Process(context.Background(), intent("e1", domain.ReasonPositionReached))

	assert.Equal(t, 2, f.provider.Calls())

	statuses := make([]domain.OutcomeStatus, 0)
	for _, o := range f.recorder.Outcomes() {
		statuses = append(statuses, o.Status)
	}
	assert.Equal(t, []domain.OutcomeStatus{domain.OutcomeSent, domain.OutcomeDuplicate, domain.OutcomeSent}, statuses)
}

func TestDispatcher_ProcessSkipsFinishedEntries(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 3})

	f.dispatcher.Process(context.Background(), intent("e3", domain.ReasonPositionReached))
	f.dispatcher.Process(context.Background(), intent("gone", domain.ReasonPositionReached))

	assert.Equal(t, 0, f.provider.Calls())
	outcomes := f.recorder.Outcomes()
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, domain.OutcomeDropped, o.Status)
	}
}

func TestDispatcher_UnknownBusinessFallsBackToID(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 1})
	f.entries["e4"] = domain.QueueEntry{ID: "e4", BusinessID: "dmv", DisplayName: "Dee", Contact: "+15550004", Status: domain.StatusWaiting, Position: 1}

	f.dispatcher.Process(context.Background(), domain.NotificationIntent{EntryID: "e4", BusinessID: "dmv", Reason: domain.ReasonQueueJoined})

	require.Len(t, f.provider.sent, 1)
	assert.True(t, strings.Contains(f.provider.sent[0].Body, "queue at dmv"))
}

func TestDispatcher_RateLimited(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 1, RateLimit: 1000, RateBurst: 1})

	f.dispatcher.Process(context.Background(), intent("e1", domain.ReasonYourTurnSoon))
	f.dispatcher.Process(context.Background(), intent("e2", domain.ReasonPositionReached))

	assert.Equal(t, 2, f.provider.Calls())
}

func TestDispatcher_FailedLookupLeavesDedupUnclaimed(t *testing.T) {
	f := newFixture(t, Config{Capacity: 2, Attempts: 1})

	f.dispatcher.Process(context.Background(), intent("e5", domain.ReasonPositionReached))
	f.entries["e5"] = domain.QueueEntry{ID: "e5", BusinessID: "cafe", DisplayName: "Eve", Contact: "+15550005", Status: domain.StatusNotified, Position: 1}
	f.dispatcher.Process(context.Background(), intent("e5", domain.ReasonPositionReached))

	outcomes := f.recorder.Outcomes()
	require.Len(t, outcomes, 2)
	assert.Equal(t, domain.OutcomeDropped, outcomes[0].Status)
	assert.Equal(t, domain.OutcomeSent, outcomes[1].Status)
	assert.Equal(t, 1, f.provider.Calls())
}
