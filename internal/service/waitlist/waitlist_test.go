package waitlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"
	"lineup/queue-engine/internal/queue"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type knownBusinesses map[string]bool

func (k knownBusinesses) Exists(_ context.Context, id string) error {
	if !k[id] {
		return errors.Wrapf(constant.ErrBusinessNotFound, "business %s", id)
	}
	return nil
}

type memoryEntries struct {
	mu   sync.Mutex
	rows map[string]domain.QueueEntry
	err  error
}

func (m *memoryEntries) Save(_ context.Context, entries ...domain.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	for _, e := range entries {
		if old, ok := m.rows[e.ID]; ok && old.Version >= e.Version {
			continue
		}
		m.rows[e.ID] = e
	}
	return nil
}

func (m *memoryEntries) Get(_ context.Context, id string) (domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.rows[id]
	if !ok {
		return domain.QueueEntry{}, constant.ErrEntryNotFound
	}
	return e, nil
}

type lastSnapshot struct {
	mu        sync.Mutex
	snapshots map[string]domain.QueueSnapshot
}

func (l *lastSnapshot) Broadcast(businessID string, s domain.QueueSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots[businessID] = s
}

type fixture struct {
	svc      *waitlistService
	registry *queue.Registry
	entries  *memoryEntries
	live     *lastSnapshot
}

func newFixture(t *testing.T, cfg queue.Config) *fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	f := &fixture{
		registry: queue.NewRegistry(cfg, nil, logger),
		entries:  &memoryEntries{rows: map[string]domain.QueueEntry{}},
		live:     &lastSnapshot{snapshots: map[string]domain.QueueSnapshot{}},
	}
	f.svc = NewWaitlistService(f.registry, knownBusinesses{"cafe": true, "dmv": true}, f.entries, f.live, logger)
	return f
}

func TestWaitlist_JoinPersistsAndBroadcasts(t *testing.T) {
	f := newFixture(t, queue.Config{NotifyThreshold: 1})
	ctx := context.Background()

	a, err := f.svc.Join(ctx, "cafe", "Ann", "+15550001")
	require.NoError(t, err)
	b, err := f.svc.Join(ctx, "cafe", "Bob", "+15550002")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Position)

	assert.Equal(t, domain.StatusNotified, f.entries.rows[a.ID].Status)
	assert.Equal(t, 2, f.entries.rows[b.ID].Position)

	snap := f.live.snapshots["cafe"]
	require.Equal(t, 2, snap.Length)
	assert.Equal(t, "Ann", snap.Entries[0].DisplayName)
	assert.Equal(t, b.ID, snap.Entries[1].ID)
}

func TestWaitlist_UnknownBusiness(t *testing.T) {
	f := newFixture(t, queue.Config{})
	ctx := context.Background()

	_, err := f.svc.Join(ctx, "nowhere", "Ann", "+15550001")
	assert.ErrorIs(t, err, constant.ErrBusinessNotFound)
	_, err = f.svc.Advance(ctx, "nowhere")
	assert.ErrorIs(t, err, constant.ErrBusinessNotFound)
	_, err = f.svc.Queue(ctx, "nowhere")
	assert.ErrorIs(t, err, constant.ErrBusinessNotFound)
	assert.Empty(t, f.registry.Businesses())
}

func TestWaitlist_CancelRenumbersStoredEntries(t *testing.T) {
	f := newFixture(t, queue.Config{})
	ctx := context.Background()

	a, err := f.svc.Join(ctx, "cafe", "Ann", "+15550001")
	require.NoError(t, err)
	b, err := f.svc.Join(ctx, "cafe", "Bob", "+15550002")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	assert.Equal(t, domain.StatusCancelled, f.entries.rows[a.ID].Status)
	assert.Equal(t, 1, f.entries.rows[b.ID].Position)
	assert.Equal(t, 1, f.live.snapshots["cafe"].Length)
}

func TestWaitlist_ServeFlow(t *testing.T) {
	f := newFixture(t, queue.Config{})
	ctx := context.Background()

	a, err := f.svc.Join(ctx, "cafe", "Ann", "+15550001")
	require.NoError(t, err)

	_, err = f.svc.MarkServing(ctx, a.ID)
	assert.ErrorIs(t, err, constant.ErrInvalidTransition)

	notified, err := f.svc.Advance(ctx, "cafe")
	require.NoError(t, err)
	assert.Equal(t, a.ID, notified.ID)

	_, err = f.svc.Advance(ctx, "cafe")
	assert.ErrorIs(t, err, constant.ErrNoActiveEntries)

	_, err = f.svc.MarkServing(ctx, a.ID)
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusServed, done.Status)

	stats, err := f.svc.Stats(ctx, "cafe")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalServed)

	history, err := f.svc.History(ctx, "cafe")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, a.ID, history[0].EntryID)
}

func TestWaitlist_Position(t *testing.T) {
	f := newFixture(t, queue.Config{})
	ctx := context.Background()

	_, err := f.svc.Join(ctx, "cafe", "Ann", "+15550001")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, "cafe", "Bob", "+15550002")
	require.NoError(t, err)

	view, err := f.svc.Position(ctx, "cafe", "+15550002")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Position)
	// no history yet, five minutes per person
	assert.Equal(t, 10*time.Minute, view.EstimatedWait)

	_, err = f.svc.Position(ctx, "dmv", "+15550002")
	assert.ErrorIs(t, err, constant.ErrEntryNotFound)
}

func TestWaitlist_ResetAndReadBack(t *testing.T) {
	f := newFixture(t, queue.Config{})
	ctx := context.Background()

	a, err := f.svc.Join(ctx, "cafe", "Ann", "+15550001")
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, "cafe", "Bob", "+15550002")
	require.NoError(t, err)

	n, err := f.svc.Reset(ctx, "cafe")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, domain.StatusCancelled, f.entries.rows[a.ID].Status)

	queued, err := f.svc.Queue(ctx, "cafe")
	require.NoError(t, err)
	assert.Empty(t, queued)

	// entries forgotten by the engine are still served from the store
	require.Equal(t, 2, f.registry.Prune(-time.Hour))
	entry, err := f.svc.Entry(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, entry.Status)
}

func TestWaitlist_PersistenceFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, queue.Config{})
	f.entries.err = errors.New("db down")

	adm, err := f.svc.Join(context.Background(), "cafe", "Ann", "+15550001")
	require.NoError(t, err)
	assert.Equal(t, 1, adm.Position)
	assert.Equal(t, 1, f.live.snapshots["cafe"].Length)
}

func TestWaitlist_ExpireNoShows(t *testing.T) {
	f := newFixture(t, queue.Config{NotifyThreshold: 1})
	ctx := context.Background()

	a, err := f.svc.Join(ctx, "cafe", "Ann", "+15550001")
	require.NoError(t, err)
	b, err := f.svc.Join(ctx, "cafe", "Bob", "+15550002")
	require.NoError(t, err)
	c, err := f.svc.Join(ctx, "cafe", "Cid", "+15550003")
	require.NoError(t, err)

	// Ann is notified by the threshold, Bob is called to the counter
	called, err := f.svc.Advance(ctx, "cafe")
	require.NoError(t, err)
	require.Equal(t, b.ID, called.ID)

	assert.Equal(t, 0, f.svc.ExpireNoShows(ctx, 5*time.Minute))

	f.svc.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	assert.Equal(t, 1, f.svc.ExpireNoShows(ctx, 5*time.Minute))

	entry, err := f.svc.Entry(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoShow, entry.Status)

	head, err := f.svc.Entry(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotified, head.Status)

	next, err := f.svc.Entry(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Position)
	assert.Equal(t, domain.StatusWaiting, next.Status)
}

func TestWaitlist_ExpireNoShowsSparesHeadBehindSlowService(t *testing.T) {
	f := newFixture(t, queue.Config{NotifyThreshold: 1})
	ctx := context.Background()

	a, err := f.svc.Join(ctx, "cafe", "Ann", "+15550001")
	require.NoError(t, err)
	b, err := f.svc.Join(ctx, "cafe", "Bob", "+15550002")
	require.NoError(t, err)

	_, err = f.svc.MarkServing(ctx, a.ID)
	require.NoError(t, err)

	// Ann takes longer than the grace period at the counter
	f.svc.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	assert.Equal(t, 0, f.svc.ExpireNoShows(ctx, 5*time.Minute))

	serving, err := f.svc.Entry(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusServing, serving.Status)

	head, err := f.svc.Entry(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotified, head.Status)
	assert.Equal(t, 1, head.Position)
	assert.Nil(t, head.CalledAt)
}
