package queue

import (
	"strings"
	"sync"
	"time"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// NotifyThreshold notifies waiting entries whose position is at most this value. Zero disables it.
	NotifyThreshold int
	// MaxActive caps waiting+notified entries. Zero means unlimited.
	MaxActive int
	// SendConfirmation emits a queue_joined intent on every admission.
	SendConfirmation bool
}

// Engine owns the queue of one business. Every method runs under mu, so a
// recomputation and the intents it produces are never observed half done.
type Engine struct {
	mu         sync.Mutex
	businessID string
	cfg        Config
	store      *EntryStore
	sink       domain.IntentSink
	logger     *logrus.Logger
	now        func() time.Time

	sequence     uint64
	version      uint64
	lastMutation time.Time
	evicted      bool

	stats   domain.Statistics
	history []domain.HistoryItem
}

func NewEngine(businessID string, cfg Config, sink domain.IntentSink, logger *logrus.Logger) *Engine {
	if sink == nil {
		sink = nopSink{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	e := &Engine{
		businessID: businessID,
		cfg:        cfg,
		store:      NewEntryStore(),
		sink:       sink,
		logger:     logger,
		now:        time.Now,
		stats:      domain.Statistics{BusinessID: businessID},
		history:    make([]domain.HistoryItem, 0),
	}
	e.lastMutation = e.now()
	return e
}

func (e *Engine) BusinessID() string {
	return e.businessID
}

func (e *Engine) Admit(displayName, contact string) (domain.Admission, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evicted {
		return domain.Admission{}, constant.ErrEngineEvicted
	}

	displayName = strings.TrimSpace(displayName)
	contact = strings.TrimSpace(contact)
	if displayName == "" || contact == "" {
		return domain.Admission{}, constant.ErrInvalidEntry
	}

	active := len(e.store.active())
	if e.cfg.MaxActive > 0 && active >= e.cfg.MaxActive {
		return domain.Admission{}, errors.Wrapf(constant.ErrResourceExhausted,
			"business %s has %d active entries", e.businessID, active)
	}

	now := e.now()
	entry := domain.QueueEntry{
		ID:           uuid.NewString(),
		BusinessID:   e.businessID,
		DisplayName:  displayName,
		Contact:      contact,
		JoinSequence: e.sequence + 1,
		Status:       domain.StatusWaiting,
		Position:     active + 1,
		JoinedAt:     now,
		Version:      e.version + 1,
	}
	if err := e.store.Add(entry); err != nil {
		return domain.Admission{}, err
	}
	e.sequence++
	v := e.touch(now)

	if e.cfg.SendConfirmation {
		e.submit(entry, domain.ReasonQueueJoined)
	}
	e.recompute(v, now)

	added, _ := e.store.lookup(entry.ID)
	return domain.Admission{ID: added.ID, Position: added.Position}, nil
}

func (e *Engine) Cancel(id string) (domain.QueueEntry, error) {
	return e.transition(id, domain.StatusCancelled)
}

func (e *Engine) MarkServing(id string) (domain.QueueEntry, error) {
	return e.transition(id, domain.StatusServing)
}

func (e *Engine) Complete(id string) (domain.QueueEntry, error) {
	return e.transition(id, domain.StatusServed)
}

func (e *Engine) MarkNoShow(id string) (domain.QueueEntry, error) {
	return e.transition(id, domain.StatusNoShow)
}

// Advance notifies the first waiting entry that its turn is near. The intent is
// handed to the sink before the entry changes, so a refused intent leaves the
// queue untouched and the caller may retry.
func (e *Engine) Advance() (domain.QueueEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evicted {
		return domain.QueueEntry{}, constant.ErrEngineEvicted
	}

	var next *domain.QueueEntry
	for _, entry := range e.store.active() {
		if entry.Status == domain.StatusWaiting {
			next = entry
			break
		}
	}
	if next == nil {
		return domain.QueueEntry{}, constant.ErrNoActiveEntries
	}

	if err := e.sink.Submit(e.intent(*next, domain.ReasonYourTurnSoon)); err != nil {
		return domain.QueueEntry{}, errors.Wrapf(err, "advance business %s", e.businessID)
	}

	now := e.now()
	if err := e.store.UpdateStatus(next.ID, domain.StatusNotified); err != nil {
		return domain.QueueEntry{}, err
	}
	next.NotifiedAt = &now
	next.CalledAt = &now
	next.Version = e.touch(now)

	return *next, nil
}

// PositionOf returns the live position of an entry, or 0 once it has left the line.
func (e *Engine) PositionOf(id string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.store.lookup(id)
	if err != nil {
		return 0, err
	}
	if !entry.Status.IsActive() {
		return 0, nil
	}
	return entry.Position, nil
}

func (e *Engine) Entry(id string) (domain.QueueEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.Get(id)
}

func (e *Engine) Active() []domain.QueueEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.OrderedActive()
}

// FindByContact returns the active entry registered with the given contact.
func (e *Engine) FindByContact(contact string) (domain.QueueEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	contact = strings.TrimSpace(contact)
	for _, entry := range e.store.active() {
		if entry.Contact == contact {
			return *entry, nil
		}
	}
	return domain.QueueEntry{}, errors.Wrapf(constant.ErrEntryNotFound, "contact %s", contact)
}

func (e *Engine) Stats() domain.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := e.stats
	stats.CurrentQueueLength = len(e.store.active())
	return stats
}

// History returns served entries, most recent first.
func (e *Engine) History() []domain.HistoryItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.HistoryItem, len(e.history))
	for i, item := range e.history {
		out[len(e.history)-1-i] = item
	}
	return out
}

// Reset cancels every waiting and notified entry and returns the cancelled entries.
func (e *Engine) Reset() ([]domain.QueueEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evicted {
		return nil, constant.ErrEngineEvicted
	}

	active := e.store.active()
	cancelled := make([]domain.QueueEntry, 0, len(active))
	if len(active) == 0 {
		return cancelled, nil
	}

	now := e.now()
	v := e.touch(now)
	for _, entry := range active {
		if err := e.store.UpdateStatus(entry.ID, domain.StatusCancelled); err != nil {
			return nil, err
		}
		entry.FinishedAt = &now
		entry.Version = v
	}
	e.recompute(v, now)

	for _, entry := range active {
		cancelled = append(cancelled, *entry)
	}
	e.logger.Infof("queue %s reset: %d entries cancelled", e.businessID, len(cancelled))
	return cancelled, nil
}

// OverdueNotified lists notified entries that were called to the counter
// before cutoff. Entries notified only by the position threshold are still
// waiting for their turn and never count as overdue.
func (e *Engine) OverdueNotified(cutoff time.Time) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0)
	for _, entry := range e.store.active() {
		if entry.Status == domain.StatusNotified && entry.CalledAt != nil && entry.CalledAt.Before(cutoff) {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}

// Prune drops terminal entries that finished before cutoff and returns their ids.
func (e *Engine) Prune(cutoff time.Time) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0)
	for _, entry := range e.store.all() {
		if entry.Status.IsTerminal() && entry.FinishedAt != nil && entry.FinishedAt.Before(cutoff) {
			ids = append(ids, entry.ID)
		}
	}
	for _, id := range ids {
		_ = e.store.Remove(id)
	}
	return ids
}

func (e *Engine) transition(id string, next domain.Status) (domain.QueueEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evicted {
		return domain.QueueEntry{}, constant.ErrEngineEvicted
	}

	entry, err := e.store.lookup(id)
	if err != nil {
		return domain.QueueEntry{}, err
	}
	if err := e.store.UpdateStatus(id, next); err != nil {
		return domain.QueueEntry{}, err
	}

	now := e.now()
	v := e.touch(now)
	entry.Version = v
	if next.IsTerminal() {
		entry.FinishedAt = &now
	}
	if next == domain.StatusServed {
		e.recordServed(entry, now)
	}
	e.recompute(v, now)

	return *entry, nil
}

// recompute renumbers active entries 1..N in join order, then notifies every
// waiting entry that reached the threshold.
func (e *Engine) recompute(version uint64, now time.Time) {
	active := e.store.active()
	for i, entry := range active {
		if entry.Position != i+1 {
			entry.Position = i + 1
			entry.Version = version
		}
	}

	if len(active) > e.stats.PeakQueueLength {
		e.stats.PeakQueueLength = len(active)
	}

	if e.cfg.NotifyThreshold <= 0 {
		return
	}

	for _, entry := range active {
		if entry.Position > e.cfg.NotifyThreshold {
			break
		}
		if entry.Status != domain.StatusWaiting || entry.NotifiedAt != nil {
			continue
		}
		if err := e.store.UpdateStatus(entry.ID, domain.StatusNotified); err != nil {
			e.logger.Errorf("queue %s: threshold notify: %v", e.businessID, err)
			continue
		}
		notifiedAt := now
		entry.NotifiedAt = &notifiedAt
		entry.Version = version
		e.submit(*entry, domain.ReasonPositionReached)
	}
}

// submit hands an intent to the sink. A refused intent is logged, never retried:
// delivery must not hold the queue back.
func (e *Engine) submit(entry domain.QueueEntry, reason domain.Reason) {
	if err := e.sink.Submit(e.intent(entry, reason)); err != nil {
		e.logger.WithFields(logrus.Fields{
			"business_id": e.businessID,
			"entry_id":    entry.ID,
			"reason":      reason,
		}).Warnf("notification intent not accepted: %v", err)
	}
}

func (e *Engine) intent(entry domain.QueueEntry, reason domain.Reason) domain.NotificationIntent {
	return domain.NotificationIntent{
		EntryID:         entry.ID,
		BusinessID:      e.businessID,
		Reason:          reason,
		TriggerPosition: entry.Position,
		CreatedAt:       e.now(),
	}
}

func (e *Engine) recordServed(entry *domain.QueueEntry, now time.Time) {
	wait := now.Sub(entry.JoinedAt)

	e.stats.TotalServed++
	e.stats.AvgWaitTime += (wait - e.stats.AvgWaitTime) / time.Duration(e.stats.TotalServed)

	if len(e.history) >= constant.HistoryLimit {
		e.history = e.history[1:]
	}
	e.history = append(e.history, domain.HistoryItem{
		EntryID:     entry.ID,
		DisplayName: entry.DisplayName,
		WaitTime:    wait,
		JoinedAt:    entry.JoinedAt,
		CompletedAt: now,
	})
}

func (e *Engine) touch(now time.Time) uint64 {
	e.version++
	e.lastMutation = now
	return e.version
}

// evictIfIdle marks the engine evicted when nothing is open and it has not
// changed since cutoff. It returns the ids of the entries it still held.
func (e *Engine) evictIfIdle(cutoff time.Time) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evicted || e.store.hasOpen() || e.lastMutation.After(cutoff) {
		return nil, false
	}

	e.evicted = true
	ids := make([]string, 0, e.store.Len())
	for _, entry := range e.store.all() {
		ids = append(ids, entry.ID)
	}
	return ids, true
}

type nopSink struct{}

func (nopSink) Submit(domain.NotificationIntent) error { return nil }
