// Package notification delivers notification intents produced by the queue
// engines to an SMS provider.
//
// Engines hand intents to Submit while they hold their own lock, so Submit
// never blocks and never calls back into an engine. Delivery happens on the
// worker pool through Next and Process.
package notification

import (
	"context"
	"sync"
	"time"

	"lineup/queue-engine/internal/backoff"
	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Provider interface {
	Send(ctx context.Context, msg domain.Message) error
}

// Recorder stores or publishes delivery outcomes.
type Recorder interface {
	Record(ctx context.Context, outcome domain.NotificationOutcome) error
}

// FailureHandler is told about every intent whose retry budget ran out.
type FailureHandler func(ctx context.Context, event domain.NotificationFailed)

type Config struct {
	Capacity int
	// Attempts is the provider call budget per intent, first call included.
	Attempts int
	Backoff  backoff.Strategy
	// RateLimit caps provider calls per second. Zero disables it.
	RateLimit float64
	RateBurst int
}

type Dispatcher struct {
	mu      sync.Mutex
	buf     []domain.NotificationIntent
	cap     int
	signal  chan struct{}
	done    chan struct{}
	stopped bool

	entries   domain.EntryLookup
	directory domain.BusinessDirectory
	provider  Provider
	deduper   Deduper
	recorders []Recorder
	onFailure []FailureHandler

	attempts int
	backoff  backoff.Strategy
	limiter  *rate.Limiter
	logger   *logrus.Logger
	now      func() time.Time

	background sync.WaitGroup
}

func NewDispatcher(
	cfg Config,
	entries domain.EntryLookup,
	directory domain.BusinessDirectory,
	provider Provider,
	deduper Deduper,
	logger *logrus.Logger,
) *Dispatcher {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.Backoff == nil {
		cfg.Backoff = backoff.NewConstant(0)
	}
	if deduper == nil {
		deduper = NewMemoryDeduper()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	d := &Dispatcher{
		buf:       make([]domain.NotificationIntent, 0, cfg.Capacity),
		cap:       cfg.Capacity,
		signal:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		entries:   entries,
		directory: directory,
		provider:  provider,
		deduper:   deduper,
		attempts:  cfg.Attempts,
		backoff:   cfg.Backoff,
		logger:    logger,
		now:       time.Now,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return d
}

func (d *Dispatcher) AddRecorder(r Recorder) {
	d.recorders = append(d.recorders, r)
}

func (d *Dispatcher) OnFailure(h FailureHandler) {
	d.onFailure = append(d.onFailure, h)
}

// Submit enqueues an intent. When the buffer is full the oldest intent that is
// not your_turn_soon is dropped to make room. A your_turn_soon intent that
// finds no such victim is refused with ErrDispatchQueueFull; any other intent
// is dropped instead.
func (d *Dispatcher) Submit(intent domain.NotificationIntent) error {
	d.mu.Lock()

	if d.stopped {
		d.mu.Unlock()
		return constant.ErrDispatcherStopped
	}

	var dropped *domain.NotificationIntent
	if len(d.buf) >= d.cap {
		victim := -1
		for i, queued := range d.buf {
			if queued.Reason != domain.ReasonYourTurnSoon {
				victim = i
				break
			}
		}

		switch {
		case victim >= 0:
			v := d.buf[victim]
			dropped = &v
			d.buf = append(d.buf[:victim], d.buf[victim+1:]...)
			d.background.Add(1)
		case intent.Reason == domain.ReasonYourTurnSoon:
			d.mu.Unlock()
			return errors.Wrapf(constant.ErrDispatchQueueFull, "%d intents buffered", d.cap)
		default:
			d.background.Add(1)
			d.mu.Unlock()
			d.drop(intent)
			return nil
		}
	}

	d.buf = append(d.buf, intent)
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}

	if dropped != nil {
		d.drop(*dropped)
	}
	return nil
}

// Next blocks until an intent is available, ctx is done or the dispatcher is
// stopped and drained.
func (d *Dispatcher) Next(ctx context.Context) (domain.NotificationIntent, bool) {
	for {
		d.mu.Lock()
		if len(d.buf) > 0 {
			intent := d.buf[0]
			d.buf = d.buf[1:]
			more := len(d.buf) > 0
			d.mu.Unlock()

			if more {
				select {
				case d.signal <- struct{}{}:
				default:
				}
			}
			return intent, true
		}
		stopped := d.stopped
		d.mu.Unlock()

		if stopped {
			return domain.NotificationIntent{}, false
		}

		select {
		case <-ctx.Done():
			return domain.NotificationIntent{}, false
		case <-d.done:
		case <-d.signal:
		}
	}
}

// Len returns the number of buffered intents.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.buf)
}

// Stop refuses new intents and wakes idle workers. Intents already buffered are
// still handed out by Next.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.done)
	d.mu.Unlock()

	d.background.Wait()
}

// Process delivers one intent. Entry status is never rolled back here, whatever
// the provider does.
func (d *Dispatcher) Process(ctx context.Context, intent domain.NotificationIntent) {
	logger := d.logger.WithContext(ctx).WithFields(logrus.Fields{
		"business_id": intent.BusinessID,
		"entry_id":    intent.EntryID,
		"reason":      intent.Reason,
	})

	// the dedup key is only claimed for an intent that will be sent, so a
	// skipped intent can still be delivered later
	entry, err := d.entries.Entry(intent.BusinessID, intent.EntryID)
	if err != nil {
		logger.Warnf("notification target lookup failed: %v", err)
		d.record(ctx, d.outcome(intent, domain.OutcomeDropped, 0, err))
		return
	}
	if entry.Status.IsTerminal() {
		logger.Infof("entry already %s, notification skipped", entry.Status)
		d.record(ctx, d.outcome(intent, domain.OutcomeDropped, 0, errors.Errorf("entry is %s", entry.Status)))
		return
	}

	claimed, err := d.deduper.Claim(ctx, intent.EntryID, intent.Reason)
	if err != nil {
		// deliver anyway, a duplicate SMS beats a lost one
		logger.Warnf("dedup claim failed: %v", err)
		claimed = true
	}
	if !claimed {
		logger.Info("duplicate notification intent dropped")
		d.record(ctx, d.outcome(intent, domain.OutcomeDuplicate, 0, nil))
		return
	}

	name, err := d.directory.Name(ctx, intent.BusinessID)
	if err != nil {
		logger.Warnf("business name lookup failed, using id: %v", err)
		name = intent.BusinessID
	}

	msg := domain.Message{
		ID:         uuid.NewString(),
		EntryID:    entry.ID,
		BusinessID: entry.BusinessID,
		To:         entry.Contact,
		Body:       Render(intent.Reason, entry, name),
		CreatedAt:  d.now(),
	}

	attempts, err := d.deliver(ctx, msg, logger)
	if err != nil {
		logger.Errorf("notification failed after %d attempts: %v", attempts, err)
		d.record(ctx, d.outcome(intent, domain.OutcomeFailed, attempts, err))

		event := domain.NotificationFailed{
			EntryID:    intent.EntryID,
			BusinessID: intent.BusinessID,
			Reason:     intent.Reason,
			Attempts:   attempts,
			Err:        errors.Wrap(constant.ErrNotificationFailed, err.Error()),
		}
		for _, h := range d.onFailure {
			h(ctx, event)
		}
		return
	}

	logger.Debugf("notification sent after %d attempts", attempts)
	d.record(ctx, d.outcome(intent, domain.OutcomeSent, attempts, nil))
}

func (d *Dispatcher) deliver(ctx context.Context, msg domain.Message, logger *logrus.Entry) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return attempt - 1, errors.Wrap(err, "rate limiter")
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, constant.ProviderTimeout)
		err := d.provider.Send(sendCtx, msg)
		cancel()
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		logger.Warnf("send attempt %d failed: %v", attempt, err)

		if attempt == d.attempts {
			break
		}
		if err := sleep(ctx, d.backoff.Delay(attempt)); err != nil {
			return attempt, errors.Wrap(lastErr, "retry interrupted")
		}
	}
	return d.attempts, lastErr
}

// drop logs and records an intent that was evicted from the buffer. Recording
// runs in the background because Submit is called under an engine lock. The
// caller has already added to d.background.
func (d *Dispatcher) drop(intent domain.NotificationIntent) {
	d.logger.WithFields(logrus.Fields{
		"business_id": intent.BusinessID,
		"entry_id":    intent.EntryID,
		"reason":      intent.Reason,
	}).Warn("notification queue full, intent dropped")

	outcome := d.outcome(intent, domain.OutcomeDropped, 0, constant.ErrDispatchQueueFull)
	go func() {
		defer d.background.Done()
		d.record(context.Background(), outcome)
	}()
}

func (d *Dispatcher) record(ctx context.Context, outcome domain.NotificationOutcome) {
	for _, r := range d.recorders {
		if err := r.Record(ctx, outcome); err != nil {
			d.logger.WithContext(ctx).Warnf("failed to record notification outcome: %v", err)
		}
	}
}

func (d *Dispatcher) outcome(intent domain.NotificationIntent, status domain.OutcomeStatus, attempts int, err error) domain.NotificationOutcome {
	o := domain.NotificationOutcome{
		ID:         uuid.NewString(),
		EntryID:    intent.EntryID,
		BusinessID: intent.BusinessID,
		Reason:     intent.Reason,
		Status:     status,
		Attempts:   attempts,
		CreatedAt:  d.now(),
	}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
