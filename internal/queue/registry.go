package queue

import (
	"sync"
	"time"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Registry maps businesses to their engines. mu guards the map only and is
// never held while an engine operation runs.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*Engine
	// entryID -> businessID
	index sync.Map

	cfg    Config
	sink   domain.IntentSink
	logger *logrus.Logger
	now    func() time.Time
}

func NewRegistry(cfg Config, sink domain.IntentSink, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Registry{
		engines: make(map[string]*Engine),
		cfg:     cfg,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
	}
}

func (r *Registry) GetOrCreate(businessID string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	eng, ok := r.engines[businessID]
	if !ok {
		eng = NewEngine(businessID, r.cfg, r.sink, r.logger)
		eng.now = r.now
		eng.lastMutation = r.now()
		r.engines[businessID] = eng
		r.logger.Debugf("queue engine created for business %s", businessID)
	}
	return eng
}

func (r *Registry) Lookup(businessID string) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eng, ok := r.engines[businessID]
	return eng, ok
}

// Businesses returns the ids of every business with a live engine.
func (r *Registry) Businesses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Admit(businessID, displayName, contact string) (domain.Admission, error) {
	for {
		eng := r.GetOrCreate(businessID)
		adm, err := eng.Admit(displayName, contact)
		if errors.Is(err, constant.ErrEngineEvicted) {
			// the sweep may not have unlinked it yet
			r.forget(businessID, eng)
			continue
		}
		if err != nil {
			return domain.Admission{}, err
		}

		r.index.Store(adm.ID, businessID)
		return adm, nil
	}
}

func (r *Registry) Advance(businessID string) (domain.QueueEntry, error) {
	eng, ok := r.Lookup(businessID)
	if !ok {
		return domain.QueueEntry{}, constant.ErrNoActiveEntries
	}

	entry, err := eng.Advance()
	if errors.Is(err, constant.ErrEngineEvicted) {
		// an evicted engine had nothing waiting
		return domain.QueueEntry{}, constant.ErrNoActiveEntries
	}
	return entry, err
}

func (r *Registry) Reset(businessID string) ([]domain.QueueEntry, error) {
	eng, ok := r.Lookup(businessID)
	if !ok {
		return nil, nil
	}

	cancelled, err := eng.Reset()
	if errors.Is(err, constant.ErrEngineEvicted) {
		return nil, nil
	}
	return cancelled, err
}

func (r *Registry) Cancel(entryID string) (domain.QueueEntry, error) {
	return r.withEntry(entryID, (*Engine).Cancel)
}

func (r *Registry) MarkServing(entryID string) (domain.QueueEntry, error) {
	return r.withEntry(entryID, (*Engine).MarkServing)
}

func (r *Registry) Complete(entryID string) (domain.QueueEntry, error) {
	return r.withEntry(entryID, (*Engine).Complete)
}

func (r *Registry) MarkNoShow(entryID string) (domain.QueueEntry, error) {
	return r.withEntry(entryID, (*Engine).MarkNoShow)
}

func (r *Registry) Entry(entryID string) (domain.QueueEntry, error) {
	return r.withEntry(entryID, (*Engine).Entry)
}

// BusinessEntry reads an entry through its business engine. It does not need
// the entry index, so it also finds entries whose admission is still in flight.
func (r *Registry) BusinessEntry(businessID, entryID string) (domain.QueueEntry, error) {
	eng, ok := r.Lookup(businessID)
	if !ok {
		return domain.QueueEntry{}, errors.Wrapf(constant.ErrEntryNotFound, "entry %s", entryID)
	}
	return eng.Entry(entryID)
}

func (r *Registry) PositionOf(entryID string) (int, error) {
	eng, err := r.engineFor(entryID)
	if err != nil {
		return 0, err
	}
	return eng.PositionOf(entryID)
}

// EvictIdle drops engines with no open entries whose last mutation is older
// than idle. Each engine is inspected under its own lock.
func (r *Registry) EvictIdle(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	candidates := make(map[string]*Engine, len(r.engines))
	for id, eng := range r.engines {
		candidates[id] = eng
	}
	r.mu.Unlock()

	evicted := 0
	for businessID, eng := range candidates {
		ids, ok := eng.evictIfIdle(cutoff)
		if !ok {
			continue
		}

		r.forget(businessID, eng)

		for _, id := range ids {
			r.index.CompareAndDelete(id, businessID)
		}
		evicted++
		r.logger.Infof("queue engine for business %s evicted after %s idle", businessID, idle)
	}

	return evicted
}

// Prune forgets terminal entries that finished more than retention ago.
func (r *Registry) Prune(retention time.Duration) int {
	cutoff := r.now().Add(-retention)

	pruned := 0
	for _, businessID := range r.Businesses() {
		eng, ok := r.Lookup(businessID)
		if !ok {
			continue
		}
		for _, id := range eng.Prune(cutoff) {
			r.index.CompareAndDelete(id, businessID)
			pruned++
		}
	}
	return pruned
}

// forget unlinks eng unless another engine already replaced it.
func (r *Registry) forget(businessID string, eng *Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engines[businessID] == eng {
		delete(r.engines, businessID)
	}
}

func (r *Registry) engineFor(entryID string) (*Engine, error) {
	value, ok := r.index.Load(entryID)
	if !ok {
		return nil, errors.Wrapf(constant.ErrEntryNotFound, "entry %s", entryID)
	}

	eng, ok := r.Lookup(value.(string))
	if !ok {
		return nil, errors.Wrapf(constant.ErrEntryNotFound, "entry %s", entryID)
	}
	return eng, nil
}

func (r *Registry) withEntry(entryID string, op func(*Engine, string) (domain.QueueEntry, error)) (domain.QueueEntry, error) {
	eng, err := r.engineFor(entryID)
	if err != nil {
		return domain.QueueEntry{}, err
	}

	entry, err := op(eng, entryID)
	if errors.Is(err, constant.ErrEngineEvicted) {
		return domain.QueueEntry{}, errors.Wrapf(constant.ErrEntryNotFound, "entry %s", entryID)
	}
	return entry, err
}

// Stats returns the statistics of every live engine.
func (r *Registry) Stats() []domain.Statistics {
	r.mu.Lock()
	engines := make([]*Engine, 0, len(r.engines))
	for _, eng := range r.engines {
		engines = append(engines, eng)
	}
	r.mu.Unlock()

	stats := make([]domain.Statistics, 0, len(engines))
	for _, eng := range engines {
		stats = append(stats, eng.Stats())
	}
	return stats
}
