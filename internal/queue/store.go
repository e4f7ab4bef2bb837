package queue

import (
	"sort"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
)

// EntryStore holds the entries of a single business queue ordered by join
// sequence. It does no locking of its own: the owning Engine serialises access.
type EntryStore struct {
	entries []*domain.QueueEntry
	index   map[string]*domain.QueueEntry
}

func NewEntryStore() *EntryStore {
	return &EntryStore{
		entries: make([]*domain.QueueEntry, 0),
		index:   make(map[string]*domain.QueueEntry),
	}
}

func (s *EntryStore) Add(entry domain.QueueEntry) error {
	if _, ok := s.index[entry.ID]; ok {
		return errors.Wrapf(constant.ErrDuplicateEntry, "entry %s", entry.ID)
	}

	e := entry
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].JoinSequence > e.JoinSequence
	})
	s.entries = append(s.entries, nil)
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = &e
	s.index[e.ID] = &e

	return nil
}

func (s *EntryStore) Remove(id string) error {
	if _, ok := s.index[id]; !ok {
		return errors.Wrapf(constant.ErrEntryNotFound, "entry %s", id)
	}

	delete(s.index, id)
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}

	return nil
}

func (s *EntryStore) Get(id string) (domain.QueueEntry, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.QueueEntry{}, err
	}
	return *e, nil
}

// OrderedActive returns copies of the waiting and notified entries in join order.
func (s *EntryStore) OrderedActive() []domain.QueueEntry {
	active := s.active()
	out := make([]domain.QueueEntry, 0, len(active))
	for _, e := range active {
		out = append(out, *e)
	}
	return out
}

func (s *EntryStore) UpdateStatus(id string, next domain.Status) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	if !e.Status.CanTransitionTo(next) {
		return errors.Wrapf(constant.ErrInvalidTransition, "entry %s: %s -> %s", id, e.Status, next)
	}

	e.Status = next
	return nil
}

func (s *EntryStore) Len() int {
	return len(s.entries)
}

func (s *EntryStore) lookup(id string) (*domain.QueueEntry, error) {
	e, ok := s.index[id]
	if !ok {
		return nil, errors.Wrapf(constant.ErrEntryNotFound, "entry %s", id)
	}
	return e, nil
}

func (s *EntryStore) active() []*domain.QueueEntry {
	out := make([]*domain.QueueEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Status.IsActive() {
			out = append(out, e)
		}
	}
	return out
}

func (s *EntryStore) all() []*domain.QueueEntry {
	return s.entries
}

func (s *EntryStore) hasOpen() bool {
	for _, e := range s.entries {
		if !e.Status.IsTerminal() {
			return true
		}
	}
	return false
}
