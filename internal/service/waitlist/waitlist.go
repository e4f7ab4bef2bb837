package waitlist

import (
	"context"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
)

func (ws *waitlistService) Join(ctx context.Context, businessID, displayName, contact string) (domain.Admission, error) {
	if err := ws.directory.Exists(ctx, businessID); err != nil {
		return domain.Admission{}, err
	}

	adm, err := ws.registry.Admit(businessID, displayName, contact)
	if err != nil {
		return domain.Admission{}, err
	}

	ws.logger.WithContext(ctx).WithField("business_id", businessID).Infof("entry %s joined at position %d", adm.ID, adm.Position)
	ws.sync(ctx, businessID)
	return adm, nil
}

func (ws *waitlistService) Advance(ctx context.Context, businessID string) (domain.QueueEntry, error) {
	if err := ws.directory.Exists(ctx, businessID); err != nil {
		return domain.QueueEntry{}, err
	}

	entry, err := ws.registry.Advance(businessID)
	if err != nil {
		return domain.QueueEntry{}, err
	}

	ws.sync(ctx, businessID, entry)
	return entry, nil
}

func (ws *waitlistService) Reset(ctx context.Context, businessID string) (int, error) {
	if err := ws.directory.Exists(ctx, businessID); err != nil {
		return 0, err
	}

	cancelled, err := ws.registry.Reset(businessID)
	if err != nil {
		return 0, err
	}

	ws.logger.WithContext(ctx).WithField("business_id", businessID).Warnf("queue reset, %d entries cancelled", len(cancelled))
	ws.sync(ctx, businessID, cancelled...)
	return len(cancelled), nil
}

func (ws *waitlistService) Cancel(ctx context.Context, entryID string) (domain.QueueEntry, error) {
	return ws.mutate(ctx, entryID, ws.registry.Cancel)
}

func (ws *waitlistService) MarkServing(ctx context.Context, entryID string) (domain.QueueEntry, error) {
	return ws.mutate(ctx, entryID, ws.registry.MarkServing)
}

func (ws *waitlistService) Complete(ctx context.Context, entryID string) (domain.QueueEntry, error) {
	return ws.mutate(ctx, entryID, ws.registry.Complete)
}

func (ws *waitlistService) MarkNoShow(ctx context.Context, entryID string) (domain.QueueEntry, error) {
	return ws.mutate(ctx, entryID, ws.registry.MarkNoShow)
}

// Entry reads from memory first and falls back to the durable store for
// entries that were pruned or whose engine was evicted.
func (ws *waitlistService) Entry(ctx context.Context, entryID string) (domain.QueueEntry, error) {
	entry, err := ws.registry.Entry(entryID)
	if err == nil || !errors.Is(err, constant.ErrEntryNotFound) || ws.entryRepository == nil {
		return entry, err
	}
	return ws.entryRepository.Get(ctx, entryID)
}

func (ws *waitlistService) Queue(ctx context.Context, businessID string) ([]domain.QueueEntry, error) {
	if err := ws.directory.Exists(ctx, businessID); err != nil {
		return nil, err
	}

	eng, ok := ws.registry.Lookup(businessID)
	if !ok {
		return []domain.QueueEntry{}, nil
	}
	return eng.Active(), nil
}

func (ws *waitlistService) Stats(ctx context.Context, businessID string) (domain.Statistics, error) {
	if err := ws.directory.Exists(ctx, businessID); err != nil {
		return domain.Statistics{}, err
	}

	eng, ok := ws.registry.Lookup(businessID)
	if !ok {
		return domain.Statistics{BusinessID: businessID}, nil
	}
	return eng.Stats(), nil
}

// History returns served entries, newest first.
func (ws *waitlistService) History(ctx context.Context, businessID string) ([]domain.HistoryItem, error) {
	if err := ws.directory.Exists(ctx, businessID); err != nil {
		return nil, err
	}

	eng, ok := ws.registry.Lookup(businessID)
	if !ok {
		return []domain.HistoryItem{}, nil
	}
	return eng.History(), nil
}

func (ws *waitlistService) Position(ctx context.Context, businessID, contact string) (domain.PositionView, error) {
	if err := ws.directory.Exists(ctx, businessID); err != nil {
		return domain.PositionView{}, err
	}

	eng, ok := ws.registry.Lookup(businessID)
	if !ok {
		return domain.PositionView{}, errors.Wrapf(constant.ErrEntryNotFound, "contact %s", contact)
	}

	entry, err := eng.FindByContact(contact)
	if err != nil {
		return domain.PositionView{}, err
	}

	return domain.PositionView{
		EntryID:       entry.ID,
		DisplayName:   entry.DisplayName,
		Status:        entry.Status,
		Position:      entry.Position,
		EstimatedWait: eng.Stats().EstimatedWait(entry.Position),
	}, nil
}

func (ws *waitlistService) mutate(
	ctx context.Context,
	entryID string,
	op func(string) (domain.QueueEntry, error),
) (domain.QueueEntry, error) {
	entry, err := op(entryID)
	if err != nil {
		return domain.QueueEntry{}, err
	}

	ws.sync(ctx, entry.BusinessID, entry)
	return entry, nil
}

// sync persists the changed entries together with the current active set and
// broadcasts the new snapshot. Failures are logged only: the in-memory queue
// stays authoritative.
func (ws *waitlistService) sync(ctx context.Context, businessID string, changed ...domain.QueueEntry) {
	eng, ok := ws.registry.Lookup(businessID)
	if !ok {
		return
	}
	active := eng.Active()

	if ws.entryRepository != nil {
		entries := make([]domain.QueueEntry, 0, len(changed)+len(active))
		entries = append(entries, changed...)
		entries = append(entries, active...)
		if err := ws.entryRepository.Save(ctx, entries...); err != nil {
			ws.logger.WithContext(ctx).WithField("business_id", businessID).Errorf("failed to persist queue entries: %v", err)
		}
	}

	if ws.broadcaster != nil {
		ws.broadcaster.Broadcast(businessID, domain.NewQueueSnapshot(businessID, active, ws.now()))
	}
}
