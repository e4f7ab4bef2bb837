package waitlist

import (
	"context"
	"time"

	"lineup/queue-engine/internal/constant"

	"github.com/pkg/errors"
)

// ExpireNoShows marks called entries that did not show up within grace as
// no-shows and returns how many it marked.
func (ws *waitlistService) ExpireNoShows(ctx context.Context, grace time.Duration) int {
	cutoff := ws.now().Add(-grace)

	expired := 0
	for _, businessID := range ws.registry.Businesses() {
		eng, ok := ws.registry.Lookup(businessID)
		if !ok {
			continue
		}

		for _, id := range eng.OverdueNotified(cutoff) {
			_, err := ws.MarkNoShow(ctx, id)
			switch {
			case err == nil:
				expired++
			case errors.Is(err, constant.ErrInvalidTransition), errors.Is(err, constant.ErrEntryNotFound):
				// served or cancelled in the meantime
			default:
				ws.logger.WithContext(ctx).Errorf("no-show sweep: entry %s: %v", id, err)
			}
		}
	}

	if expired > 0 {
		ws.logger.WithContext(ctx).Infof("no-show sweep: %d entries expired", expired)
	}
	return expired
}

func (ws *waitlistService) EvictIdle(ctx context.Context, idle time.Duration) int {
	n := ws.registry.EvictIdle(idle)
	if n > 0 {
		ws.logger.WithContext(ctx).Infof("eviction sweep: %d idle queues evicted", n)
	}
	return n
}

func (ws *waitlistService) Prune(ctx context.Context, retention time.Duration) int {
	n := ws.registry.Prune(retention)
	if n > 0 {
		ws.logger.WithContext(ctx).Debugf("prune sweep: %d finished entries forgotten", n)
	}
	return n
}
