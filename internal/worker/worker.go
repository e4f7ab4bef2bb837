package worker

import (
	"context"
)

// worker processes one intent at a time until the source is drained or ctx ends.
func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		intent, ok := p.source.Next(ctx)
		if !ok {
			p.logger.WithContext(ctx).Debugf("worker %d: no more intents, exiting", id)
			return
		}

		p.source.Process(ctx, intent)
	}
}
