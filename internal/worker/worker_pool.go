package worker

import (
	"context"
)

func (p *WorkerPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.WithContext(ctx).Infof("worker pool: started %d workers", p.numWorkers)
}

// Wait blocks until every worker has exited on its own, which happens once the
// source is stopped and drained.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Stop cancels in-flight work and waits for all workers.
func (p *WorkerPool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("worker pool: all workers stopped")
}
