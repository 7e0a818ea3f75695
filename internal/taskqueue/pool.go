package taskqueue

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs several workers in one process, each with its own identity.
type Pool struct {
	workers []*Worker
}

// NewPool builds count workers sharing opts. opts.ID is ignored.
func NewPool(count int, opts Options) *Pool {
	if count < 1 {
		count = 1
	}
	workers := make([]*Worker, 0, count)
	for n := 1; n <= count; n++ {
		o := opts
		o.ID = NewWorkerID(n)
		workers = append(workers, NewWorker(o))
	}
	return &Pool{workers: workers}
}

// Workers returns the pool members.
func (p *Pool) Workers() []*Worker { return p.workers }

// Run starts every worker and blocks until all have returned.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}
