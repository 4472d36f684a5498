package pmsort

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/king54346/pmsort/barrier"
	"github.com/king54346/pmsort/merge"
	"github.com/king54346/pmsort/plan"
)

// sortWithBarrier runs one goroutine per worker in lock step. Every worker
// sorts its leaf, then for each round:
//
//	merge (or idle) -> barrier -> copy back -> barrier   double mode
//	merge and copy back (or idle) -> barrier              single mode
//
// No goroutine reads a range of a before every writer of that range has
// passed the barrier.
func sortWithBarrier[T merge.Key](ctx context.Context, p *plan.Plan, a, aux []T, o *Options, log *zap.Logger) error {
	b := barrier.New(p.Workers)
	g, ctx := errgroup.WithContext(ctx)

	for w := 0; w < p.Workers; w++ {
		w := w
		g.Go(func() (err error) {
			round := 0
			defer func() {
				if r := recover(); r != nil {
					err = recovered(r)
				}
				// the group cancels ctx, which breaks the barrier for the others
				if err != nil {
					err = failure(SchedulerBarrier, w, round, err)
				}
			}()

			if err = ctx.Err(); err != nil {
				return err
			}
			sortLeaf(a, p.Leaf(w))
			if _, err = b.Await(ctx); err != nil {
				return err
			}

			for _, r := range p.Rounds {
				round = r.Index
				as := r.Assign(w, o.Mode)
				n := runMerge(a, aux, as, o.Metrics)

				var arrival int
				if arrival, err = b.Await(ctx); err != nil {
					return err
				}
				if arrival == 0 {
					log.Debug("merge round done",
						zap.Int("round", r.Index),
						zap.Int("pairs", len(r.Pairs)),
						zap.Bool("carry", r.HasCarry))
				}

				if o.Mode != plan.Double {
					continue
				}
				copyBack(a, aux, as, n)
				if _, err = b.Await(ctx); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		log.Debug("barrier scheduler finished", zap.Int("trips", b.Trips()))
	}
	return err
}
