package pmsort

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/king54346/pmsort/merge"
	"github.com/king54346/pmsort/plan"
)

// peerSync holds the handoffs of one merging pair. written opens once both
// halves sit in aux, copied once the merged block is back in a.
type peerSync struct {
	written *latch
	copied  *latch
}

// peerSchedule wires a latch to every block of every round: ready[r][i] opens
// when block i of round r's input is sorted in a. A merged block's latch is
// its pair's copied latch, a carried block keeps the latch it had.
type peerSchedule struct {
	ready [][]*latch
	pairs [][]peerSync
}

func newPeerSchedule(p *plan.Plan, mode plan.Mode) *peerSchedule {
	parties := 1
	if mode == plan.Double {
		parties = 2
	}

	s := &peerSchedule{
		ready: make([][]*latch, len(p.Rounds)+1),
		pairs: make([][]peerSync, len(p.Rounds)),
	}
	s.ready[0] = make([]*latch, len(p.Leaves))
	for i := range p.Leaves {
		s.ready[0][i] = newLatch(1)
	}

	for r, round := range p.Rounds {
		s.pairs[r] = make([]peerSync, len(round.Pairs))
		next := make([]*latch, 0, len(round.Output))
		for j := range round.Pairs {
			ps := peerSync{copied: newLatch(parties)}
			if mode == plan.Double {
				ps.written = newLatch(2)
			}
			s.pairs[r][j] = ps
			next = append(next, ps.copied)
		}
		if round.HasCarry {
			next = append(next, s.ready[r][len(round.Input)-1])
		}
		s.ready[r+1] = next
	}
	return s
}

// sortWithPeers runs one goroutine per worker like the barrier scheduler but
// only ever waits on the workers it shares data with: the ones that produced
// its two input blocks and, in double mode, its partner on the same pair.
func sortWithPeers[T merge.Key](ctx context.Context, p *plan.Plan, a, aux []T, o *Options, log *zap.Logger) error {
	s := newPeerSchedule(p, o.Mode)
	g, ctx := errgroup.WithContext(ctx)

	for w := 0; w < p.Workers; w++ {
		w := w
		g.Go(func() (err error) {
			round := 0
			defer func() {
				if r := recover(); r != nil {
					err = recovered(r)
				}
				if err != nil {
					err = failure(SchedulerPeer, w, round, err)
				}
			}()

			if err = ctx.Err(); err != nil {
				return err
			}
			sortLeaf(a, p.Leaf(w))
			s.ready[0][w].arrive()

			for r, rd := range p.Rounds {
				round = rd.Index
				as := rd.Assign(w, o.Mode)
				if as.Role == plan.Idle {
					// active workers only shrink from round to round
					return nil
				}
				j := as.Pair.Index
				if err = s.ready[r][2*j].wait(ctx); err != nil {
					return err
				}
				if err = s.ready[r][2*j+1].wait(ctx); err != nil {
					return err
				}

				ps := s.pairs[r][j]
				n := runMerge(a, aux, as, o.Metrics)
				if o.Mode == plan.Double {
					ps.written.arrive()
					if err = ps.written.wait(ctx); err != nil {
						return err
					}
					copyBack(a, aux, as, n)
				}
				ps.copied.arrive()

				if as.Role != plan.Maxes {
					log.Debug("pair merged", append(pairFields(as), zap.Int("round", rd.Index))...)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
