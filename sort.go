// Package pmsort sorts large in-memory slices of signed integers with a
// fixed number of workers. Each worker sorts one contiguous leaf block, then
// sorted blocks are merged pairwise, block size doubling and block count
// halving every round, until one block is left.
//
// Three schedulers drive the same plan:
//
//	SchedulerBarrier   lock-stepped rounds around a reusable barrier
//	SchedulerForkJoin  a binary task tree joined bottom-up
//	SchedulerPeer      per-pair one-shot handoffs, no global barrier
//
// In MergeDouble mode every merge is split between two workers, one
// producing the low half and one the high half of the output.
package pmsort

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/king54346/pmsort/merge"
	"github.com/king54346/pmsort/plan"
)

// ParallelMergeSort sorts a in place with workers workers using the barrier
// scheduler in double-merge mode, and blocks until a is sorted.
func ParallelMergeSort[T merge.Key](a []T, workers int) error {
	return Sort(context.Background(), a, workers)
}

// Sort sorts a in place. It needs workers >= 1 and, for len(a) > 1,
// len(a) >= workers. Slices of length 0 or 1 are left alone.
//
// Configuration errors match ErrInvalidConfiguration and leave a untouched.
// Errors raised once work started match ErrConcurrencyFailure; a is then in
// an undefined, partially merged state.
func Sort[T merge.Key](ctx context.Context, a []T, workers int, opts ...Option) error {
	o := newOptions(opts)
	log := o.Logger.With(
		zap.Stringer("scheduler", o.Scheduler),
		zap.Stringer("mode", o.Mode),
		zap.Int("workers", workers),
		zap.Int("n", len(a)),
	)

	if workers <= 0 {
		err := errors.Wrapf(ErrInvalidConfiguration, "worker count %d must be positive", workers)
		o.Metrics.observeSort(o.Scheduler, o.Mode, err, 0)
		return err
	}
	if len(a) <= 1 {
		return nil
	}

	p, err := plan.New(len(a), workers, o.Strict)
	if err != nil {
		log.Warn("rejected sort configuration", zap.Error(err))
		o.Metrics.observeSort(o.Scheduler, o.Mode, err, 0)
		return err
	}

	start := time.Now()
	aux := make([]T, len(a))
	switch o.Scheduler {
	case SchedulerBarrier:
		err = sortWithBarrier(ctx, p, a, aux, o, log)
	case SchedulerForkJoin:
		err = sortWithForkJoin(ctx, p, a, aux, o, log)
	case SchedulerPeer:
		err = sortWithPeers(ctx, p, a, aux, o, log)
	default:
		err = errors.Wrapf(ErrInvalidConfiguration, "unknown scheduler %d", int(o.Scheduler))
	}
	elapsed := time.Since(start)

	o.Metrics.observeSort(o.Scheduler, o.Mode, err, elapsed)
	if err != nil {
		log.Error("parallel merge sort failed", zap.Error(err))
		return err
	}
	o.Metrics.addRounds(o.Scheduler, len(p.Rounds))
	log.Debug("parallel merge sort done", zap.Int("rounds", len(p.Rounds)), zap.Duration("elapsed", elapsed))
	return nil
}

// SequentialMergeSort is the classic top-down recursive merge sort on a
// single goroutine, built on merge.Merge.
func SequentialMergeSort[T merge.Key](a []T) {
	if len(a) <= 1 {
		return
	}
	aux := make([]T, len(a))
	sequentialMergeSort(a, aux, 0, len(a))
}

func sequentialMergeSort[T merge.Key](a, aux []T, first, last int) {
	if last-first <= 1 {
		return
	}
	middle := first + (last-first)/2
	sequentialMergeSort(a, aux, first, middle)
	sequentialMergeSort(a, aux, middle, last)
	merge.Merge(a, aux, first, middle, last)
}
