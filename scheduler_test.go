package pmsort

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/king54346/pmsort/plan"
)

func TestSchedulersRecoverPanickingWorker(t *testing.T) {
	run := map[Scheduler]func(context.Context, *plan.Plan, []int, []int, *Options, *zap.Logger) error{
		SchedulerBarrier:  sortWithBarrier[int],
		SchedulerForkJoin: sortWithForkJoin[int],
		SchedulerPeer:     sortWithPeers[int],
	}
	for s, sortWith := range run {
		for _, mode := range modes {
			p, err := plan.New(40, 4, false)
			require.NoError(t, err)
			o := newOptions([]Option{WithScheduler(s), WithMergeMode(mode)})

			// an aux buffer shorter than a makes every merge panic
			err = sortWith(context.Background(), p, makeRandomInts(40, 1), make([]int, 1), o, o.Logger)
			require.Error(t, err, "%s/%s", s, mode)
			assert.ErrorIs(t, err, ErrConcurrencyFailure)
			assert.Contains(t, err.Error(), "panicked")
		}
	}
}

func TestPeerScheduleCarriesLatches(t *testing.T) {
	p, err := plan.New(15, 7, false)
	require.NoError(t, err)
	s := newPeerSchedule(p, plan.Double)

	require.Len(t, s.ready, len(p.Rounds)+1)
	assert.Len(t, s.ready[0], 7)
	// 7 blocks -> 4 -> 2 -> 1
	assert.Len(t, s.ready[1], 4)
	assert.Len(t, s.ready[2], 2)
	assert.Len(t, s.ready[3], 1)

	assert.Same(t, s.ready[0][6], s.ready[1][3])
	assert.Same(t, s.pairs[0][0].copied, s.ready[1][0])
	assert.Same(t, s.pairs[2][0].copied, s.ready[3][0])
	assert.NotNil(t, s.pairs[0][0].written)

	single := newPeerSchedule(p, plan.Single)
	assert.Nil(t, single.pairs[0][0].written)
}

func TestLatch(t *testing.T) {
	l := newLatch(2)
	l.arrive()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.wait(ctx), context.DeadlineExceeded)

	done := make(chan error)
	go func() { done <- l.wait(context.Background()) }()
	l.arrive()
	assert.NoError(t, <-done)
	assert.NoError(t, l.wait(context.Background()))
}
