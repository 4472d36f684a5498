package pmsort

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
)

// latch is a one-shot countdown: it opens once parties arrivals happened and
// stays open.
type latch struct {
	pending atomic.Int32
	done    chan struct{}
}

func newLatch(parties int) *latch {
	l := &latch{done: make(chan struct{})}
	l.pending.Store(int32(parties))
	return l
}

func (l *latch) arrive() {
	if l.pending.Add(-1) == 0 {
		close(l.done)
	}
}

func (l *latch) wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for peer")
	}
}
