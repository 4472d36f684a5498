package pmsort

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/king54346/pmsort/plan"
)

// ErrInvalidConfiguration is returned before any work starts when the worker
// count, the array length or the planner mode do not fit together.
var ErrInvalidConfiguration = plan.ErrInvalidConfiguration

// ErrConcurrencyFailure matches every error raised after the sort started: a
// cancelled context, a broken barrier, a panicking worker. The array is left
// partially merged.
var ErrConcurrencyFailure = errors.New("concurrency failure")

// ConcurrencyError describes which worker failed and where.
// Worker and Round are -1 when unknown; round 0 is the leaf sort.
type ConcurrencyError struct {
	Scheduler Scheduler
	Worker    int
	Round     int
	Err       error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s: %s scheduler, worker %d, round %d: %v",
		ErrConcurrencyFailure, e.Scheduler, e.Worker, e.Round, e.Err)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrencyFailure
}

func failure(s Scheduler, worker, round int, err error) error {
	return &ConcurrencyError{Scheduler: s, Worker: worker, Round: round, Err: err}
}

// recovered turns a recovered panic value into an error.
func recovered(p interface{}) error {
	if err, ok := p.(error); ok {
		return errors.Wrap(err, "worker panicked")
	}
	return errors.Errorf("worker panicked: %v", p)
}
