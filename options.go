package pmsort

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/king54346/pmsort/plan"
)

// Scheduler selects the concurrency discipline driving the merge rounds.
type Scheduler int

const (
	// SchedulerBarrier runs T workers in lock step, meeting at a shared
	// barrier after the leaf sort and around every copy-back.
	SchedulerBarrier Scheduler = iota
	// SchedulerForkJoin walks a binary task tree; each parent merges once
	// both of its children joined.
	SchedulerForkJoin
	// SchedulerPeer runs T workers with one-shot handoffs per merging pair
	// instead of a global barrier.
	SchedulerPeer
)

func (s Scheduler) String() string {
	switch s {
	case SchedulerBarrier:
		return "barrier"
	case SchedulerForkJoin:
		return "forkjoin"
	case SchedulerPeer:
		return "peer"
	}
	return "unknown"
}

func ParseScheduler(name string) (Scheduler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "barrier", "iterative":
		return SchedulerBarrier, nil
	case "forkjoin", "fork_join", "recursive":
		return SchedulerForkJoin, nil
	case "peer":
		return SchedulerPeer, nil
	}
	return 0, errors.Wrapf(ErrInvalidConfiguration, "unknown scheduler %q", name)
}

type MergeMode = plan.Mode

const (
	MergeSingle = plan.Single
	MergeDouble = plan.Double
)

func ParseMergeMode(name string) (MergeMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "single":
		return MergeSingle, nil
	case "double":
		return MergeDouble, nil
	}
	return 0, errors.Wrapf(ErrInvalidConfiguration, "unknown merge mode %q", name)
}

type Options struct {
	Scheduler Scheduler
	Mode      MergeMode

	// Strict selects the simplified planner: power-of-two worker count
	// dividing the array length.
	Strict bool

	// PoolSize caps the goroutines of the fork/join scheduler; <= 0 means
	// GOMAXPROCS.
	PoolSize int32

	Logger  *zap.Logger
	Metrics *Metrics
}

type Option func(*Options)

func WithScheduler(s Scheduler) Option {
	return func(o *Options) { o.Scheduler = s }
}

func WithMergeMode(m MergeMode) Option {
	return func(o *Options) { o.Mode = m }
}

func WithStrictPlanner() Option {
	return func(o *Options) { o.Strict = true }
}

func WithPoolSize(n int32) Option {
	return func(o *Options) { o.PoolSize = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

func newOptions(opts []Option) *Options {
	o := &Options{
		Scheduler: SchedulerBarrier,
		Mode:      MergeDouble,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
