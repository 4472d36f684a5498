package fork_join

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// Task is a unit of work that may fork and join subtasks from Compute.
type Task interface {
	Compute() interface{}
}

// ForkJoinPool bounds how many forked tasks run on their own goroutine.
// A task forked while every slot is taken runs inline on the forking
// goroutine, so a parent blocked in Join never starves its own children.
type ForkJoinPool struct {
	cap          int32
	sem          *semaphore.Weighted
	lock         sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	err          interface{}
	panicHandler func(interface{})

	forked  atomic.Int64
	inlined atomic.Int64
}

// NewForkJoinPool returns a pool running at most workerCap forked tasks at
// once. workerCap <= 0 means GOMAXPROCS.
func NewForkJoinPool(ctx context.Context, workerCap int32) *ForkJoinPool {
	if workerCap <= 0 {
		workerCap = int32(runtime.GOMAXPROCS(0))
	}
	ctx, cancel := context.WithCancel(ctx)
	return &ForkJoinPool{
		cap:    workerCap,
		sem:    semaphore.NewWeighted(int64(workerCap)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (fp *ForkJoinPool) SetPanicHandler(panicHandler func(interface{})) {
	fp.lock.Lock()
	defer fp.lock.Unlock()
	fp.panicHandler = panicHandler
}

func (fp *ForkJoinPool) Cap() int32 { return fp.cap }

// Context is cancelled once any task panics or the parent context ends.
// Tasks check it before starting expensive work.
func (fp *ForkJoinPool) Context() context.Context { return fp.ctx }

// Stats returns how many tasks got their own goroutine and how many ran inline.
func (fp *ForkJoinPool) Stats() (forked, inlined int64) {
	return fp.forked.Load(), fp.inlined.Load()
}

// Err reports why the pool stopped: the first task panic, else the context error.
func (fp *ForkJoinPool) Err() error {
	fp.lock.Lock()
	p := fp.err
	fp.lock.Unlock()
	if p != nil {
		if err, ok := p.(error); ok {
			return errors.Wrap(err, "fork/join task panicked")
		}
		return errors.Errorf("fork/join task panicked: %v", p)
	}
	return fp.ctx.Err()
}

// Invoke runs t on the calling goroutine and waits for it. The error is
// non-nil if any task of the tree panicked or the context ended first.
func (fp *ForkJoinPool) Invoke(t Task) (interface{}, error) {
	root := new(ForkJoinTask).Build(fp)
	root.exec(t)
	ok, result := root.Join()
	if err := fp.Err(); err != nil {
		return result, err
	}
	if !ok {
		return result, errors.New("fork/join root task did not complete")
	}
	return result, nil
}

// Shutdown cancels the pool context; running tasks finish, new ones are skipped.
func (fp *ForkJoinPool) Shutdown() {
	fp.cancel()
}

func (fp *ForkJoinPool) fail(p interface{}) {
	fp.lock.Lock()
	if fp.err == nil {
		fp.err = p
	}
	handler := fp.panicHandler
	fp.lock.Unlock()

	if handler != nil {
		handler(p)
	}
	fp.cancel()
}

// ForkJoinTask is embedded by tasks to get Build/Run/Join.
type ForkJoinTask struct {
	TaskPool *ForkJoinPool
	done     chan struct{}
	result   interface{}
	ok       bool
}

func (f *ForkJoinTask) Build(pool *ForkJoinPool) *ForkJoinTask {
	f.TaskPool = pool
	f.done = make(chan struct{})
	f.result = nil
	f.ok = false
	return f
}

// Run forks t. It returns at once if a pool slot is free, otherwise after t
// has run inline.
func (f *ForkJoinTask) Run(t Task) {
	pool := f.TaskPool
	if pool.sem.TryAcquire(1) {
		pool.forked.Add(1)
		go func() {
			defer pool.sem.Release(1)
			f.exec(t)
		}()
		return
	}
	pool.inlined.Add(1)
	f.exec(t)
}

func (f *ForkJoinTask) exec(t Task) {
	defer close(f.done)
	defer func() {
		if p := recover(); p != nil {
			f.ok = false
			f.TaskPool.fail(p)
		}
	}()
	if f.TaskPool.ctx.Err() != nil {
		return
	}
	f.result = t.Compute()
	f.ok = true
}

// Join waits for the forked task. ok is false if the task was skipped
// because the pool stopped, or if it panicked.
func (f *ForkJoinTask) Join() (bool, interface{}) {
	<-f.done
	return f.ok, f.result
}
