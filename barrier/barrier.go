// Package barrier provides a reusable rendezvous point for a fixed number of
// goroutines.
package barrier

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrBroken is returned by Await once any party has given up waiting.
var ErrBroken = errors.New("barrier is broken")

// generation is one use of the barrier. done is closed when the generation
// trips or breaks.
type generation struct {
	done   chan struct{}
	broken bool
}

// Barrier releases its waiters only once exactly Parties goroutines have
// arrived, then resets itself for the next use. A waiter whose context ends
// breaks the barrier: every current and future Await fails with ErrBroken
// until Reset.
type Barrier struct {
	parties int

	mu    sync.Mutex
	count int
	gen   *generation
	trips int
}

func New(parties int) *Barrier {
	if parties <= 0 {
		panic("barrier: parties must be > 0")
	}
	return &Barrier{
		parties: parties,
		gen:     &generation{done: make(chan struct{})},
	}
}

func (b *Barrier) Parties() int { return b.parties }

// Trips returns how many times the barrier has released its parties.
func (b *Barrier) Trips() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trips
}

// Await blocks until all parties have arrived. The last party to arrive gets
// arrival index 0, the first gets Parties()-1.
func (b *Barrier) Await(ctx context.Context) (int, error) {
	b.mu.Lock()
	g := b.gen
	if g.broken {
		b.mu.Unlock()
		return -1, ErrBroken
	}
	if err := ctx.Err(); err != nil {
		b.breakLocked()
		b.mu.Unlock()
		return -1, errors.Wrap(ErrBroken, err.Error())
	}

	b.count++
	index := b.parties - b.count
	if index == 0 {
		b.trips++
		b.count = 0
		close(g.done)
		b.gen = &generation{done: make(chan struct{})}
		b.mu.Unlock()
		return 0, nil
	}
	b.mu.Unlock()

	select {
	case <-g.done:
	case <-ctx.Done():
		b.mu.Lock()
		// the barrier may have tripped while we were being cancelled
		if b.gen == g {
			b.breakLocked()
			b.mu.Unlock()
			return -1, errors.Wrap(ErrBroken, ctx.Err().Error())
		}
		b.mu.Unlock()
	}

	b.mu.Lock()
	broken := g.broken
	b.mu.Unlock()
	if broken {
		return -1, ErrBroken
	}
	return index, nil
}

// Break puts the barrier into the broken state and wakes every waiter.
func (b *Barrier) Break() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.breakLocked()
}

func (b *Barrier) breakLocked() {
	if b.gen.broken {
		return
	}
	b.gen.broken = true
	b.count = 0
	close(b.gen.done)
}

func (b *Barrier) IsBroken() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen.broken
}

// Reset breaks the current generation, if anyone is waiting on it, and starts
// a fresh one.
func (b *Barrier) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count > 0 {
		b.breakLocked()
	}
	b.count = 0
	b.gen = &generation{done: make(chan struct{})}
}
