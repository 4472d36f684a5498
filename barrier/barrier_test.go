package barrier

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitReleasesAllParties(t *testing.T) {
	const parties = 5
	b := New(parties)

	var wg sync.WaitGroup
	indexes := make([]int, parties)
	for i := 0; i < parties; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx, err := b.Await(context.Background())
			assert.NoError(t, err)
			indexes[i] = idx
		}(i)
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, idx := range indexes {
		seen[idx] = true
	}
	assert.Len(t, seen, parties)
	for i := 0; i < parties; i++ {
		assert.True(t, seen[i], "arrival index %d", i)
	}
	assert.Equal(t, 1, b.Trips())
}

func TestAwaitIsReusable(t *testing.T) {
	const parties = 4
	const rounds = 50
	b := New(parties)

	// every party must observe all increments of the previous round
	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < parties; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				counter.Add(1)
				_, err := b.Await(context.Background())
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, counter.Load(), int64((r+1)*parties))
				_, err = b.Await(context.Background())
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2*rounds, b.Trips())
	assert.False(t, b.IsBroken())
}

func TestSinglePartyNeverBlocks(t *testing.T) {
	b := New(1)
	for i := 0; i < 3; i++ {
		idx, err := b.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	}
	assert.Equal(t, 3, b.Trips())
}

func TestCancelledWaiterBreaksBarrier(t *testing.T) {
	b := New(3)
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 2)
	go func() {
		_, err := b.Await(context.Background())
		errs <- err
	}()
	go func() {
		_, err := b.Await(ctx)
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			assert.True(t, errors.Is(err, ErrBroken))
		case <-time.After(5 * time.Second):
			t.Fatal("waiter not released")
		}
	}
	assert.True(t, b.IsBroken())

	// later arrivals fail fast
	_, err := b.Await(context.Background())
	assert.True(t, errors.Is(err, ErrBroken))
}

func TestAwaitWithDoneContext(t *testing.T) {
	b := New(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Await(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBroken))
	assert.True(t, b.IsBroken())
}

func TestBreakAndReset(t *testing.T) {
	b := New(2)

	done := make(chan error)
	go func() {
		_, err := b.Await(context.Background())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	b.Break()
	assert.True(t, errors.Is(<-done, ErrBroken))

	b.Reset()
	assert.False(t, b.IsBroken())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Await(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, b.Trips())
}

func TestNewPanicsOnZeroParties(t *testing.T) {
	assert.Panics(t, func() { New(0) })
}
