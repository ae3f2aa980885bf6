package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2)
	var active, peak atomic.Int32
	for range 10 {
		require.NoError(t, pool.Submit(context.Background(), func() {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
		}))
	}
	pool.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Positive(t, peak.Load())
}

func TestWorkerPoolRejects(t *testing.T) {
	pool := NewWorkerPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pool.Submit(ctx, func() {}), context.Canceled)

	pool.Close()
	assert.ErrorIs(t, pool.Submit(context.Background(), func() {}), ErrPoolClosed)
}

func TestFutureThenBeforeAndAfterSettle(t *testing.T) {
	pool := NewWorkerPool(4)
	fut := NewFuture(pool)

	var wg sync.WaitGroup
	var got []int64
	var mu sync.Mutex
	record := func(v *Value, err error) {
		defer wg.Done()
		require.NoError(t, err)
		n, _ := v.Int()
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	}

	wg.Add(2)
	fut.Then(record)
	fut.resolve(NumberValue(7))
	fut.Then(record)
	wg.Wait()
	assert.Equal(t, []int64{7, 7}, got)

	// settling twice keeps the first outcome
	fut.fail(errors.New("late"))
	v, err := fut.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Value)
}

func TestFutureAwaitHonoursContext(t *testing.T) {
	fut := NewFuture(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := fut.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	fut.fail(NewFault(CodeDivideByZero, nil, "boom"))
	<-fut.Done()
	_, err = fut.Await(context.Background())
	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, CodeDivideByZero, fault.Code)
}

func TestLockArenaSites(t *testing.T) {
	arena := NewLockArena(1, 2)
	assert.Equal(t, 2, arena.Len())
	assert.Same(t, arena.Site(1), arena.Site(1))
	assert.NotSame(t, arena.Site(1), arena.Site(2))
	arena.Site(9)
	assert.Equal(t, 3, arena.Len())
}
