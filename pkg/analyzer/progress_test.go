package analyzer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tick struct {
	done, total int
	path        string
}

func TestTracker_AddAndTick(t *testing.T) {
	var (
		mu    sync.Mutex
		ticks []tick
	)
	tracker := NewTracker(func(done, total int, path string) {
		mu.Lock()
		ticks = append(ticks, tick{done, total, path})
		mu.Unlock()
	})

	tracker.Add(3)
	tracker.Tick("A.java")
	tracker.Tick("B.java")

	assert.Equal(t, 3, tracker.Total())
	assert.Equal(t, 2, tracker.Current())
	assert.Equal(t, 1, tracker.Remaining())

	tracker.Tick("C.java")
	require.Len(t, ticks, 3)
	assert.Equal(t, tick{1, 3, "A.java"}, ticks[0])
	assert.Equal(t, tick{3, 3, "C.java"}, ticks[2])
	assert.Equal(t, 0, tracker.Remaining())
}

func TestTracker_SetTotal(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(5)
	tracker.SetTotal(10)
	assert.Equal(t, 10, tracker.Total())
}

func TestTracker_ConcurrentTicks(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(100)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Tick("Order.java")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, tracker.Current())
}

func TestTracker_RemainingNeverNegative(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Tick("Extra.java")
	assert.Equal(t, 0, tracker.Remaining())
}

func TestTrackerFromContext(t *testing.T) {
	tracker := NewTracker(nil)
	ctx := WithTracker(context.Background(), tracker)

	assert.Same(t, tracker, TrackerFromContext(ctx))
	assert.Nil(t, TrackerFromContext(context.Background()))
}
