package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	start := time.Unix(0, 0)
	d := NewDebouncer[int](150 * time.Millisecond)

	assert.Nil(t, d.Drain(start))

	// Five pushes 50ms apart keep moving the deadline
	for i := 0; i < 5; i++ {
		now := start.Add(time.Duration(i) * 50 * time.Millisecond)
		d.Push(i, now)
		assert.Nil(t, d.Drain(now.Add(10*time.Millisecond)), "drained during burst at push %d", i)
	}

	last := start.Add(200 * time.Millisecond)
	assert.True(t, d.Pending())
	assert.Equal(t, last.Add(150*time.Millisecond), d.Deadline())
	assert.Nil(t, d.Drain(last.Add(149*time.Millisecond)))

	batch := d.Drain(last.Add(150 * time.Millisecond))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, batch)
	assert.False(t, d.Pending())
	assert.Nil(t, d.Drain(last.Add(time.Hour)))
}

func TestDebouncerCancel(t *testing.T) {
	now := time.Unix(100, 0)
	d := NewDebouncer[string](time.Second)
	d.Push("a", now)
	d.Cancel()
	assert.Nil(t, d.Drain(now.Add(2*time.Second)))
}

func TestDebouncerZeroWindow(t *testing.T) {
	now := time.Unix(100, 0)
	d := NewDebouncer[string](-time.Second)
	assert.Equal(t, time.Duration(0), d.Window())
	d.Push("a", now)
	assert.Equal(t, []string{"a"}, d.Drain(now))
}

func TestTimerDebouncerFlushesOncePerBurst(t *testing.T) {
	var mu sync.Mutex
	var batches [][]int

	d := NewTimerDebouncer[int](50*time.Millisecond, func(batch []int) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, batch)
	}, nil)
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Push(i)
	}

	require.Eventually(t, func() bool { return d.Flushes() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 10)
}

func TestTimerDebouncerStop(t *testing.T) {
	called := make(chan struct{}, 1)
	d := NewTimerDebouncer[int](20*time.Millisecond, func([]int) { called <- struct{}{} }, nil)

	d.Push(1)
	d.Stop()
	d.Push(2)

	select {
	case <-called:
		t.Fatal("flush ran after Stop")
	case <-time.After(80 * time.Millisecond):
	}
	assert.Equal(t, int64(0), d.Flushes())
}

func TestTimerDebouncerFlushNow(t *testing.T) {
	var got []string
	d := NewTimerDebouncer[string](time.Hour, func(batch []string) { got = batch }, nil)
	d.Push("x")
	d.Push("y")
	d.Flush()
	assert.Equal(t, []string{"x", "y"}, got)
	assert.Equal(t, int64(1), d.Flushes())
}
