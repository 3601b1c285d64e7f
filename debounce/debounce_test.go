package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects invocations so tests can assert on count and
// arguments without races.
type recorder struct {
	mu  sync.Mutex
	got []int
}

func (r *recorder) record(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, v)
}

func (r *recorder) values() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.got))
	copy(out, r.got)
	return out
}

func TestValidation(t *testing.T) {
	fn := func(int) {}

	_, err := New[int](nil, 50*time.Millisecond)
	assert.NotNil(t, err)

	_, err = New(fn, 0)
	assert.ErrorIs(t, err, ErrDelay)

	_, err = New(fn, -time.Second)
	assert.ErrorIs(t, err, ErrDelay)

	_, err = New(fn, 50*time.Millisecond, NoTrailing())
	assert.ErrorIs(t, err, ErrNoEdge)

	_, err = New(fn, 50*time.Millisecond, MaxWait(20*time.Millisecond))
	assert.ErrorIs(t, err, ErrMaxWait)

	d, err := New(fn, 50*time.Millisecond, Leading(), MaxWait(100*time.Millisecond))
	assert.Nil(t, err)
	assert.NotNil(t, d)
}

func TestTrailingBurst(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 60*time.Millisecond)
	require.Nil(t, err)
	defer d.Stop()

	d.Call(1)
	time.Sleep(10 * time.Millisecond)
	d.Call(2)
	time.Sleep(10 * time.Millisecond)
	d.Call(3)

	// Nothing fires while the burst is still inside the quiet period.
	assert.Empty(t, r.values())
	assert.True(t, d.Pending())

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, []int{3}, r.values())
	assert.False(t, d.Pending())
}

func TestLeadingOnlyBurst(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 60*time.Millisecond, Leading(), NoTrailing())
	require.Nil(t, err)
	defer d.Stop()

	d.Call(1)
	d.Call(2)
	d.Call(3)

	// The first call fired immediately, and only the first call.
	assert.Equal(t, []int{1}, r.values())

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, []int{1}, r.values())
}

func TestLeadingAndTrailing(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 60*time.Millisecond, Leading())
	require.Nil(t, err)
	defer d.Stop()

	d.Call(1)
	d.Call(2)
	d.Call(3)

	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, []int{1, 3}, r.values())
}

func TestLeadingSingleCallDoesNotFireTwice(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 50*time.Millisecond, Leading())
	require.Nil(t, err)
	defer d.Stop()

	d.Call(7)

	time.Sleep(130 * time.Millisecond)

	assert.Equal(t, []int{7}, r.values())

	// The burst ended, so the next call leads again.
	d.Call(8)
	assert.Equal(t, []int{7, 8}, r.values())
}

func TestMaxWaitForcesFlush(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 150*time.Millisecond, MaxWait(300*time.Millisecond))
	require.Nil(t, err)
	defer d.Stop()

	// A continuous stream of calls every 50ms never lets the quiet
	// period elapse, but maxWait flushes anyway.
	start := time.Now()
	i := 0
	for time.Since(start) < 600*time.Millisecond {
		i++
		d.Call(i)
		time.Sleep(50 * time.Millisecond)
	}

	assert.NotEmpty(t, r.values(), "maxWait should have forced a flush during the stream")
}

func TestMaxWaitFiresLatestArgsOnce(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 100*time.Millisecond, MaxWait(150*time.Millisecond))
	require.Nil(t, err)
	defer d.Stop()

	// Keep resetting the quiet timer past the maxWait deadline.
	d.Call(1)
	time.Sleep(60 * time.Millisecond)
	d.Call(2)
	time.Sleep(60 * time.Millisecond)
	d.Call(3)

	// maxWait expires ~150ms after the first call.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []int{3}, r.values())

	// The forced flush ended the burst; no duplicate trailing fire.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []int{3}, r.values())
}

func TestCancelDropsPending(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 50*time.Millisecond)
	require.Nil(t, err)

	d.Call(1)
	d.Call(2)
	d.Cancel()

	time.Sleep(130 * time.Millisecond)

	assert.Empty(t, r.values())
	assert.False(t, d.Pending())

	// Cancel with nothing pending is a no-op.
	d.Cancel()
}

func TestFlushFiresImmediately(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, time.Hour)
	require.Nil(t, err)
	defer d.Stop()

	d.Call(9)
	d.Flush()

	assert.Equal(t, []int{9}, r.values())
	assert.False(t, d.Pending())

	// Flush with nothing pending is a no-op.
	d.Flush()
	assert.Equal(t, []int{9}, r.values())
}

func TestStopIgnoresFurtherCalls(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 50*time.Millisecond)
	require.Nil(t, err)

	d.Call(1)
	d.Stop()
	d.Stop()
	d.Call(2)

	time.Sleep(130 * time.Millisecond)

	assert.Empty(t, r.values())
}

func TestBurstsAreIndependent(t *testing.T) {
	r := &recorder{}
	d, err := New(r.record, 40*time.Millisecond)
	require.Nil(t, err)
	defer d.Stop()

	d.Call(1)
	time.Sleep(100 * time.Millisecond)
	d.Call(2)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []int{1, 2}, r.values())
}
