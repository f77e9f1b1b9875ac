package admission

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGate(clock *fakeClock) *Gate {
	g := New(Config{})
	g.Clock = clock.Now
	return g
}

func TestGateAdmitsUpToQuota(t *testing.T) {
	clock := newFakeClock()
	gate := newTestGate(clock)

	for i := 0; i < DefaultLimit; i++ {
		require.True(t, gate.Admit("10.0.0.1"), "request %d should be admitted", i+1)
		clock.Advance(time.Second)
	}

	require.False(t, gate.Admit("10.0.0.1"), "21st request within the window must be rejected")
}

func TestGateRejectionDoesNotRecord(t *testing.T) {
	clock := newFakeClock()
	gate := New(Config{Limit: 2, Window: time.Minute})
	gate.Clock = clock.Now

	require.True(t, gate.Admit("a"))
	require.True(t, gate.Admit("a"))
	for i := 0; i < 5; i++ {
		require.False(t, gate.Admit("a"))
	}

	gate.mu.Lock()
	recorded := len(gate.records["a"])
	gate.mu.Unlock()
	assert.Equal(t, 2, recorded)
}

func TestGateResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	gate := newTestGate(clock)

	for i := 0; i < DefaultLimit; i++ {
		require.True(t, gate.Admit("10.0.0.1"))
	}
	require.False(t, gate.Admit("10.0.0.1"))

	clock.Advance(DefaultWindow)
	assert.True(t, gate.Admit("10.0.0.1"))
}

func TestGateSlidingWindowBlocksBoundaryBurst(t *testing.T) {
	clock := newFakeClock()
	gate := New(Config{Limit: 3, Window: time.Minute})
	gate.Clock = clock.Now

	// Fill the quota late in one minute.
	clock.Advance(50 * time.Second)
	for i := 0; i < 3; i++ {
		require.True(t, gate.Admit("c"))
	}

	// Just past a calendar minute boundary the earlier instants still count.
	clock.Advance(15 * time.Second)
	assert.False(t, gate.Admit("c"))

	clock.Advance(45 * time.Second)
	assert.True(t, gate.Admit("c"))
}

func TestGateTracksClientsIndependently(t *testing.T) {
	gate := New(Config{Limit: 1, Window: time.Minute})

	assert.True(t, gate.Admit("a"))
	assert.True(t, gate.Admit("b"))
	assert.False(t, gate.Admit("a"))
	assert.Equal(t, 2, gate.Len())
}

func TestGateCheckReportsRemainingAndRetryAfter(t *testing.T) {
	clock := newFakeClock()
	gate := New(Config{Limit: 2, Window: time.Minute})
	gate.Clock = clock.Now

	d := gate.Check("a")
	require.True(t, d.Allowed)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, 1, d.Remaining)

	clock.Advance(10 * time.Second)
	d = gate.Check("a")
	require.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	clock.Advance(5 * time.Second)
	d = gate.Check("a")
	require.False(t, d.Allowed)
	assert.Equal(t, 45*time.Second, d.RetryAfter)
}

func TestGateRetryAfterHasOneSecondFloor(t *testing.T) {
	clock := newFakeClock()
	gate := New(Config{Limit: 1, Window: time.Minute})
	gate.Clock = clock.Now

	require.True(t, gate.Admit("a"))
	clock.Advance(time.Minute - 100*time.Millisecond)

	d := gate.Check("a")
	require.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)
}

func TestGateSweepEvictsIdleClients(t *testing.T) {
	clock := newFakeClock()
	gate := newTestGate(clock)

	var evictedReport, trackedReport int
	gate.OnSweep = func(evicted, tracked int) {
		evictedReport, trackedReport = evicted, tracked
	}

	require.True(t, gate.Admit("idle"))
	clock.Advance(30 * time.Second)
	require.True(t, gate.Admit("active"))
	clock.Advance(45 * time.Second)

	evicted := gate.Sweep()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, gate.Len())
	assert.Equal(t, 1, evictedReport)
	assert.Equal(t, 1, trackedReport)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, gate.Sweep())
	assert.Equal(t, 0, gate.Len())
}

func TestGateSweepKeepsOnlyInWindowInstants(t *testing.T) {
	clock := newFakeClock()
	gate := New(Config{Limit: 3, Window: time.Minute})
	gate.Clock = clock.Now

	require.True(t, gate.Admit("a"))
	clock.Advance(40 * time.Second)
	require.True(t, gate.Admit("a"))
	clock.Advance(30 * time.Second)

	assert.Equal(t, 0, gate.Sweep())

	gate.mu.Lock()
	defer gate.mu.Unlock()
	require.Len(t, gate.records["a"], 1)
	assert.True(t, gate.records["a"][0].After(clock.Now().Add(-time.Minute)))
}

func TestGateConcurrentAdmitNeverExceedsQuota(t *testing.T) {
	gate := New(Config{Limit: 20, Window: time.Hour})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.Admit("shared") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, admitted)
}

func TestGateBackgroundSweeper(t *testing.T) {
	gate := New(Config{Limit: 5, Window: 10 * time.Millisecond, SweepInterval: 5 * time.Millisecond})

	for i := 0; i < 10; i++ {
		gate.Admit(fmt.Sprintf("client-%d", i))
	}
	require.Equal(t, 10, gate.Len())

	gate.Start(context.Background())
	defer gate.Stop()

	require.Eventually(t, func() bool { return gate.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestGateStartStopIdempotent(t *testing.T) {
	gate := New(Config{SweepInterval: time.Millisecond})

	gate.Stop()
	gate.Start(context.Background())
	gate.Start(context.Background())
	gate.Stop()
	gate.Stop()
}

func TestGateSweeperStopsOnContextCancel(t *testing.T) {
	gate := New(Config{SweepInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	gate.Start(ctx)
	cancel()

	// Stop still waits for the exited goroutine and clears state.
	gate.Stop()
}

func TestNewAppliesDefaults(t *testing.T) {
	gate := New(Config{})
	limit, window := gate.Limit()
	assert.Equal(t, DefaultLimit, limit)
	assert.Equal(t, DefaultWindow, window)
	assert.Equal(t, DefaultSweepInterval, gate.sweepInterval)
}
