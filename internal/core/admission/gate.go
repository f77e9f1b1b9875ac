// Package admission implements the per-client request admission gate.
//
// The gate keeps, per client identifier, a log of admitted request instants
// within a trailing window. A request is admitted only while fewer than Limit
// instants remain in the window, so no burst spanning two windows can exceed
// the quota. A background sweeper drops clients whose log has emptied, which
// bounds memory to recently active clients.
package admission

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit         = 20
	DefaultWindow        = time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Config controls gate limits.
type Config struct {
	Limit         int
	Window        time.Duration
	SweepInterval time.Duration
}

// Decision describes the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Gate is a sliding-log rate limiter keyed by client identifier.
type Gate struct {
	limit         int
	window        time.Duration
	sweepInterval time.Duration

	// Clock returns the current time. Tests replace it.
	Clock func() time.Time

	// OnSweep, when set, is called after every sweep with the number of
	// evicted clients and the number still tracked.
	OnSweep func(evicted, tracked int)

	mu      sync.Mutex
	records map[string][]time.Time

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a gate, filling zero config values with defaults.
func New(cfg Config) *Gate {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	return &Gate{
		limit:         cfg.Limit,
		window:        cfg.Window,
		sweepInterval: cfg.SweepInterval,
		records:       make(map[string][]time.Time),
	}
}

// Admit reports whether a request from clientID may proceed, recording it
// when it does.
func (g *Gate) Admit(clientID string) bool {
	return g.Check(clientID).Allowed
}

// Check runs the admission algorithm for clientID and returns the full
// decision. Rejected requests are not recorded.
func (g *Gate) Check(clientID string) Decision {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	log := prune(g.records[clientID], now.Add(-g.window))

	if len(log) >= g.limit {
		g.records[clientID] = log
		retry := log[0].Add(g.window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, Limit: g.limit, Remaining: 0, RetryAfter: retry}
	}

	log = append(log, now)
	g.records[clientID] = log

	return Decision{Allowed: true, Limit: g.limit, Remaining: g.limit - len(log)}
}

// Sweep prunes every record and removes clients left with no instants.
// It returns the number of evicted clients.
func (g *Gate) Sweep() int {
	cutoff := g.now().Add(-g.window)

	g.mu.Lock()
	evicted := 0
	for id, log := range g.records {
		log = prune(log, cutoff)
		if len(log) == 0 {
			delete(g.records, id)
			evicted++
			continue
		}
		g.records[id] = log
	}
	tracked := len(g.records)
	g.mu.Unlock()

	if g.OnSweep != nil {
		g.OnSweep(evicted, tracked)
	}
	return evicted
}

// Len returns the number of tracked clients.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

// Limit returns the configured quota and window.
func (g *Gate) Limit() (int, time.Duration) {
	return g.limit, g.window
}

// Start launches the background sweeper. Calling Start on a running gate is a
// no-op. The sweeper stops when ctx is done or Stop is called.
func (g *Gate) Start(ctx context.Context) {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	if g.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.done = make(chan struct{})

	go g.run(ctx, g.done)
}

// Stop halts the sweeper and waits for it to exit.
func (g *Gate) Stop() {
	g.runMu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (g *Gate) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(g.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Sweep()
		}
	}
}

func (g *Gate) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now()
}

// prune drops instants at or before cutoff. Logs are append-only in time
// order, so the kept suffix starts at the first instant after cutoff.
func prune(log []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return log
	}
	if i == len(log) {
		return nil
	}
	kept := make([]time.Time, len(log)-i)
	copy(kept, log[i:])
	return kept
}
