package politeness

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/tablecrawl/tablecrawl/internal/config"
)

// Gate is the per-host politeness limiter. A permit is granted for a host
// only when fewer than the host's concurrency cap are outstanding and at
// least the host's minimum interval has elapsed since the previous grant.
//
// Design decision: We combine a weighted semaphore (concurrency cap) with a
// token-bucket rate limiter (request spacing) per host rather than writing a
// single custom limiter. Both primitives block FIFO-ish on contention, handle
// context cancellation, and are battle-tested; composing them keeps the gate
// small and obviously correct.
type Gate struct {
	// mu protects the hosts map. Individual host gates synchronize
	// themselves.
	mu sync.Mutex

	// hosts lazily holds one gate per target host.
	hosts map[string]*hostGate

	// defaultConcurrency is the in-flight request cap applied to hosts
	// without a profile override.
	defaultConcurrency int64

	// defaultInterval is the minimum request spacing applied to hosts
	// without a profile override.
	defaultInterval time.Duration

	// profiles supplies per-host overrides. May be nil.
	profiles *config.File
}

// hostGate holds the limiter pair for a single host.
type hostGate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// Option configures a Gate.
type Option func(*Gate)

// WithProfiles supplies per-host profile overrides for concurrency and
// interval. Hosts without a profile use the gate's defaults.
func WithProfiles(profiles *config.File) Option {
	return func(g *Gate) {
		g.profiles = profiles
	}
}

// New creates a Gate with the given default per-host concurrency cap and
// minimum request interval.
func New(maxConcurrency int, minInterval time.Duration, opts ...Option) *Gate {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	g := &Gate{
		hosts:              make(map[string]*hostGate),
		defaultConcurrency: int64(maxConcurrency),
		defaultInterval:    minInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Acquire blocks until a permit is available for host, then returns a
// release function. The release function is safe to call exactly once from
// any goroutine and must be called when the fetch completes, regardless of
// outcome; callers should defer it immediately.
//
// Waiting is bounded by ctx: cancellation or deadline expiry aborts the wait
// and returns the context's error with no permit held.
func (g *Gate) Acquire(ctx context.Context, host string) (func(), error) {
	hg := g.hostGate(host)

	if err := hg.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	// The spacing wait happens while holding the concurrency slot so that a
	// burst of blocked waiters drains one grant per interval.
	if err := hg.limiter.Wait(ctx); err != nil {
		hg.sem.Release(1)
		return nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() { hg.sem.Release(1) })
	}
	return release, nil
}

// hostGate returns the limiter pair for host, creating it on first use with
// the host's profile overrides (if any) applied over the defaults.
func (g *Gate) hostGate(host string) *hostGate {
	g.mu.Lock()
	defer g.mu.Unlock()

	if hg, ok := g.hosts[host]; ok {
		return hg
	}

	concurrency := g.defaultConcurrency
	interval := g.defaultInterval
	if g.profiles != nil {
		profile := g.profiles.GetHostProfile(host)
		if profile.MaxConcurrency > 0 {
			concurrency = int64(profile.MaxConcurrency)
		}
		if profile.MinInterval > 0 {
			interval = profile.MinInterval
		}
	}

	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	hg := &hostGate{
		sem:     semaphore.NewWeighted(concurrency),
		limiter: rate.NewLimiter(limit, 1),
	}
	g.hosts[host] = hg
	return hg
}
