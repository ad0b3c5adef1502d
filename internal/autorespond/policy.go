// Package autorespond decides when a synthetic profile may reply.
package autorespond

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	DefaultMinDelay = 5 * time.Second
	DefaultMaxDelay = 30 * time.Second
)

// RandomDelay returns a uniform delay in [lo, hi).
func RandomDelay(r *rand.Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(r.Int64N(int64(hi-lo)))
}

// Policy is a jitter gate evaluated per message event or poll. It keeps no
// timers of its own.
type Policy struct {
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Policy)

func WithDelayWindow(lo, hi time.Duration) Option {
	return func(p *Policy) {
		if lo > 0 {
			p.minDelay = lo
		}
		if hi > 0 {
			p.maxDelay = hi
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPolicy(rng *rand.Rand, opts ...Option) *Policy {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	p := &Policy{
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		now:      time.Now,
		rng:      rng,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShouldRespondNow never allows a reply for a profile that is not
// synthetic. With no previous inbound message it answers immediately;
// otherwise it waits until a freshly drawn delay has elapsed.
func (p *Policy) ShouldRespondNow(isSynthetic bool, lastIncoming *time.Time) bool {
	if !isSynthetic {
		return false
	}
	if lastIncoming == nil || lastIncoming.IsZero() {
		return true
	}
	return p.now().Sub(*lastIncoming) >= p.delay()
}

func (p *Policy) delay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return RandomDelay(p.rng, p.minDelay, p.maxDelay)
}
