package pricing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mwillis/coinfolio/internal/common"
	"github.com/mwillis/coinfolio/internal/interfaces"
)

// limiterState is the durable rate-limiter state. Persisting it means a
// refresh shortly before shutdown is still honored after restart.
type limiterState struct {
	LastCall    time.Time `json:"last_call"`
	WindowCount int       `json:"window_count"`
	WindowReset time.Time `json:"window_reset"`
}

// Limiter gates upstream calls for one provider chain lane: a minimum interval
// between calls plus a call budget per counting window. Every attempt, success
// or failure, consumes budget so failed calls cannot turn into retry storms.
type Limiter struct {
	mu          sync.Mutex
	name        string
	minInterval time.Duration
	windowCalls int
	windowDur   time.Duration
	kv          interfaces.KeyValueStore // nil means memory-only
	state       limiterState
	logger      *common.Logger
	now         func() time.Time // injectable clock for testing
}

// NewLimiter creates a limiter with the given lane name ("reload", "refresh"),
// restoring any persisted state. kv may be nil for tests.
func NewLimiter(name string, minInterval time.Duration, windowCalls int, windowDur time.Duration, kv interfaces.KeyValueStore, logger *common.Logger) *Limiter {
	l := &Limiter{
		name:        name,
		minInterval: minInterval,
		windowCalls: windowCalls,
		windowDur:   windowDur,
		kv:          kv,
		logger:      logger,
		now:         time.Now,
	}
	l.loadState()
	return l
}

func (l *Limiter) kvKey() string {
	return "ratelimit:" + l.name
}

func (l *Limiter) loadState() {
	if l.kv == nil {
		return
	}
	value, err := l.kv.Get(context.Background(), l.kvKey())
	if err != nil {
		return // first run, nothing persisted yet
	}
	if err := json.Unmarshal([]byte(value), &l.state); err != nil {
		l.logger.Warn().Err(err).Str("limiter", l.name).Msg("Rate limiter: failed to parse persisted state")
	}
}

func (l *Limiter) saveState() {
	if l.kv == nil {
		return
	}
	data, err := json.Marshal(l.state)
	if err != nil {
		return
	}
	if err := l.kv.Set(context.Background(), l.kvKey(), string(data)); err != nil {
		l.logger.Warn().Err(err).Str("limiter", l.name).Msg("Rate limiter: failed to persist state")
	}
}

// rollWindow resets the window counter when the counting window has elapsed.
// Callers must hold l.mu.
func (l *Limiter) rollWindow(now time.Time) {
	if l.state.WindowReset.IsZero() || now.After(l.state.WindowReset) {
		l.state.WindowCount = 0
		l.state.WindowReset = now.Add(l.windowDur)
	}
}

// CanCall reports whether an upstream call is currently permitted.
func (l *Limiter) CanCall() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollWindow(now)

	if !l.state.LastCall.IsZero() && now.Sub(l.state.LastCall) < l.minInterval {
		return false
	}
	if l.windowCalls > 0 && l.state.WindowCount >= l.windowCalls {
		return false
	}
	return true
}

// TimeUntilNextCall returns how long until a call will be permitted, zero when
// one is permitted now.
func (l *Limiter) TimeUntilNextCall() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollWindow(now)

	var wait time.Duration
	if !l.state.LastCall.IsZero() {
		if until := l.minInterval - now.Sub(l.state.LastCall); until > wait {
			wait = until
		}
	}
	if l.windowCalls > 0 && l.state.WindowCount >= l.windowCalls {
		if until := l.state.WindowReset.Sub(now); until > wait {
			wait = until
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

// RecordCall marks a call attempt: updates the timestamp, increments the
// window counter, and persists. Called for successes and failures alike.
func (l *Limiter) RecordCall() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.rollWindow(now)
	l.state.LastCall = now
	l.state.WindowCount++
	l.saveState()
}

// CallCount returns the number of calls recorded in the current window.
func (l *Limiter) CallCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.WindowCount
}
