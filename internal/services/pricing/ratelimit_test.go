package pricing

import (
	"testing"
	"time"

	"github.com/mwillis/coinfolio/internal/common"
)

func TestLimiterEnforcesMinInterval(t *testing.T) {
	l := NewLimiter("reload", 60*time.Second, 0, time.Hour, nil, common.NewSilentLogger())

	base := time.Now()
	l.now = func() time.Time { return base }

	if !l.CanCall() {
		t.Fatal("fresh limiter should permit a call")
	}
	l.RecordCall()

	if l.CanCall() {
		t.Fatal("call permitted immediately after RecordCall")
	}

	l.now = func() time.Time { return base.Add(30 * time.Second) }
	if l.CanCall() {
		t.Fatal("call permitted at half the interval")
	}
	if wait := l.TimeUntilNextCall(); wait != 30*time.Second {
		t.Errorf("expected 30s wait, got %s", wait)
	}

	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if !l.CanCall() {
		t.Fatal("call denied after interval elapsed")
	}
}

func TestLimiterWindowBudget(t *testing.T) {
	l := NewLimiter("reload", 0, 3, time.Hour, nil, common.NewSilentLogger())

	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		if !l.CanCall() {
			t.Fatalf("call %d denied within budget", i)
		}
		l.RecordCall()
	}

	if l.CanCall() {
		t.Fatal("call permitted with exhausted budget")
	}
	if l.CallCount() != 3 {
		t.Errorf("expected 3 recorded calls, got %d", l.CallCount())
	}

	// The window rolling over restores the budget
	l.now = func() time.Time { return base.Add(time.Hour + time.Minute) }
	if !l.CanCall() {
		t.Fatal("budget not restored after window reset")
	}
}

func TestLimiterFailedAttemptsConsumeBudget(t *testing.T) {
	l := NewLimiter("reload", 60*time.Second, 0, time.Hour, nil, common.NewSilentLogger())

	base := time.Now()
	l.now = func() time.Time { return base }

	// RecordCall runs whether the chain walk succeeded or not; a failure
	// must still push the next permitted call out.
	l.RecordCall()
	if l.CanCall() {
		t.Fatal("failed attempt did not consume the interval")
	}
}

func TestLimiterStateSurvivesRestart(t *testing.T) {
	kv := newMemoryKV()
	logger := common.NewSilentLogger()

	base := time.Now()
	l1 := NewLimiter("reload", 60*time.Second, 5, time.Hour, kv, logger)
	l1.now = func() time.Time { return base }
	l1.RecordCall()
	l1.RecordCall()

	l2 := NewLimiter("reload", 60*time.Second, 5, time.Hour, kv, logger)
	l2.now = func() time.Time { return base.Add(10 * time.Second) }

	if l2.CanCall() {
		t.Fatal("restarted limiter forgot the last call timestamp")
	}
	if l2.CallCount() != 2 {
		t.Errorf("expected 2 persisted calls, got %d", l2.CallCount())
	}
}

func TestLimiterLanesAreIndependent(t *testing.T) {
	kv := newMemoryKV()
	logger := common.NewSilentLogger()

	reload := NewLimiter("reload", 60*time.Second, 0, time.Hour, kv, logger)
	refresh := NewLimiter("refresh", time.Hour, 0, time.Hour, kv, logger)

	reload.RecordCall()
	if !refresh.CanCall() {
		t.Fatal("reload call must not consume the refresh lane")
	}
}
