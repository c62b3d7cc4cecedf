package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/Clish254/sol-dex-pools/internal/types"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(3, time.Hour)
	src := types.SourceRaydium

	for i := 0; i < 2; i++ {
		b.RecordFailure(src)
		if err := b.Allow(src); err != nil {
			t.Fatalf("Allow() after %d failures = %v, want nil", i+1, err)
		}
	}

	b.RecordFailure(src)
	if b.GetState(src) != StateOpen {
		t.Errorf("GetState() = %v, want open", b.GetState(src))
	}
	if err := b.Allow(src); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow() = %v, want ErrOpen", err)
	}
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	b := New(3, time.Hour)
	src := types.SourceOrca

	b.RecordFailure(src)
	b.RecordFailure(src)
	b.RecordSuccess(src)
	b.RecordFailure(src)
	b.RecordFailure(src)

	// Streak was broken, so 2+2 failures with a success between never trips
	if b.GetState(src) != StateClosed {
		t.Errorf("GetState() = %v, want closed", b.GetState(src))
	}
}

func TestHalfOpenProbeAndRecovery(t *testing.T) {
	b := New(1, 10*time.Millisecond).WithSuccessThreshold(2)
	src := types.SourceMeteora

	b.RecordFailure(src)
	if err := b.Allow(src); !errors.Is(err, ErrOpen) {
		t.Fatalf("Allow() = %v, want ErrOpen", err)
	}

	time.Sleep(20 * time.Millisecond)

	// Past the cooldown a probe is let through
	if err := b.Allow(src); err != nil {
		t.Fatalf("Allow() after cooldown = %v, want nil", err)
	}
	if b.GetState(src) != StateHalfOpen {
		t.Fatalf("GetState() = %v, want half-open", b.GetState(src))
	}

	b.RecordSuccess(src)
	if b.GetState(src) != StateHalfOpen {
		t.Errorf("GetState() after 1 success = %v, want half-open", b.GetState(src))
	}
	b.RecordSuccess(src)
	if b.GetState(src) != StateClosed {
		t.Errorf("GetState() after 2 successes = %v, want closed", b.GetState(src))
	}
}

func TestFailedProbeReopensImmediately(t *testing.T) {
	b := New(3, 10*time.Millisecond)
	src := types.SourceMeteoraDLMM

	for i := 0; i < 3; i++ {
		b.RecordFailure(src)
	}
	time.Sleep(20 * time.Millisecond)
	if err := b.Allow(src); err != nil {
		t.Fatalf("Allow() after cooldown = %v, want nil", err)
	}

	// One failed probe re-opens without needing a fresh streak
	b.RecordFailure(src)
	if b.GetState(src) != StateOpen {
		t.Errorf("GetState() = %v, want open", b.GetState(src))
	}
}

func TestBreakerTracksSourcesIndependently(t *testing.T) {
	b := New(1, time.Hour)

	b.RecordFailure(types.SourceRaydium)

	if err := b.Allow(types.SourceRaydium); !errors.Is(err, ErrOpen) {
		t.Errorf("Allow(raydium) = %v, want ErrOpen", err)
	}
	if err := b.Allow(types.SourceOrca); err != nil {
		t.Errorf("Allow(orca) = %v, want nil", err)
	}

	states := b.States()
	if states[types.SourceRaydium] != StateOpen {
		t.Errorf("States()[raydium] = %v, want open", states[types.SourceRaydium])
	}
}

func TestReset(t *testing.T) {
	b := New(1, time.Hour)
	src := types.SourceWhirlpool

	b.RecordFailure(src)
	b.Reset(src)

	if b.GetState(src) != StateClosed {
		t.Errorf("GetState() after reset = %v, want closed", b.GetState(src))
	}
	if err := b.Allow(src); err != nil {
		t.Errorf("Allow() after reset = %v, want nil", err)
	}
}
