package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperifyio/quickresearch/internal/fault"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestValue_SucceedsAfterKFailures(t *testing.T) {
	p := Policy{Attempts: 3, Delay: time.Second, Sleep: noSleep}
	for k := 0; k < 3; k++ {
		calls := 0
		got, err := Value(context.Background(), p, "test", func(context.Context, int) (string, error) {
			calls++
			if calls <= k {
				return "", errors.New("flaky")
			}
			return "ok", nil
		})
		if err != nil || got != "ok" {
			t.Fatalf("k=%d: got %q, %v", k, got, err)
		}
		if calls != k+1 {
			t.Fatalf("k=%d: expected %d calls, got %d", k, k+1, calls)
		}
	}
}

func TestValue_ExhaustsExactlyAttempts(t *testing.T) {
	var slept int
	p := Policy{Attempts: 3, Delay: time.Second, Sleep: func(context.Context, time.Duration) error {
		slept++
		return nil
	}}
	calls := 0
	err := Do(context.Background(), p, "test", func(context.Context, int) error {
		calls++
		return fault.Transientf("down")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if slept != 2 {
		t.Fatalf("expected 2 sleeps between 3 attempts, got %d", slept)
	}
}

func TestValue_PermanentStopsImmediately(t *testing.T) {
	p := Policy{Attempts: 5, Delay: time.Second, Sleep: noSleep}
	calls := 0
	err := Do(context.Background(), p, "test", func(context.Context, int) error {
		calls++
		return fault.Permanentf("missing")
	})
	if !fault.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestValue_ContextCancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 3, Delay: time.Hour}
	calls := 0
	err := Do(ctx, p, "test", func(context.Context, int) error {
		calls++
		cancel()
		return errors.New("flaky")
	})
	if err == nil {
		t.Fatalf("expected error after cancel")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}
