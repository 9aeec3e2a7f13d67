// Package retry runs an operation a bounded number of times with a fixed
// delay between attempts. Permanent faults stop the loop immediately.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quickresearch/internal/fault"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second
)

// Policy configures the retry loop. Attempts includes the initial attempt.
type Policy struct {
	Attempts int
	Delay    time.Duration
	// Sleep waits between attempts. Tests inject a no-op; nil uses a
	// context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p Policy) attempts() int {
	if p.Attempts <= 0 {
		return 1
	}
	return p.Attempts
}

func (p Policy) sleep(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	if p.Sleep != nil {
		return p.Sleep(ctx, p.Delay)
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a permanent fault, or the attempts
// are exhausted. The last error is returned. op labels log lines.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context, attempt int) error) error {
	_, err := Value(ctx, p, op, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, fn(ctx, attempt)
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	n := p.attempts()
	var lastErr error
	for i := 1; i <= n; i++ {
		v, err := fn(ctx, i)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if fault.KindOf(err) != fault.Transient {
			log.Debug().Err(err).Str("op", op).Int("attempt", i).Msg("permanent failure; not retrying")
			return zero, err
		}
		if i == n {
			break
		}
		log.Debug().Err(err).Str("op", op).Int("attempt", i).Dur("delay", p.Delay).Msg("transient failure; retrying")
		if serr := p.sleep(ctx); serr != nil {
			return zero, fault.New(fault.Permanent, op, errors.Join(lastErr, serr))
		}
	}
	return zero, lastErr
}
