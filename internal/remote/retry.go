package remote

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
)

// Retrier wraps facade operations with bounded retry for transient
// interaction failures and a single re-login on auth failure. Exceeding the
// bound surfaces the last error to the caller; per-item failure handling is
// the reconciler's job.
type Retrier struct {
	Facade   Facade
	Creds    Credentials
	Attempts int           // 0 means defaultAttempts
	Delay    time.Duration // 0 means defaultDelay

	reloggedIn bool
}

// Do runs op with retry. The op name is used for logging only.
func (r *Retrier) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	delay := r.Delay
	if delay <= 0 {
		delay = defaultDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var authErr *AuthError
		if errors.As(err, &authErr) {
			// Re-authenticate once per run, then retry the operation.
			if r.reloggedIn {
				return err
			}
			r.reloggedIn = true
			slog.Info("re-authenticating", "op", name)
			if err := r.Facade.Login(ctx, r.Creds); err != nil {
				return err
			}
			continue
		}

		if !IsTransient(err) {
			return err
		}

		slog.Debug("transient remote failure", "op", name, "attempt", attempt, "err", err)
		if attempt < attempts {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
