package backoff

import (
	"context"
)

// Retry calls fn until it succeeds, returns an error that retryable rejects, or attempts run out.
// The backoff is reset before the first attempt and the last error is returned on exhaustion.
func Retry(ctx context.Context, b *Backoff, attempts int, retryable func(error) bool, fn func() error) error {
	b.Reset()
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if berr := b.Backoff(ctx); berr != nil {
			return err
		}
	}
	return err
}
