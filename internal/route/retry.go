package route

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// attemptPolicy bounds one upstream call site: how often to retry, how long
// to wait between attempts, and how long a single attempt may run. Geocoding
// and routing carry different policies because their upstreams rate-limit
// differently.
type attemptPolicy struct {
	retries uint64
	base    time.Duration
	step    time.Duration
	timeout time.Duration
}

// run executes fn up to retries+1 times. Every attempt gets its own deadline;
// the wait before attempt n is base + n*step.
func (p attemptPolicy) run(ctx context.Context, fn func(context.Context) error) error {
	var attempt int64
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return p.base + time.Duration(attempt)*p.step, false
	})

	return retry.Do(ctx, retry.WithMaxRetries(p.retries, backoff), func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		if err := fn(attemptCtx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
