// Package maintenance runs the bot's periodic jobs: archive backups,
// stats posts and housekeeping.
package maintenance

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/pauljones0/syncbot/internal/logger"
)

// JobFunc is one run of a periodic job.
type JobFunc func(ctx context.Context) error

// ErrorReporter receives job failures.
type ErrorReporter interface {
	Report(ctx context.Context, err error, kv ...any)
}

// RunEvery runs job once per interval until ctx is cancelled. The first
// run happens one interval after the call.
func RunEvery(ctx context.Context, name string, interval time.Duration, job JobFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, name, job)
		}
	}
}

func runOnce(ctx context.Context, name string, job JobFunc) {
	ctx = logger.WithRequestID(ctx, fmt.Sprintf("%s-%d", name, time.Now().UnixNano()))
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Recovered from panic in job", "job", name, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	if err := job(ctx); err != nil {
		logger.Error(ctx, "Job failed", "job", name, "error", err)
		return
	}
	logger.Debug(ctx, "Job finished", "job", name, "took", time.Since(start))
}
