package sweep

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration returns the duration until the schedule's next fire time.
func nextCronDuration(sched cron.Schedule, now time.Time) time.Duration {
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RunDaemon runs sweep passes on the given cron cadence until ctx is
// cancelled. Pass failures are logged, not fatal.
func RunDaemon(ctx context.Context, deps Deps, cronExpr string) error {
	sched, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("sweep: parse cron %q: %w", cronExpr, err)
	}

	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	fmt.Fprintf(out, "Sweep daemon starting (cadence %q)...\n", cronExpr)

	for {
		d := nextCronDuration(sched, time.Now())
		if !sleepWithContext(ctx, d) {
			fmt.Fprintf(out, "Sweep daemon stopped.\n")
			return nil
		}

		if _, err := RunOnce(ctx, deps, time.Now()); err != nil {
			if ctx.Err() != nil {
				fmt.Fprintf(out, "Sweep daemon stopped.\n")
				return nil
			}
			log.Printf("sweep: pass error: %v", err)
		}
	}
}

// sleepWithContext sleeps for duration d, returning false if ctx is
// cancelled first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
