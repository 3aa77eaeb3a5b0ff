package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be reached.
func PingCheck(p Pinger) Check {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// CapacityCheck fails when current() exceeds limit. Use it for in-memory
// state that grows with traffic, such as live session carts.
func CapacityCheck(what string, current func() int, limit int) Check {
	return func(_ context.Context) error {
		if n := current(); n > limit {
			return errors.Errorf("%d %s exceeds limit %d", n, what, limit)
		}
		return nil
	}
}

// GoroutineCountCheck fails when the process runs more than threshold
// goroutines, which usually means a leak.
func GoroutineCountCheck(threshold int) Check {
	return CapacityCheck("goroutines", runtime.NumGoroutine, threshold)
}

// GCPauseCheck fails when a recent stop-the-world pause exceeded threshold.
func GCPauseCheck(threshold time.Duration) Check {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		for _, pause := range stats.Pause {
			if pause > threshold {
				return errors.Errorf("gc pause %s exceeds %s", pause, threshold)
			}
		}
		return nil
	}
}
