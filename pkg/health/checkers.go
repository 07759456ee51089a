package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// Pinger is the slice of a connection pool the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabasePingCheck returns the storefront's readiness CheckFunc: the
// service cannot take orders without its database, so a failed ping marks
// it not ready.
func DatabasePingCheck(db Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return errors.Wrap(err, "database ping")
		}
		return nil
	}
}

// GoroutineCountCheck returns a liveness CheckFunc that fails when the
// goroutine count exceeds the threshold. The API serves short request
// handlers, so a runaway count means leaked handlers or stuck pool waits.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck returns a liveness CheckFunc that fails when any recorded
// GC pause exceeds the threshold. Long pauses stall every in-flight checkout,
// so they count as unhealthy even though the process is alive.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		for _, pause := range stats.Pause {
			if pause > threshold {
				return errors.Errorf("GC pause %s exceeds threshold %s", pause, threshold)
			}
		}
		return nil
	}
}
