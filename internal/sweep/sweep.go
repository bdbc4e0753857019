package sweep

import (
	"context"
	"log/slog"
	"time"
)

// Run ticks fn at the given interval until the context is cancelled. A panic
// or error inside one tick is logged and the next tick still runs.
func Run(ctx context.Context, logger *slog.Logger, name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx, logger, name, fn)
		}
	}
}

func tick(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sweep panic", "sweep", name, "panic", r)
		}
	}()
	if err := fn(ctx); err != nil {
		logger.Warn("sweep tick", "sweep", name, "error", err)
	}
}
