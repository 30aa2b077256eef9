package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"note-dashboard-extractor/internal/observability"
)

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The crawl
// checks it between navigations, so an interrupted run still flushes what it
// has.
func SignalContext(parent context.Context, logger *observability.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
