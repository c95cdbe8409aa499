package collector

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// SetupSignalHandler creates a context that is cancelled on SIGTERM or SIGINT.
// It also calls the provided shutdown function before cancelling. A second
// signal exits the process.
func SetupSignalHandler(log *zap.Logger, shutdownFunc func(context.Context)) context.Context {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating graceful shutdown", zap.Stringer("signal", sig))

		if shutdownFunc != nil {
			shutdownFunc(ctx)
		}

		cancel()

		sig = <-sigCh
		log.Warn("received second signal, forcing exit", zap.Stringer("signal", sig))
		os.Exit(1)
	}()

	return ctx
}
