package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func CreateGracefulShutdownChannel() chan os.Signal {
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGTERM, syscall.SIGINT)

	return gracefulShutdown
}

// WithGracefulShutdown returns a context that is cancelled on SIGTERM or SIGINT. The returned
// stop func releases the signal handler.
func WithGracefulShutdown(parent context.Context, l *zap.Logger) (context.Context, func()) {
	return listenForShutdown(parent, CreateGracefulShutdownChannel(), l)
}

func listenForShutdown(parent context.Context, signalChan chan os.Signal, l *zap.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-signalChan:
			l.Sugar().Infow("Caught signal, cancelling", zap.String("signal", sig.String()))
			cancel()
		case <-done:
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(signalChan)
		close(done)
		cancel()
	}
}
