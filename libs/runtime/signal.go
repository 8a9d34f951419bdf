package runtime

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Shutdowner is satisfied by *http.Server.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// GracefulShutdown stops srv within timeout once called, logging the outcome
// under name.
func GracefulShutdown(logger *slog.Logger, name string, srv Shutdowner, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(name+" shutdown error", "err", err)
		return
	}
	logger.Info(name + " stopped")
}
