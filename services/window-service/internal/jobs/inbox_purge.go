package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type InboxPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// InboxPurgeJob deletes processed inbox rows past their retention.
type InboxPurgeJob struct {
	repo      InboxPurger
	retention time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

func NewInboxPurgeJob(repo InboxPurger, retention time.Duration, logger *slog.Logger) *InboxPurgeJob {
	return &InboxPurgeJob{repo: repo, retention: retention, timeout: time.Minute, logger: logger}
}

func (j *InboxPurgeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	_, _ = j.RunOnce(ctx)
}

func (j *InboxPurgeJob) RunOnce(ctx context.Context) (int64, error) {
	n, err := j.repo.PurgeOlderThan(ctx, j.retention)
	if err != nil {
		j.logger.Error("inbox purge failed", "err", err)
		return 0, err
	}
	j.logger.Info("inbox purged", "deleted", n, "retention", j.retention.String())
	return n, nil
}

// Schedule registers job on a new cron scheduler using a standard five
// field spec. The caller starts and stops the scheduler.
func Schedule(spec string, job cron.Job, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger})), cron.WithLogger(cronLogger{logger}))
	if _, err := c.AddJob(spec, job); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return c, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"err", err}, keysAndValues...)...)
}
