package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type stubPurger struct {
	n         int64
	err       error
	retention time.Duration
	calls     int
}

func (s *stubPurger) PurgeOlderThan(_ context.Context, retention time.Duration) (int64, error) {
	s.calls++
	s.retention = retention
	return s.n, s.err
}

var discard = slog.New(slog.DiscardHandler)

func TestInboxPurgeRunOnce(t *testing.T) {
	p := &stubPurger{n: 7}
	n, err := NewInboxPurgeJob(p, 48*time.Hour, discard).RunOnce(context.Background())
	if err != nil || n != 7 || p.retention != 48*time.Hour {
		t.Fatalf("unexpected result n=%d err=%v retention=%s", n, err, p.retention)
	}

	p.err = errors.New("db down")
	if _, err := NewInboxPurgeJob(p, time.Hour, discard).RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestInboxPurgeRunSwallowsErrors(t *testing.T) {
	p := &stubPurger{err: errors.New("db down")}
	NewInboxPurgeJob(p, time.Hour, discard).Run()
	if p.calls != 1 {
		t.Fatalf("expected one purge, got %d", p.calls)
	}
}

func TestSchedule(t *testing.T) {
	c, err := Schedule("@every 1h", NewInboxPurgeJob(&stubPurger{}, time.Hour, discard), discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Fatalf("expected one entry, got %d", len(c.Entries()))
	}
	if _, err := Schedule("not a schedule", NewInboxPurgeJob(&stubPurger{}, time.Hour, discard), discard); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}
