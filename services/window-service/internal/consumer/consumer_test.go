package consumer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/boundary"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/model"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

type memInbox struct {
	seen map[string]bool
	err  error
}

func (m *memInbox) Record(_ context.Context, id, _ string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func (m *memInbox) Forget(_ context.Context, id string) error {
	delete(m.seen, id)
	return nil
}

type sliceReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	closed    bool
	drained   func()
}

func (r *sliceReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		if r.drained != nil {
			r.drained()
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *sliceReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

var discard = slog.New(slog.DiscardHandler)

func withID(id string, value string) kafka.Message {
	return kafka.Message{
		Topic:   "eventtype.period.updated.v1",
		Headers: []kafka.Header{{Key: "event_id", Value: []byte(id)}},
		Value:   []byte(value),
	}
}

func TestProcessSkipsDuplicates(t *testing.T) {
	calls := 0
	c := NewWithReader(discard, &memInbox{seen: map[string]bool{}}, &sliceReader{}, func(context.Context, kafka.Message) error {
		calls++
		return nil
	})
	for i := 0; i < 3; i++ {
		if err := c.process(context.Background(), withID("evt-1", "{}")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected handler once, got %d", calls)
	}
}

func TestProcessInboxFailureSkipsHandler(t *testing.T) {
	called := false
	c := NewWithReader(discard, &memInbox{err: errors.New("db down")}, &sliceReader{}, func(context.Context, kafka.Message) error {
		called = true
		return nil
	})
	if err := c.process(context.Background(), withID("evt-1", "{}")); err == nil || called {
		t.Fatalf("expected inbox error without handler call, err=%v called=%v", err, called)
	}
}

func TestRunDrainsReaderAndCloses(t *testing.T) {
	reader := &sliceReader{msgs: []kafka.Message{withID("a", "{}"), withID("b", "{}"), withID("a", "{}")}}
	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	c := NewWithReader(discard, &memInbox{seen: map[string]bool{}}, reader, func(_ context.Context, msg kafka.Message) error {
		got = append(got, string(msg.Headers[0].Value))
		if len(got) == 2 {
			cancel()
		}
		return nil
	})
	c.Run(ctx)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected handled events %v", got)
	}
	if !reader.closed {
		t.Fatal("expected reader to be closed")
	}
}

func TestProcessRedeliveryAfterHandlerFailure(t *testing.T) {
	calls := 0
	c := NewWithReader(discard, &memInbox{seen: map[string]bool{}}, &sliceReader{}, func(context.Context, kafka.Message) error {
		calls++
		if calls == 1 {
			return errors.New("db down")
		}
		return nil
	})
	if err := c.process(context.Background(), withID("evt-1", "{}")); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	if err := c.process(context.Background(), withID("evt-1", "{}")); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected redelivery to reach the handler, got %d calls", calls)
	}
	if err := c.process(context.Background(), withID("evt-1", "{}")); err != nil || calls != 2 {
		t.Fatalf("expected later copy to be a duplicate, err=%v calls=%d", err, calls)
	}
}

func TestRunRetriesFailedHandlerThenCommits(t *testing.T) {
	reader := &sliceReader{msgs: []kafka.Message{withID("a", "{}"), withID("b", "{}")}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	attempts := map[string]int{}
	c := NewWithReader(discard, &memInbox{seen: map[string]bool{}}, reader, func(_ context.Context, msg kafka.Message) error {
		id := string(msg.Headers[0].Value)
		attempts[id]++
		if id == "a" && attempts[id] < 3 {
			return errors.New("db down")
		}
		if id == "b" {
			cancel()
		}
		return nil
	})
	c.backoff = time.Millisecond
	c.Run(ctx)
	if attempts["a"] != 3 || attempts["b"] != 1 {
		t.Fatalf("unexpected attempts %v", attempts)
	}
	if len(reader.committed) == 0 || string(reader.committed[0].Headers[0].Value) != "a" {
		t.Fatalf("expected a to be committed after retries, got %d commits", len(reader.committed))
	}
}

func TestRunGivesUpAfterMaxAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &sliceReader{msgs: []kafka.Message{withID("a", "{}")}, drained: cancel}
	inbox := &memInbox{seen: map[string]bool{}}
	calls := 0
	c := NewWithReader(discard, inbox, reader, func(context.Context, kafka.Message) error {
		calls++
		return errors.New("db down")
	})
	c.backoff = time.Millisecond
	c.Run(ctx)
	if len(reader.committed) != 1 {
		t.Fatalf("expected the failed event to be committed once, got %d", len(reader.committed))
	}
	if calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, calls)
	}
	if inbox.seen["a"] {
		t.Fatal("expected failed event to be forgotten")
	}
}

type recordingWriter struct {
	got []model.EventTypePeriod
	err error
}

func (w *recordingWriter) UpsertPeriod(_ context.Context, et model.EventTypePeriod) error {
	if w.err != nil {
		return w.err
	}
	w.got = append(w.got, et)
	return nil
}

func TestPeriodUpdated(t *testing.T) {
	w := &recordingWriter{}
	h := PeriodUpdated(w, discard)

	msg := withID("e1", `{"event_type_id":"5b0f2c1e-0c3a-4c55-9f0e-2f1d3c4b5a01","period_type":"rolling","period_days":3}`)
	if err := h(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.got) != 1 || w.got[0].Period.Type != window.PeriodRolling || w.got[0].Period.Days != 3 {
		t.Fatalf("unexpected upserts %+v", w.got)
	}

	if err := h(context.Background(), withID("e2", `not json`)); err != nil {
		t.Fatalf("malformed payload should be dropped, got %v", err)
	}
	if err := h(context.Background(), withID("e3", `{"period_type":"RANGE","period_start_date":"bad"}`)); err != nil {
		t.Fatalf("invalid payload should be dropped, got %v", err)
	}

	w.err = errors.New("db down")
	if err := h(context.Background(), msg); err == nil {
		t.Fatal("expected storage error to surface")
	}
}

type stubIngester struct {
	got boundary.AvailabilityComputed
}

func (s *stubIngester) IngestAvailability(_ context.Context, a boundary.AvailabilityComputed) (window.BookabilityMap, error) {
	s.got = a
	if a.EventTypeID == "" {
		return nil, boundary.ErrInvalidEventTypeID
	}
	return window.BookabilityMap{"2024-01-02": {IsBookable: true}}, nil
}

func TestAvailabilityComputed(t *testing.T) {
	ing := &stubIngester{}
	h := AvailabilityComputed(ing, discard)
	body := `{"event_type_id":"5b0f2c1e-0c3a-4c55-9f0e-2f1d3c4b5a01","booker_utc_offset":60,"duration_minutes":45}`
	if err := h(context.Background(), withID("e1", body)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ing.got.BookerUTCOffset != 60 || ing.got.DurationMinutes != 45 {
		t.Fatalf("unexpected payload %+v", ing.got)
	}
	if err := h(context.Background(), withID("e2", `{}`)); err != nil {
		t.Fatalf("invalid id should be dropped, got %v", err)
	}
}
