package boundary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/bookability"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/model"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/storage"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

const (
	rollingID = "0b8f5f39-6a57-4c38-9c0f-0d8b1f3b7a01"
	windowID  = "0b8f5f39-6a57-4c38-9c0f-0d8b1f3b7a02"
	rangeID   = "0b8f5f39-6a57-4c38-9c0f-0d8b1f3b7a03"
	missingID = "0b8f5f39-6a57-4c38-9c0f-0d8b1f3b7aff"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type memStore struct {
	mu    sync.Mutex
	items map[string]model.EventTypePeriod
}

func newMemStore(items ...model.EventTypePeriod) *memStore {
	s := &memStore{items: map[string]model.EventTypePeriod{}}
	for _, it := range items {
		s.items[it.EventTypeID] = it
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (model.EventTypePeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return model.EventTypePeriod{}, storage.ErrNotFound
	}
	return it, nil
}

func (s *memStore) Upsert(_ context.Context, e model.EventTypePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.EventTypeID] = e
	return nil
}

type memCache struct {
	mu   sync.Mutex
	maps map[string]window.BookabilityMap
	err  error
}

func newMemCache() *memCache {
	return &memCache{maps: map[string]window.BookabilityMap{}}
}

func (c *memCache) key(id string, offset int) string { return fmt.Sprintf("%s:%d", id, offset) }

func (c *memCache) Get(_ context.Context, id string, offset int) (window.BookabilityMap, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	m, ok := c.maps[c.key(id, offset)]
	return m, ok, nil
}

func (c *memCache) Put(_ context.Context, id string, offset int, m window.BookabilityMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.maps[c.key(id, offset)] = m
	return nil
}

var errCacheDown = errors.New("cache down")

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fixtures() []model.EventTypePeriod {
	return []model.EventTypePeriod{
		{
			EventTypeID:          rollingID,
			Timezone:             "UTC",
			Period:               window.PeriodConfig{Type: window.PeriodRolling, Days: 2, CountCalendarDays: true},
			MinimumNoticeMinutes: 60,
		},
		{
			EventTypeID: windowID,
			Period:      window.PeriodConfig{Type: window.PeriodRollingWindow, Days: 2, CountCalendarDays: true},
		},
		{
			EventTypeID: rangeID,
			Timezone:    "UTC",
			Period:      window.PeriodConfig{Type: window.PeriodRange, StartDate: date(2024, 2, 1), EndDate: date(2024, 2, 5)},
		},
	}
}

func newTestService(cache *memCache) (*Service, *memStore) {
	store := newMemStore(fixtures()...)
	resolver := window.NewResolver(window.WithClock(window.FixedClock(testNow)))
	var c bookability.Cache
	if cache != nil {
		c = cache
	}
	return NewService(store, c, resolver, slog.New(slog.DiscardHandler)), store
}
