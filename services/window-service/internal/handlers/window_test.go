package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/boundary"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/model"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/storage"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

const (
	rollingID = "5b0f2c1e-0c3a-4c55-9f0e-2f1d3c4b5a01"
	windowID  = "5b0f2c1e-0c3a-4c55-9f0e-2f1d3c4b5a02"
	missingID = "5b0f2c1e-0c3a-4c55-9f0e-2f1d3c4b5aff"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type stubStore map[string]model.EventTypePeriod

func (s stubStore) Get(_ context.Context, id string) (model.EventTypePeriod, error) {
	e, ok := s[id]
	if !ok {
		return model.EventTypePeriod{}, storage.ErrNotFound
	}
	return e, nil
}

func (s stubStore) Upsert(_ context.Context, e model.EventTypePeriod) error {
	s[e.EventTypeID] = e
	return nil
}

type stubCache map[string]window.BookabilityMap

func (c stubCache) Get(_ context.Context, id string, _ int) (window.BookabilityMap, bool, error) {
	m, ok := c[id]
	return m, ok, nil
}

func (c stubCache) Put(_ context.Context, id string, _ int, m window.BookabilityMap) error {
	c[id] = m
	return nil
}

func newTestHandler() (*WindowHandler, stubStore, stubCache) {
	store := stubStore{
		rollingID: {
			EventTypeID:          rollingID,
			Timezone:             "UTC",
			Period:               window.PeriodConfig{Type: window.PeriodRolling, Days: 2, CountCalendarDays: true},
			MinimumNoticeMinutes: 60,
		},
		windowID: {
			EventTypeID: windowID,
			Period:      window.PeriodConfig{Type: window.PeriodRollingWindow, Days: 1, CountCalendarDays: true},
		},
	}
	cache := stubCache{}
	logger := slog.New(slog.DiscardHandler)
	resolver := window.NewResolver(window.WithClock(window.FixedClock(testNow)))
	return NewWindowHandler(boundary.NewService(store, cache, resolver, logger), logger), store, cache
}

func decode(t *testing.T, rw *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rw.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rw.Body.String(), err)
	}
	return out
}

func TestPeriodLimitsRolling(t *testing.T) {
	h, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/period-limits?event_type_id="+rollingID+"&booker_utc_offset=0", nil)
	rw := httptest.NewRecorder()
	h.PeriodLimits(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	out := decode(t, rw)
	if out["kind"] != "rolling" || out["rolling_end"] != "2024-01-03T23:59:59.999Z" {
		t.Fatalf("unexpected limits %v", out)
	}
}

func TestPeriodLimitsWindowWithoutCacheIsSkipped(t *testing.T) {
	h, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/period-limits?event_type_id="+windowID, nil)
	rw := httptest.NewRecorder()
	h.PeriodLimits(rw, req)
	out := decode(t, rw)
	if out["kind"] != "none" || out["rolling_window_check_skipped"] != true {
		t.Fatalf("unexpected limits %v", out)
	}
}

func TestPeriodLimitsErrors(t *testing.T) {
	h, _, _ := newTestHandler()
	cases := []struct {
		query string
		code  int
	}{
		{"", http.StatusBadRequest},
		{"event_type_id=nope", http.StatusBadRequest},
		{"event_type_id=" + rollingID + "&booker_utc_offset=abc", http.StatusBadRequest},
		{"event_type_id=" + rollingID + "&booker_utc_offset=9999", http.StatusBadRequest},
		{"event_type_id=" + missingID, http.StatusNotFound},
	}
	for _, tc := range cases {
		rw := httptest.NewRecorder()
		h.PeriodLimits(rw, httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil))
		if rw.Code != tc.code {
			t.Fatalf("%q: expected %d, got %d", tc.query, tc.code, rw.Code)
		}
	}
}

func TestCheck(t *testing.T) {
	h, _, _ := newTestHandler()
	cases := []struct {
		time   string
		code   int
		reason string
		out    bool
	}{
		{"2024-01-02T10:00:00Z", http.StatusOK, "", false},
		{"2024-01-01T00:30:00Z", http.StatusOK, "minimum_notice", true},
		{"2024-01-04T00:00:00Z", http.StatusOK, "future_limit", true},
		{"2023-12-31T23:00:00Z", http.StatusUnprocessableEntity, "in_past", false},
	}
	for _, tc := range cases {
		body := `{"event_type_id":"` + rollingID + `","time":"` + tc.time + `","booker_utc_offset":0}`
		rw := httptest.NewRecorder()
		h.Check(rw, httptest.NewRequest(http.MethodPost, "/api/v1/public/check", strings.NewReader(body)))
		if rw.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d: %s", tc.time, tc.code, rw.Code, rw.Body.String())
		}
		out := decode(t, rw)
		reason, _ := out["reason"].(string)
		if reason != tc.reason {
			t.Fatalf("%s: expected reason %q, got %v", tc.time, tc.reason, out)
		}
		if tc.code == http.StatusOK && out["out_of_bounds"] != tc.out {
			t.Fatalf("%s: expected out_of_bounds=%v, got %v", tc.time, tc.out, out)
		}
	}
}

func TestCheckRejectsBadInput(t *testing.T) {
	h, _, _ := newTestHandler()
	for _, body := range []string{
		`{`,
		`{"time":"2024-01-02T10:00:00Z"}`,
		`{"event_type_id":"` + rollingID + `","time":"tomorrow"}`,
		`{"event_type_id":"` + rollingID + `","time":"2024-01-02T10:00:00Z","booker_utc_offset":9999}`,
		`{"event_type_id":"` + rollingID + `","time":"2024-01-02T10:00:00Z","booker_utc_offset":-841}`,
	} {
		rw := httptest.NewRecorder()
		h.Check(rw, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		if rw.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rw.Code)
		}
	}
	rw := httptest.NewRecorder()
	h.Check(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
}

func TestUpsertPeriod(t *testing.T) {
	h, store, _ := newTestHandler()
	id := "5b0f2c1e-0c3a-4c55-9f0e-2f1d3c4b5a10"
	body := `{"event_type_id":"` + id + `","timezone":"Europe/Berlin","period_type":"RANGE","period_start_date":"2024-02-01","period_end_date":"2024-02-05"}`
	rw := httptest.NewRecorder()
	h.UpsertPeriod(rw, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)))
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rw.Code, rw.Body.String())
	}
	if got := store[id]; got.Period.Type != window.PeriodRange || got.Timezone != "Europe/Berlin" {
		t.Fatalf("unexpected stored period %+v", got)
	}

	body = `{"event_type_id":"` + id + `","period_type":"RANGE","period_start_date":"2024-02-05","period_end_date":"2024-02-01"}`
	rw = httptest.NewRecorder()
	h.UpsertPeriod(rw, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)))
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rw.Code)
	}
}

func TestPutBookabilityEnablesRollingWindow(t *testing.T) {
	h, _, cache := newTestHandler()
	body := `{"event_type_id":"` + windowID + `","booker_utc_offset":0,"days":{"2024-01-01":{"isBookable":false},"2024-01-02":{"isBookable":true}}}`
	rw := httptest.NewRecorder()
	h.PutBookability(rw, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)))
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rw.Code, rw.Body.String())
	}
	if !cache[windowID]["2024-01-02"].IsBookable {
		t.Fatalf("expected cached map, got %v", cache[windowID])
	}

	rw = httptest.NewRecorder()
	h.PeriodLimits(rw, httptest.NewRequest(http.MethodGet, "/?event_type_id="+windowID, nil))
	out := decode(t, rw)
	if out["kind"] != "rolling" || out["rolling_end"] != "2024-01-02T23:59:59.999Z" {
		t.Fatalf("unexpected limits %v", out)
	}

	body = `{"event_type_id":"` + windowID + `","days":{"01/02/2024":{"isBookable":true}}}`
	rw = httptest.NewRecorder()
	h.PutBookability(rw, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body)))
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad day key, got %d", rw.Code)
	}
}
