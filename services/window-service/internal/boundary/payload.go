package boundary

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/bookability"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/model"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

// PeriodPayload is the wire form of an event type period, shared by the
// admin API and the eventtype.period.updated.v1 topic.
type PeriodPayload struct {
	EventTypeID             string `json:"event_type_id"`
	Timezone                string `json:"timezone"`
	PeriodType              string `json:"period_type"`
	PeriodDays              *int   `json:"period_days"`
	PeriodCountCalendarDays bool   `json:"period_count_calendar_days"`
	PeriodStartDate         string `json:"period_start_date"`
	PeriodEndDate           string `json:"period_end_date"`
	MinimumBookingNotice    int    `json:"minimum_booking_notice_minutes"`
}

// ToModel parses p. A missing period_days counts as 0.
func (p PeriodPayload) ToModel() (model.EventTypePeriod, error) {
	start, err := parseDate(p.PeriodStartDate)
	if err != nil {
		return model.EventTypePeriod{}, fmt.Errorf("%w: period_start_date: %v", window.ErrInvalidPeriodConfig, err)
	}
	end, err := parseDate(p.PeriodEndDate)
	if err != nil {
		return model.EventTypePeriod{}, fmt.Errorf("%w: period_end_date: %v", window.ErrInvalidPeriodConfig, err)
	}
	days := 0
	if p.PeriodDays != nil {
		days = *p.PeriodDays
	}
	return model.EventTypePeriod{
		EventTypeID: strings.TrimSpace(p.EventTypeID),
		Timezone:    strings.TrimSpace(p.Timezone),
		Period: window.PeriodConfig{
			Type:              window.ParsePeriodType(p.PeriodType),
			Days:              days,
			CountCalendarDays: p.PeriodCountCalendarDays,
			StartDate:         start,
			EndDate:           end,
		},
		MinimumNoticeMinutes: p.MinimumBookingNotice,
	}, nil
}

// parseDate accepts a bare date (midnight UTC) or an RFC 3339 instant.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(window.DayKeyLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AvailabilityComputed is the availability.days.computed.v1 payload.
type AvailabilityComputed struct {
	EventTypeID     string                 `json:"event_type_id"`
	BookerUTCOffset int                    `json:"booker_utc_offset"`
	DurationMinutes int                    `json:"duration_minutes"`
	SlotStepMinutes int                    `json:"slot_step_minutes"`
	Days            []bookability.Day      `json:"days"`
	Busy            []bookability.Interval `json:"busy"`
}

func (a AvailabilityComputed) rules() bookability.SlotRules {
	duration := a.DurationMinutes
	if duration <= 0 {
		duration = 30
	}
	step := a.SlotStepMinutes
	if step <= 0 {
		step = 15
	}
	return bookability.SlotRules{
		Duration: time.Duration(duration) * time.Minute,
		Step:     time.Duration(step) * time.Minute,
	}
}
