package window

import (
	"errors"
	"time"
)

var ErrBookabilityRequired = errors.New("bookability map is required for rolling window period")

// Limits is the resolved future bound of an event type. It is one of
// NoLimit, RollingLimit or RangeLimit.
type Limits interface {
	// Violated reports whether t falls outside the limit.
	Violated(t time.Time) bool
	Kind() string
}

type NoLimit struct{}

func (NoLimit) Violated(time.Time) bool { return false }
func (NoLimit) Kind() string            { return "none" }

// RollingLimit ends at the end of the last allowed day in the booker's frame.
type RollingLimit struct {
	End time.Time
}

func (l RollingLimit) Violated(t time.Time) bool { return t.After(l.End) }
func (RollingLimit) Kind() string                { return "rolling" }

// RangeLimit covers whole days of the organizer's frame, start of the first
// day through end of the last.
type RangeLimit struct {
	Start time.Time
	End   time.Time
}

func (l RangeLimit) Violated(t time.Time) bool { return t.Before(l.Start) || t.After(l.End) }
func (RangeLimit) Kind() string                { return "range" }

// CalculatePeriodLimits resolves cfg against the resolver's current time.
//
// ROLLING and ROLLING_WINDOW count days in the booker's frame so the earliest
// slot a booker's local day allows stays reachable. RANGE uses the event's
// frame because the organizer picked literal dates.
func (r *Resolver) CalculatePeriodLimits(cfg PeriodConfig, frame TimezoneFrame, bookability BookabilityMap, skipRollingWindowCheck bool) (Limits, error) {
	now := r.now()
	nowInBookerTz := now.In(frame.bookerZone())
	days := cfg.Days
	if days < 0 {
		days = 0
	}

	r.logger.Debug("calculating period limits",
		"period_type", string(cfg.Type),
		"period_days", days,
		"count_calendar_days", cfg.CountCalendarDays,
		"period_start_date", cfg.StartDate,
		"period_end_date", cfg.EndDate,
		"now_in_event_tz", now.In(frame.eventZone()).Format(time.RFC3339),
	)

	switch cfg.Type {
	case PeriodRolling:
		var endDay time.Time
		if cfg.CountCalendarDays {
			endDay = nowInBookerTz.AddDate(0, 0, days)
		} else {
			endDay = AddBusinessDays(nowInBookerTz, days)
		}
		return RollingLimit{End: endOfDay(endDay)}, nil

	case PeriodRollingWindow:
		if skipRollingWindowCheck {
			return NoLimit{}, nil
		}
		if bookability == nil {
			return nil, ErrBookabilityRequired
		}
		end := r.RollingWindowEndDate(nowInBookerTz, days, bookability, cfg.CountCalendarDays)
		return RollingLimit{End: end}, nil

	case PeriodRange:
		if cfg.StartDate == nil || cfg.EndDate == nil {
			r.logger.Warn("range period without dates treated as unlimited")
			return NoLimit{}, nil
		}
		eventTz := frame.eventZone()
		return RangeLimit{
			Start: startOfDay(cfg.StartDate.In(eventTz)),
			End:   endOfDay(cfg.EndDate.In(eventTz)),
		}, nil
	}

	return NoLimit{}, nil
}
