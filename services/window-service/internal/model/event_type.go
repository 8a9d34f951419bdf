package model

import (
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

// EventTypePeriod is the booking window configuration of one event type.
type EventTypePeriod struct {
	EventTypeID          string
	Timezone             string
	Period               window.PeriodConfig
	MinimumNoticeMinutes int
	UpdatedAt            time.Time
}

// Location falls back to UTC for an empty or unknown timezone.
func (e EventTypePeriod) Location() *time.Location {
	if e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Frame builds the timezone frame for a booker at now. The event offset is
// taken from the stored timezone so it follows DST.
func (e EventTypePeriod) Frame(bookerOffsetMinutes int, now time.Time) window.TimezoneFrame {
	return window.TimezoneFrame{
		EventUTCOffsetMinutes:  window.UTCOffsetMinutes(e.Location(), now),
		BookerUTCOffsetMinutes: bookerOffsetMinutes,
	}
}
