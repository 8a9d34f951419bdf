package window

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayKeyLayout is the layout of BookabilityMap keys.
const DayKeyLayout = "2006-01-02"

// PeriodType selects how far ahead an event type can be booked.
type PeriodType string

const (
	PeriodUnlimited     PeriodType = "UNLIMITED"
	PeriodRolling       PeriodType = "ROLLING"
	PeriodRollingWindow PeriodType = "ROLLING_WINDOW"
	PeriodRange         PeriodType = "RANGE"
)

// ParsePeriodType normalizes raw. Unknown values are returned as-is and
// resolve as unlimited.
func ParsePeriodType(raw string) PeriodType {
	return PeriodType(strings.ToUpper(strings.TrimSpace(raw)))
}

// Known reports whether t is one of the four period types.
func (t PeriodType) Known() bool {
	switch t {
	case PeriodUnlimited, PeriodRolling, PeriodRollingWindow, PeriodRange:
		return true
	}
	return false
}

var ErrInvalidPeriodConfig = errors.New("invalid period config")

// Upper bounds accepted by Validate and ValidateNotice. Ten years either way.
const (
	MaxPeriodDays           = 3650
	MaxMinimumNoticeMinutes = MaxPeriodDays * 24 * 60
)

// PeriodConfig is the booking horizon policy of an event type.
type PeriodConfig struct {
	Type              PeriodType
	Days              int
	CountCalendarDays bool
	StartDate         *time.Time
	EndDate           *time.Time
}

// Validate is meant for write paths. Resolution never calls it and stays
// fail-open for configs that would not pass.
func (c PeriodConfig) Validate() error {
	if c.Type != "" && !c.Type.Known() {
		return fmt.Errorf("%w: unknown period type %q", ErrInvalidPeriodConfig, c.Type)
	}
	if c.Days < 0 || c.Days > MaxPeriodDays {
		return fmt.Errorf("%w: period days must be between 0 and %d", ErrInvalidPeriodConfig, MaxPeriodDays)
	}
	if c.Type == PeriodRange {
		if c.StartDate == nil || c.EndDate == nil {
			return fmt.Errorf("%w: range requires start and end dates", ErrInvalidPeriodConfig)
		}
		if c.EndDate.Before(*c.StartDate) {
			return fmt.Errorf("%w: range end is before range start", ErrInvalidPeriodConfig)
		}
	}
	return nil
}

// ValidateNotice checks a minimum booking notice for write paths.
func ValidateNotice(minutes int) error {
	if minutes < 0 || minutes > MaxMinimumNoticeMinutes {
		return fmt.Errorf("%w: minimum booking notice must be between 0 and %d minutes", ErrInvalidPeriodConfig, MaxMinimumNoticeMinutes)
	}
	return nil
}

// TimezoneFrame carries the organizer's and booker's UTC offsets. They are
// independent because both sides can disagree on which day an instant is.
type TimezoneFrame struct {
	EventUTCOffsetMinutes  int
	BookerUTCOffsetMinutes int
}

func (f TimezoneFrame) eventZone() *time.Location  { return offsetZone(f.EventUTCOffsetMinutes) }
func (f TimezoneFrame) bookerZone() *time.Location { return offsetZone(f.BookerUTCOffsetMinutes) }

func offsetZone(minutes int) *time.Location {
	if minutes == 0 {
		return time.UTC
	}
	return time.FixedZone("", minutes*60)
}

// UTCOffsetMinutes returns the offset of loc at t, in minutes.
func UTCOffsetMinutes(loc *time.Location, t time.Time) int {
	_, secs := t.In(loc).Zone()
	return secs / 60
}

// DayStatus is the bookability of one day.
type DayStatus struct {
	IsBookable bool `json:"isBookable"`
}

// BookabilityMap says which days in the booker's frame have at least one
// open slot. Missing days are not bookable.
type BookabilityMap map[string]DayStatus

func (m BookabilityMap) IsBookable(day time.Time) bool {
	return m[day.Format(DayKeyLayout)].IsBookable
}
