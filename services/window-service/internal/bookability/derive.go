package bookability

import (
	"time"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Day is the working availability of one calendar day, keyed by its date in
// the booker's frame.
type Day struct {
	Date    string     `json:"date"`
	Windows []Interval `json:"windows"`
}

type SlotRules struct {
	Duration time.Duration
	Step     time.Duration
}

// Derive builds a BookabilityMap from per-day working windows. A day is
// bookable when at least one slot of rules.Duration fits in one of its
// windows without overlapping busy and without starting before now.
// Days with an unparsable date are skipped.
func Derive(days []Day, rules SlotRules, busy []Interval, now time.Time) window.BookabilityMap {
	out := make(window.BookabilityMap, len(days))
	for _, day := range days {
		if _, err := time.Parse(window.DayKeyLayout, day.Date); err != nil {
			continue
		}
		bookable := false
		for _, w := range day.Windows {
			if HasSlot(w.Start, w.End, rules.Duration, rules.Step, busy, now) {
				bookable = true
				break
			}
		}
		// OR-in so duplicate entries for a date cannot unmark a bookable day.
		out[day.Date] = window.DayStatus{IsBookable: bookable || out[day.Date].IsBookable}
	}
	return out
}

// HasSlot reports whether a slot of length duration starting on a step
// boundary within [windowStart, windowEnd) avoids every busy interval and
// does not start before now.
func HasSlot(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) bool {
	if duration <= 0 || step <= 0 {
		return false
	}
	if !windowEnd.After(windowStart) || windowStart.Add(duration).After(windowEnd) {
		return false
	}
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		if !overlapsAny(t, t.Add(duration), busy) {
			return true
		}
	}
	return false
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
