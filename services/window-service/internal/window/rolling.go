package window

import "time"

// MaxDaysToCheck caps the rolling window scan at roughly two months ahead.
const MaxDaysToCheck = 30 + 31

// RollingWindowEndDate walks forward from the day of start until daysNeeded
// bookable days are found or MaxDaysToCheck days have been looked at, and
// returns the end of the last bookable day.
//
// start must be in the same frame as the bookability keys. When no bookable
// day is found the end of the day the scan stopped at is returned.
func (r *Resolver) RollingWindowEndDate(start time.Time, daysNeeded int, bookability BookabilityMap, countNonBusinessDays bool) time.Time {
	r.logger.Debug("rolling window scan", "start_day", start.Format(time.RFC3339), "days_needed", daysNeeded)

	current := startOfDay(start)
	var endDay time.Time
	found := false
	bookableDays := 0

	for iteration := 1; bookableDays < daysNeeded; iteration++ {
		if iteration > MaxDaysToCheck {
			break
		}

		isBookable := bookability.IsBookable(current)
		if isBookable {
			bookableDays++
			endDay = current
			found = true
		}
		r.logger.Debug("rolling window iteration",
			"iteration", iteration,
			"day", current.Format(DayKeyLayout),
			"bookable", isBookable,
			"bookable_days", bookableDays,
		)

		if countNonBusinessDays {
			current = current.AddDate(0, 0, 1)
		} else {
			current = AddBusinessDays(current, 1)
		}
	}

	if !found {
		endDay = current
	}
	r.logger.Debug("rolling window end day", "day", endDay.Format(DayKeyLayout), "found", found)
	return endOfDay(endDay)
}
