package window

import "time"

// endOfDayNanos matches a millisecond-precision end of day, 23:59:59.999.
const endOfDayNanos = int(999 * time.Millisecond)

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, endOfDayNanos, t.Location())
}

// IsBusinessDay reports whether t falls on Monday through Friday in its own
// location. Holidays are not considered.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// AddBusinessDays moves t forward (or backward for negative n) until n
// business days have been passed. Weekend days are stepped over and never
// counted, so any n != 0 lands on a business day. n == 0 returns t.
//
// Every run of seven calendar days holds exactly five business days, so whole
// weeks are skipped at once and at most five single steps remain.
func AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	if weeks := (n - 1) / 5; weeks > 0 {
		t = t.AddDate(0, 0, step*7*weeks)
		n -= 5 * weeks
	}
	for n > 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(t) {
			n--
		}
	}
	return t
}
