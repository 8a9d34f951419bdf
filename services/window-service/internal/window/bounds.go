package window

import (
	"errors"
	"math"
	"time"
)

var ErrBookingDateInPast = errors.New("attempting to book a meeting in the past")

// IsTimeOutOfBounds checks a timeslot against the current time. A time
// before now returns ErrBookingDateInPast rather than true so callers can
// tell the two apart. Otherwise it reports whether t is inside the minimum
// booking notice.
func (r *Resolver) IsTimeOutOfBounds(t time.Time, minimumNoticeMinutes int) (bool, error) {
	now := r.now()
	if t.Before(now) {
		return false, ErrBookingDateInPast
	}
	if minimumNoticeMinutes > 0 {
		// A notice longer than time.Duration can hold covers every
		// representable future instant.
		if int64(minimumNoticeMinutes) > math.MaxInt64/int64(time.Minute) {
			return true, nil
		}
		earliest := now.Add(time.Duration(minimumNoticeMinutes) * time.Minute)
		if t.Before(earliest) {
			return true, nil
		}
	}
	return false, nil
}

// IsTimeViolatingFutureLimit reports whether t is beyond limits. A nil
// limits value is unlimited.
func IsTimeViolatingFutureLimit(t time.Time, limits Limits) bool {
	if limits == nil {
		return false
	}
	return limits.Violated(t)
}

// IsOutOfBounds combines the notice check with the period limits of cfg.
//
// The rolling window lookup is always skipped here, so ROLLING_WINDOW acts as
// unlimited. Callers holding a bookability map should use
// IsOutOfBoundsWithBookability.
func (r *Resolver) IsOutOfBounds(t time.Time, cfg PeriodConfig, frame TimezoneFrame, minimumNoticeMinutes int) (bool, error) {
	return r.isOutOfBounds(t, cfg, frame, minimumNoticeMinutes, nil, true)
}

// IsOutOfBoundsWithBookability is IsOutOfBounds with full ROLLING_WINDOW
// enforcement against bookability.
func (r *Resolver) IsOutOfBoundsWithBookability(t time.Time, cfg PeriodConfig, frame TimezoneFrame, minimumNoticeMinutes int, bookability BookabilityMap) (bool, error) {
	return r.isOutOfBounds(t, cfg, frame, minimumNoticeMinutes, bookability, false)
}

func (r *Resolver) isOutOfBounds(t time.Time, cfg PeriodConfig, frame TimezoneFrame, minimumNoticeMinutes int, bookability BookabilityMap, skipRollingWindowCheck bool) (bool, error) {
	verdict, err := r.Check(t, cfg, frame, minimumNoticeMinutes, bookability, skipRollingWindowCheck)
	if err != nil {
		return false, err
	}
	return verdict != WithinBounds, nil
}

// Verdict names why a timeslot was rejected.
type Verdict string

const (
	WithinBounds        Verdict = ""
	ViolatesNotice      Verdict = "minimum_notice"
	ViolatesFutureLimit Verdict = "future_limit"
)

// Check is the detailed form of IsOutOfBounds. ErrBookingDateInPast and
// ErrBookabilityRequired are returned as errors.
func (r *Resolver) Check(t time.Time, cfg PeriodConfig, frame TimezoneFrame, minimumNoticeMinutes int, bookability BookabilityMap, skipRollingWindowCheck bool) (Verdict, error) {
	tooSoon, err := r.IsTimeOutOfBounds(t, minimumNoticeMinutes)
	if err != nil {
		return WithinBounds, err
	}
	if tooSoon {
		return ViolatesNotice, nil
	}
	limits, err := r.CalculatePeriodLimits(cfg, frame, bookability, skipRollingWindowCheck)
	if err != nil {
		return WithinBounds, err
	}
	if IsTimeViolatingFutureLimit(t, limits) {
		r.logger.Debug("future limit violated", "time", t.Format(time.RFC3339), "limit", limits.Kind())
		return ViolatesFutureLimit, nil
	}
	return WithinBounds, nil
}
