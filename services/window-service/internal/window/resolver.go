// Package window decides how far ahead an event type can be booked and
// whether a given timeslot is bookable right now.
//
// Everything here is pure: the current time and all inputs come from the
// caller, and a Resolver holds no mutable state, so it is safe for
// concurrent use.
package window

import (
	"log/slog"
	"time"
)

type Resolver struct {
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Resolver)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger enables debug logging of inputs and scan iterations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Now reports the resolver's current time.
func (r *Resolver) Now() time.Time {
	return r.now()
}
