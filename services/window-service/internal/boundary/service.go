// Package boundary applies the booking window resolver to stored event type
// configuration and cached bookability.
package boundary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/bookability"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/model"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

var ErrInvalidEventTypeID = errors.New("event_type_id must be a UUID")

// ErrInvalidBookerOffset rejects booker offsets no real timezone uses.
var ErrInvalidBookerOffset = errors.New("booker_utc_offset must be within +/-14h")

const maxBookerOffsetMinutes = 14 * 60

func validateOffset(minutes int) error {
	if minutes < -maxBookerOffsetMinutes || minutes > maxBookerOffsetMinutes {
		return fmt.Errorf("%w: got %d minutes", ErrInvalidBookerOffset, minutes)
	}
	return nil
}

// Reason values reported for rejected timeslots.
const (
	ReasonInPast        = "in_past"
	ReasonMinimumNotice = string(window.ViolatesNotice)
	ReasonFutureLimit   = string(window.ViolatesFutureLimit)
)

type PeriodStore interface {
	Get(ctx context.Context, eventTypeID string) (model.EventTypePeriod, error)
	Upsert(ctx context.Context, e model.EventTypePeriod) error
}

type Service struct {
	store    PeriodStore
	cache    bookability.Cache
	resolver *window.Resolver
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewService wires the resolver to storage. cache may be nil, in which case
// ROLLING_WINDOW periods are never enforced.
func NewService(store PeriodStore, cache bookability.Cache, resolver *window.Resolver, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		resolver: resolver,
		logger:   logger,
		tracer:   otel.Tracer("window-service/boundary"),
	}
}

type LimitsResult struct {
	EventType                 model.EventTypePeriod
	Limits                    window.Limits
	RollingWindowCheckSkipped bool
}

type CheckResult struct {
	OutOfBounds bool
	Reason      string
	// RollingWindowCheckSkipped is set when a ROLLING_WINDOW period was
	// treated as unlimited because no bookability was cached.
	RollingWindowCheckSkipped bool
}

func (s *Service) Limits(ctx context.Context, eventTypeID string, bookerOffsetMinutes int) (LimitsResult, error) {
	ctx, span := s.tracer.Start(ctx, "boundary.limits", trace.WithAttributes(
		attribute.String("event_type_id", eventTypeID),
		attribute.Int("booker_utc_offset", bookerOffsetMinutes),
	))
	defer span.End()

	et, bookable, skip, err := s.load(ctx, eventTypeID, bookerOffsetMinutes)
	if err != nil {
		span.RecordError(err)
		return LimitsResult{}, err
	}
	frame := et.Frame(bookerOffsetMinutes, s.resolver.Now())
	limits, err := s.resolver.CalculatePeriodLimits(et.Period, frame, bookable, skip)
	if err != nil {
		span.RecordError(err)
		return LimitsResult{}, err
	}
	span.SetAttributes(attribute.String("limit_kind", limits.Kind()))
	return LimitsResult{EventType: et, Limits: limits, RollingWindowCheckSkipped: skip}, nil
}

// Check decides whether t can be booked for the event type. A time in the
// past is returned as window.ErrBookingDateInPast.
func (s *Service) Check(ctx context.Context, eventTypeID string, t time.Time, bookerOffsetMinutes int) (CheckResult, error) {
	ctx, span := s.tracer.Start(ctx, "boundary.check", trace.WithAttributes(
		attribute.String("event_type_id", eventTypeID),
		attribute.String("time", t.UTC().Format(time.RFC3339)),
	))
	defer span.End()

	et, bookable, skip, err := s.load(ctx, eventTypeID, bookerOffsetMinutes)
	if err != nil {
		span.RecordError(err)
		return CheckResult{}, err
	}
	frame := et.Frame(bookerOffsetMinutes, s.resolver.Now())
	verdict, err := s.resolver.Check(t, et.Period, frame, et.MinimumNoticeMinutes, bookable, skip)
	if err != nil {
		if errors.Is(err, window.ErrBookingDateInPast) {
			span.SetAttributes(attribute.String("reason", ReasonInPast))
		} else {
			span.RecordError(err)
		}
		return CheckResult{}, err
	}
	span.SetAttributes(attribute.String("reason", string(verdict)))
	return CheckResult{
		OutOfBounds:               verdict != window.WithinBounds,
		Reason:                    string(verdict),
		RollingWindowCheckSkipped: skip,
	}, nil
}

// load fetches the event type and, for ROLLING_WINDOW, its cached
// bookability. skip reports that no bookability was available.
func (s *Service) load(ctx context.Context, eventTypeID string, bookerOffsetMinutes int) (model.EventTypePeriod, window.BookabilityMap, bool, error) {
	if _, err := uuid.Parse(eventTypeID); err != nil {
		return model.EventTypePeriod{}, nil, false, ErrInvalidEventTypeID
	}
	if err := validateOffset(bookerOffsetMinutes); err != nil {
		return model.EventTypePeriod{}, nil, false, err
	}
	et, err := s.store.Get(ctx, eventTypeID)
	if err != nil {
		return model.EventTypePeriod{}, nil, false, err
	}
	if et.Period.Type != window.PeriodRollingWindow {
		return et, nil, false, nil
	}
	if s.cache == nil {
		return et, nil, true, nil
	}
	m, ok, err := s.cache.Get(ctx, eventTypeID, bookerOffsetMinutes)
	if err != nil {
		s.logger.Warn("bookability cache read failed; skipping rolling window check", "err", err, "event_type_id", eventTypeID)
		return et, nil, true, nil
	}
	if !ok {
		return et, nil, true, nil
	}
	return et, m, false, nil
}

// UpsertPeriod validates and stores an event type period.
func (s *Service) UpsertPeriod(ctx context.Context, et model.EventTypePeriod) error {
	if _, err := uuid.Parse(et.EventTypeID); err != nil {
		return ErrInvalidEventTypeID
	}
	if err := et.Period.Validate(); err != nil {
		return err
	}
	if err := window.ValidateNotice(et.MinimumNoticeMinutes); err != nil {
		return err
	}
	if et.Timezone != "" {
		if _, err := time.LoadLocation(et.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", window.ErrInvalidPeriodConfig, et.Timezone)
		}
	}
	return s.store.Upsert(ctx, et)
}

// StoreBookability caches a precomputed map for an event type and booker offset.
func (s *Service) StoreBookability(ctx context.Context, eventTypeID string, bookerOffsetMinutes int, m window.BookabilityMap) error {
	if _, err := uuid.Parse(eventTypeID); err != nil {
		return ErrInvalidEventTypeID
	}
	if err := validateOffset(bookerOffsetMinutes); err != nil {
		return err
	}
	if s.cache == nil {
		return errors.New("bookability cache not configured")
	}
	if m == nil {
		m = window.BookabilityMap{}
	}
	return s.cache.Put(ctx, eventTypeID, bookerOffsetMinutes, m)
}

// IngestAvailability derives bookability from computed working windows and
// caches it.
func (s *Service) IngestAvailability(ctx context.Context, a AvailabilityComputed) (window.BookabilityMap, error) {
	m := bookability.Derive(a.Days, a.rules(), a.Busy, s.resolver.Now())
	if err := s.StoreBookability(ctx, a.EventTypeID, a.BookerUTCOffset, m); err != nil {
		return nil, err
	}
	return m, nil
}
