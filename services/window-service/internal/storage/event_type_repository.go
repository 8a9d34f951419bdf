package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/bookwindow/libs/db"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/model"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

var ErrNotFound = errors.New("event type period not found")

type EventTypeRepository struct {
	pool *db.Pool
}

func NewEventTypeRepository(pool *db.Pool) *EventTypeRepository {
	return &EventTypeRepository{pool: pool}
}

func (r *EventTypeRepository) Get(ctx context.Context, eventTypeID string) (model.EventTypePeriod, error) {
	var (
		e          model.EventTypePeriod
		periodType string
		start      *time.Time
		end        *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT event_type_id::text, timezone, period_type, period_days, period_count_calendar_days,
			period_start_date, period_end_date, minimum_booking_notice_minutes, updated_at
		FROM event_type_periods
		WHERE event_type_id = $1
	`, eventTypeID).Scan(
		&e.EventTypeID,
		&e.Timezone,
		&periodType,
		&e.Period.Days,
		&e.Period.CountCalendarDays,
		&start,
		&end,
		&e.MinimumNoticeMinutes,
		&e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.EventTypePeriod{}, ErrNotFound
	}
	if err != nil {
		return model.EventTypePeriod{}, err
	}
	e.Period.Type = window.ParsePeriodType(periodType)
	e.Period.StartDate = start
	e.Period.EndDate = end
	return e, nil
}

// Upsert writes e. Callers validate the period first.
func (r *EventTypeRepository) Upsert(ctx context.Context, e model.EventTypePeriod) error {
	periodType := e.Period.Type
	if periodType == "" {
		periodType = window.PeriodUnlimited
	}
	timezone := e.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_type_periods
			(event_type_id, timezone, period_type, period_days, period_count_calendar_days,
			 period_start_date, period_end_date, minimum_booking_notice_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_type_id) DO UPDATE
		SET timezone = EXCLUDED.timezone,
			period_type = EXCLUDED.period_type,
			period_days = EXCLUDED.period_days,
			period_count_calendar_days = EXCLUDED.period_count_calendar_days,
			period_start_date = EXCLUDED.period_start_date,
			period_end_date = EXCLUDED.period_end_date,
			minimum_booking_notice_minutes = EXCLUDED.minimum_booking_notice_minutes,
			updated_at = now()
	`, e.EventTypeID, timezone, string(periodType), e.Period.Days, e.Period.CountCalendarDays,
		e.Period.StartDate, e.Period.EndDate, e.MinimumNoticeMinutes)
	return err
}
