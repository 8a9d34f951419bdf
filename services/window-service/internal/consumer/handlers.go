package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/boundary"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/model"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

type PeriodWriter interface {
	UpsertPeriod(ctx context.Context, et model.EventTypePeriod) error
}

type AvailabilityIngester interface {
	IngestAvailability(ctx context.Context, a boundary.AvailabilityComputed) (window.BookabilityMap, error)
}

// PeriodUpdated handles eventtype.period.updated.v1. Malformed or invalid
// periods are logged and dropped.
func PeriodUpdated(w PeriodWriter, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload boundary.PeriodPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Warn("dropping malformed period event", "err", err, "offset", msg.Offset)
			return nil
		}
		et, err := payload.ToModel()
		if err == nil {
			err = w.UpsertPeriod(ctx, et)
		}
		if errors.Is(err, window.ErrInvalidPeriodConfig) || errors.Is(err, boundary.ErrInvalidEventTypeID) {
			logger.Warn("dropping invalid period event", "err", err, "event_type_id", payload.EventTypeID)
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("event type period updated", "event_type_id", et.EventTypeID, "period_type", string(et.Period.Type))
		return nil
	}
}

// AvailabilityComputed handles availability.days.computed.v1.
func AvailabilityComputed(ing AvailabilityIngester, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload boundary.AvailabilityComputed
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Warn("dropping malformed availability event", "err", err, "offset", msg.Offset)
			return nil
		}
		m, err := ing.IngestAvailability(ctx, payload)
		if errors.Is(err, boundary.ErrInvalidEventTypeID) || errors.Is(err, boundary.ErrInvalidBookerOffset) {
			logger.Warn("dropping availability event", "err", err, "event_type_id", payload.EventTypeID)
			return nil
		}
		if err != nil {
			return err
		}
		bookable := 0
		for _, d := range m {
			if d.IsBookable {
				bookable++
			}
		}
		logger.Info("bookability cached",
			"event_type_id", payload.EventTypeID,
			"booker_utc_offset", payload.BookerUTCOffset,
			"days", len(m),
			"bookable_days", bookable,
		)
		return nil
	}
}
