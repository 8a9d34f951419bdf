package storage

import (
	"context"

	"github.com/md-rashed-zaman/bookwindow/libs/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS event_type_periods (
	event_type_id UUID PRIMARY KEY,
	timezone TEXT NOT NULL DEFAULT 'UTC',
	period_type TEXT NOT NULL DEFAULT 'UNLIMITED',
	period_days INT NOT NULL DEFAULT 0,
	period_count_calendar_days BOOLEAN NOT NULL DEFAULT FALSE,
	period_start_date TIMESTAMPTZ NULL,
	period_end_date TIMESTAMPTZ NULL,
	minimum_booking_notice_minutes INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS inbox_events (
	event_id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_inbox_events_received_at ON inbox_events(received_at);
`

func Migrate(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
