package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/md-rashed-zaman/bookwindow/libs/runtime"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// periodFlags describe one event type's period and the frame it is viewed in.
type periodFlags struct {
	periodType   string
	days         int
	calendarDays bool
	start        string
	end          string
	eventOffset  int
	bookerOffset int
	now          string
	bookable     string
	skipWindow   bool
	verbose      bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "window-sim",
		Short:         "Resolve booking windows and check timeslots without a running service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newLimitsCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func (f *periodFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.periodType, "type", "UNLIMITED", "period type: UNLIMITED, ROLLING, ROLLING_WINDOW or RANGE")
	fs.IntVar(&f.days, "days", 0, "period days for ROLLING and ROLLING_WINDOW")
	fs.BoolVar(&f.calendarDays, "calendar-days", false, "count calendar days instead of business days")
	fs.StringVar(&f.start, "start", "", "RANGE start date (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "RANGE end date (YYYY-MM-DD)")
	fs.IntVar(&f.eventOffset, "event-offset", 0, "event timezone UTC offset in minutes")
	fs.IntVar(&f.bookerOffset, "booker-offset", 0, "booker timezone UTC offset in minutes")
	fs.StringVar(&f.now, "now", "", "evaluate as of this RFC 3339 instant (default: current time)")
	fs.StringVar(&f.bookable, "bookable", "", "comma separated bookable days (YYYY-MM-DD) for ROLLING_WINDOW")
	fs.BoolVar(&f.skipWindow, "skip-rolling-window", false, "treat ROLLING_WINDOW as unlimited")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log resolver decisions to stderr")
}

func (f *periodFlags) config() (window.PeriodConfig, error) {
	cfg := window.PeriodConfig{
		Type:              window.ParsePeriodType(f.periodType),
		Days:              f.days,
		CountCalendarDays: f.calendarDays,
	}
	var err error
	if cfg.StartDate, err = parseDay(f.start); err != nil {
		return cfg, fmt.Errorf("--start: %w", err)
	}
	if cfg.EndDate, err = parseDay(f.end); err != nil {
		return cfg, fmt.Errorf("--end: %w", err)
	}
	return cfg, nil
}

func (f *periodFlags) frame() window.TimezoneFrame {
	return window.TimezoneFrame{EventUTCOffsetMinutes: f.eventOffset, BookerUTCOffsetMinutes: f.bookerOffset}
}

func (f *periodFlags) bookability() (window.BookabilityMap, error) {
	if strings.TrimSpace(f.bookable) == "" {
		return nil, nil
	}
	m := window.BookabilityMap{}
	for _, day := range strings.Split(f.bookable, ",") {
		day = strings.TrimSpace(day)
		if day == "" {
			continue
		}
		if _, err := time.Parse(window.DayKeyLayout, day); err != nil {
			return nil, fmt.Errorf("--bookable: %w", err)
		}
		m[day] = window.DayStatus{IsBookable: true}
	}
	return m, nil
}

func (f *periodFlags) resolver(cmd *cobra.Command) (*window.Resolver, error) {
	opts := []window.Option{}
	if f.now != "" {
		now, err := time.Parse(time.RFC3339, f.now)
		if err != nil {
			return nil, fmt.Errorf("--now: %w", err)
		}
		opts = append(opts, window.WithClock(window.FixedClock(now)))
	}
	if f.verbose {
		opts = append(opts, window.WithLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: runtime.ParseLevel("debug"),
		}))))
	}
	return window.NewResolver(opts...), nil
}

func parseDay(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(window.DayKeyLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
