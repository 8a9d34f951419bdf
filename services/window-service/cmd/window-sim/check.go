package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

type checkOutput struct {
	Time        string `json:"time"`
	OutOfBounds bool   `json:"out_of_bounds"`
	Reason      string `json:"reason"`
}

func newCheckCmd() *cobra.Command {
	var (
		f      periodFlags
		at     string
		notice int
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a timeslot is bookable under a period and minimum notice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--time: %w", err)
			}
			cfg, err := f.config()
			if err != nil {
				return err
			}
			bookable, err := f.bookability()
			if err != nil {
				return err
			}
			r, err := f.resolver(cmd)
			if err != nil {
				return err
			}

			out := checkOutput{Time: t.Format(time.RFC3339)}
			verdict, err := r.Check(t, cfg, f.frame(), notice, bookable, f.skipWindow)
			switch {
			case errors.Is(err, window.ErrBookingDateInPast):
				out.OutOfBounds = true
				out.Reason = "in_past"
			case err != nil:
				return err
			default:
				out.OutOfBounds = verdict != window.WithinBounds
				out.Reason = string(verdict)
			}
			return printJSON(cmd, out)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&at, "time", "", "timeslot start (RFC 3339)")
	cmd.Flags().IntVar(&notice, "notice", 0, "minimum booking notice in minutes")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}
