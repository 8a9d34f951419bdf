package main

import (
	"github.com/spf13/cobra"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

const limitTimeLayout = "2006-01-02T15:04:05.000Z07:00"

type limitsOutput struct {
	Kind  string `json:"kind"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func newLimitsCmd() *cobra.Command {
	var f periodFlags
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Print the future limits a period resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limits, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd, describeLimits(limits))
		},
	}
	f.register(cmd)
	return cmd
}

func (f *periodFlags) resolve(cmd *cobra.Command) (window.Limits, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	bookable, err := f.bookability()
	if err != nil {
		return nil, err
	}
	r, err := f.resolver(cmd)
	if err != nil {
		return nil, err
	}
	return r.CalculatePeriodLimits(cfg, f.frame(), bookable, f.skipWindow)
}

func describeLimits(l window.Limits) limitsOutput {
	out := limitsOutput{Kind: l.Kind()}
	switch v := l.(type) {
	case window.RollingLimit:
		out.End = v.End.Format(limitTimeLayout)
	case window.RangeLimit:
		out.Start = v.Start.Format(limitTimeLayout)
		out.End = v.End.Format(limitTimeLayout)
	}
	return out
}
