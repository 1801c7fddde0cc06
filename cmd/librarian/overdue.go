package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"libraryapp/pkg/models"
)

func newScanOverdueCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "scan-overdue",
		Short: "Flag open loans that are past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var today time.Time
			if date != "" {
				t, err := time.Parse(models.DateLayout, date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				today = t
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Service.ScanOverdue(cmd.Context(), today)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d loan(s) overdue\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "scan as of this day (YYYY-MM-DD), defaults to today")
	return cmd
}

func newNotifyOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-overdue",
		Short: "Send one notice per overdue loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Service.NotifyOverdue(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range report.Results {
				if !r.Sent {
					fmt.Fprintf(out, "  loan %s (member %s): %s\n", r.LoanUid, r.MemberUid, r.Error)
				}
			}
			fmt.Fprintf(out, "Processed %d overdue loan(s), sent %d notification(s)\n", report.Processed, report.Sent)
			return nil
		},
	}
}
