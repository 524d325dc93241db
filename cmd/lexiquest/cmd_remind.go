package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/lexiquest/internal/config"
	"github.com/felixgeelhaar/lexiquest/internal/reminder"
)

func (c *cli) remindCmd() *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Remind you to practise when today's goal is still open",
		Long: `Remind you to practise when today's goal is still open.

Without --now the command stays in the foreground and checks once a day at
the configured reminder time until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := c.learner(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if now {
				n, ok := reminder.Check(a.Progress)
				if !ok {
					fmt.Fprintln(out, "Daily goal met ✓ Nothing to remind you of.")
					return nil
				}
				fmt.Fprintf(out, "🔔 %s\n", n.Message())
				return nil
			}

			if !c.cfg.Reminder.Enabled {
				fmt.Fprintln(out, "Daily reminders are disabled (set reminder.enabled in the config).")
				return nil
			}

			sched, err := a.Reminder(printNotifier(out), c.cfg.Reminder.Time)
			if err != nil {
				return err
			}
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()

			fmt.Fprintf(out, "Reminding you daily at %s (%s). Press Ctrl+C to stop.\n", c.cfg.Reminder.Time, c.cfg.Calendar.Timezone)
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&now, "now", false, "check once and exit")
	cmd.Flags().String("at", "", "reminder time as HH:MM")
	bindFlag(c.v, config.KeyReminderTime, cmd.Flags().Lookup("at"))
	return cmd
}

func printNotifier(out io.Writer) reminder.Notifier {
	return reminder.NotifierFunc(func(_ context.Context, n reminder.Nudge) error {
		_, err := fmt.Fprintf(out, "🔔 %s\n", n.Message())
		return err
	})
}
