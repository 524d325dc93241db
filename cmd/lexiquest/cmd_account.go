package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/progress"
)

func (c *cli) profileCmd() *cobra.Command {
	var (
		name      string
		email     string
		languages []string
		goal      string
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your learner profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, u, err := c.learner(ctx)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("name") || flags.Changed("email") || flags.Changed("languages") || flags.Changed("goal") {
				p := progress.Profile{Name: name, Email: email, Goal: domain.LearningGoal(goal)}
				if flags.Changed("languages") {
					p.Languages = languages
				}
				if err := a.Progress.UpdateProfile(ctx, p); err != nil {
					return fmt.Errorf("update profile: %w", err)
				}
				u, _ = a.Progress.User()
				fmt.Fprintln(cmd.OutOrStdout(), "Profile updated ✓")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:       %s\n", u.Name)
			if u.Email != "" {
				fmt.Fprintf(out, "Email:      %s\n", u.Email)
			}
			fmt.Fprintf(out, "Languages:  %s\n", strings.Join(u.PreferredLanguages, ", "))
			fmt.Fprintf(out, "Goal:       %s (%d XP/day, ~%d min)\n", u.LearningGoal, u.LearningGoal.DailyGoalXP(), u.LearningGoal.DailyGoalMinutes())
			fmt.Fprintf(out, "Joined:     %s\n", u.JoinDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "replace the languages you are learning")
	cmd.Flags().StringVar(&goal, "goal", "", "new daily goal: casual, regular, intensive, fluent")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent learning activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := c.learner(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			journal := a.Activity()
			if journal == nil {
				fmt.Fprintf(out, "The %s backend keeps no activity history.\n", c.cfg.Storage.Backend)
				return nil
			}
			entries, err := journal.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No activity yet. Start with 'lexiquest lessons next'.")
				return nil
			}
			loc, _ := c.cfg.Calendar.Location()
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n", e.CreatedAt.In(loc).Format("2006-01-02 15:04"), e.EventType)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}

func (c *cli) deleteAccountCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete your profile, progress and achievements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, u, err := c.learner(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "This deletes all progress for %s (%d XP). Type 'delete' to confirm: ", u.Name, u.TotalXP)
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(line) != "delete" {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if err := a.Progress.DeleteAccount(ctx); err != nil {
				return fmt.Errorf("delete account: %w", err)
			}
			fmt.Fprintln(out, "Account deleted ✓")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(c.cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# data directory: %s\n%s", c.dir, data)
			return nil
		},
	}
}
