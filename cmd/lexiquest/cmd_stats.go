package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/progress"
)

func (c *cli) statsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show level, streak and XP statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := c.learner(cmd.Context())
			if err != nil {
				return err
			}
			overview, ok := a.Progress.Overview()
			if !ok {
				return errNoLearner
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(overview)
			}
			printOverview(out, overview)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printOverview(out io.Writer, o progress.Overview) {
	fmt.Fprintf(out, "%s's Progress\n", o.Name)
	fmt.Fprintln(out, strings.Repeat("=", len(o.Name)+11))
	fmt.Fprintf(out, "Level %-3d %s %d XP to level %d\n",
		o.Level, renderProgressBar(o.LevelProgress, 20), o.XPToNextLevel, o.Level+1)
	fmt.Fprintf(out, "Total XP:        %d\n", o.TotalXP)
	fmt.Fprintln(out)

	streak := fmt.Sprintf("%d day(s)", o.CurrentStreak)
	switch {
	case !o.StreakActive:
		streak += " (practise today to start a new one)"
	case o.DaysUntilStreakBreaks == 1:
		streak += " (practise today to keep it!)"
	}
	fmt.Fprintf(out, "Current streak:  %s\n", streak)
	fmt.Fprintf(out, "Longest streak:  %d day(s)\n", o.LongestStreak)
	fmt.Fprintln(out)

	goal := "✗"
	if o.DailyGoalMet {
		goal = "✓"
	}
	fmt.Fprintf(out, "Today:           %s %d/%d XP %s\n",
		renderProgressBar(o.DailyGoalProgress, 20), o.DailyXP, o.DailyGoalXP, goal)
	fmt.Fprintf(out, "This week:       %d XP\n", o.WeeklyXP)
	fmt.Fprintf(out, "This month:      %d XP\n", o.MonthlyXP)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Lessons:         %d completed, %d perfect\n", o.LessonsCompleted, o.PerfectScores)
	fmt.Fprintf(out, "Achievements:    %d/%d\n", o.UnlockedAchievements, o.TotalAchievements)

	if len(o.RecentAchievements) > 0 {
		fmt.Fprintln(out, "\nRecently Unlocked")
		fmt.Fprintln(out, "-----------------")
		for _, a := range o.RecentAchievements {
			fmt.Fprintf(out, "  🏆 %s - %s\n", a.Title, a.Description)
		}
	}
	if o.NextAchievement != nil {
		next := o.NextAchievement
		fmt.Fprintf(out, "\nNext: %s %s %.0f%%\n", next.Title, renderProgressBar(next.Progress, 20), next.Progress*100)
	}
}

func (c *cli) achievementsCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "List achievements and your progress towards them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := c.learner(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Achievements")
			fmt.Fprintln(out, "============")
			for _, ach := range a.Progress.Achievements() {
				if category != "" && !strings.EqualFold(string(ach.Category), category) {
					continue
				}
				printAchievement(out, ach)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only show one category (streak, learning, mastery, social, milestone)")
	return cmd
}

func printAchievement(out io.Writer, a domain.Achievement) {
	if a.IsUnlocked {
		date := ""
		if a.UnlockedDate != nil {
			date = a.UnlockedDate.Format("2006-01-02")
		}
		fmt.Fprintf(out, "🏆 %-22s %s  +%d XP  %s\n", a.Title, renderProgressBar(1, 20), a.XPReward, date)
		return
	}
	fmt.Fprintf(out, "   %-22s %s %3.0f%%  %s\n", a.Title, renderProgressBar(a.Progress, 20), a.Progress*100, a.Description)
}
