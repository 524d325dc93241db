package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/lexiquest/internal/domain"
)

func (c *cli) lessonsCmd() *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "lessons",
		Short: "List learning modules and their lessons",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			var completed []string
			if u, ok := a.Progress.User(); ok {
				completed = u.CompletedLessons
			}
			done := make(map[string]bool, len(completed))
			for _, id := range completed {
				done[id] = true
			}

			out := cmd.OutOrStdout()
			for _, m := range a.Lessons.Modules() {
				if language != "" && !strings.EqualFold(m.Language, language) {
					continue
				}
				header := fmt.Sprintf("%s (%s)", m.Title, m.Language)
				fmt.Fprintln(out, header)
				fmt.Fprintln(out, strings.Repeat("=", utf8.RuneCountInString(header)))
				for _, l := range m.Lessons {
					fmt.Fprintf(out, "  %s %-24s %-28s %-12s %3d XP  %d min\n",
						lessonMark(l, done[l.ID]), l.ID, l.Title, l.Difficulty, l.XPReward, l.EstimatedMinutes)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "only show modules for this language")

	cmd.AddCommand(c.lessonShowCmd(), c.lessonNextCmd())
	return cmd
}

func (c *cli) lessonShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <lesson-id>",
		Short: "Show lesson details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			l, err := a.Lessons.Lesson(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Lesson: %s\n", l.Title)
			fmt.Fprintf(out, "ID:         %s\n", l.ID)
			fmt.Fprintf(out, "Module:     %s\n", l.ModuleID)
			fmt.Fprintf(out, "Language:   %s\n", l.Language)
			fmt.Fprintf(out, "Difficulty: %s\n", l.Difficulty)
			fmt.Fprintf(out, "Questions:  %d\n", len(l.Questions))
			fmt.Fprintf(out, "Reward:     %d XP\n", l.XPReward)
			fmt.Fprintf(out, "Duration:   ~%d min\n", l.EstimatedMinutes)
			if l.Description != "" {
				fmt.Fprintf(out, "\n%s\n", l.Description)
			}
			if next, ok, _ := a.Lessons.NextLesson(l.ID); ok {
				fmt.Fprintf(out, "\nNext up: %s (%s)\n", next.Title, next.ID)
			}
			return nil
		},
	}
}

func (c *cli) lessonNextCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Suggest what to practise next",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := c.learner(cmd.Context())
			if err != nil {
				return err
			}
			lessons, err := a.Recommend(count)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(lessons) == 0 {
				fmt.Fprintln(out, "You have completed every available lesson. ¡Bravo!")
				return nil
			}
			for _, l := range lessons {
				fmt.Fprintf(out, "  %-24s %s (%s, %d XP)\n", l.ID, l.Title, l.Language, l.XPReward)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 3, "number of suggestions")
	return cmd
}

func lessonMark(l domain.Lesson, completed bool) string {
	switch {
	case completed:
		return "✓"
	case l.Locked:
		return "🔒"
	default:
		return "·"
	}
}
