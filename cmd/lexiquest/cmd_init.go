package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/lexiquest/internal/config"
	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/progress"
)

type initOptions struct {
	name      string
	email     string
	languages []string
	goal      string
}

func (c *cli) initCmd() *cobra.Command {
	var opts initOptions
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up LexiQuest and create your learner profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runInit(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "your name")
	cmd.Flags().StringVar(&opts.email, "email", "", "your email address")
	cmd.Flags().StringSliceVar(&opts.languages, "languages", nil, "languages you want to learn, comma separated")
	cmd.Flags().StringVar(&opts.goal, "goal", "", "daily goal: casual, regular, intensive, fluent")
	return cmd
}

func (c *cli) runInit(cmd *cobra.Command, opts initOptions) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintln(out, "LexiQuest - First-Time Setup")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out)

	// 1. Create default config if it doesn't exist
	configPath := c.cfgFile
	if configPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Fprint(out, "Creating default configuration... ")
		if err := config.SaveLocalConfigTo(config.DefaultLocalConfig(), configPath); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintln(out, "✓")
	} else {
		fmt.Fprintln(out, "Configuration already exists ✓")
	}

	// 2. Open storage
	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	if u, ok := a.Progress.User(); ok {
		fmt.Fprintf(out, "Welcome back, %s! You are level %d with %d XP.\n", u.Name, u.CurrentLevel, u.TotalXP)
		return nil
	}

	// 3. Ask for whatever the flags left out
	reader := bufio.NewReader(cmd.InOrStdin())
	if opts.name == "" {
		opts.name = prompt(out, reader, "Your name: ")
	}
	if opts.email == "" {
		opts.email = prompt(out, reader, "Email (optional): ")
	}
	if len(opts.languages) == 0 {
		answer := prompt(out, reader, "Languages to learn (comma separated, e.g. Spanish,French): ")
		opts.languages = splitList(answer)
	}
	if opts.goal == "" {
		opts.goal = prompt(out, reader, "Daily goal [casual/regular/intensive/fluent] (regular): ")
	}

	u, err := a.Progress.CreateUser(ctx, progress.Profile{
		Name:      opts.name,
		Email:     opts.email,
		Languages: opts.languages,
		Goal:      domain.LearningGoal(opts.goal),
	})
	if err != nil {
		return fmt.Errorf("create learner: %w", err)
	}
	if err := a.Progress.CompleteOnboarding(ctx); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Welcome, %s! ✓\n", u.Name)
	fmt.Fprintf(out, "Daily goal: %d XP (%s)\n", u.LearningGoal.DailyGoalXP(), u.LearningGoal)

	if next, err := a.Recommend(1); err == nil && len(next) > 0 {
		fmt.Fprintf(out, "\nStart with: lexiquest play %s\n", next[0].ID)
	}
	return nil
}

func prompt(out io.Writer, reader *bufio.Reader, label string) string {
	fmt.Fprint(out, label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
