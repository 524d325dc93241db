package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/lexiquest/internal/config"
	"github.com/felixgeelhaar/lexiquest/internal/domain"
	"github.com/felixgeelhaar/lexiquest/internal/quiz"
)

func (c *cli) playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <lesson-id>",
		Short: "Take a timed quiz on a lesson",
		Long: `Take a timed quiz on a lesson.

Answer with the option number or type the answer. Commands:
  s  skip the question
  q  quit the quiz (progress of this attempt is lost)
Press Enter after feedback to continue early.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := c.learner(ctx)
			if err != nil {
				return err
			}

			changed := make(chan struct{}, 1)
			unsubscribe := a.Events().Subscribe(domain.EventQuizStateChanged, func(domain.Event) {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
			defer unsubscribe()

			session, err := a.StartLesson(ctx, args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			return play(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), session, changed)
		},
	}

	flags := cmd.Flags()
	flags.Int("time-limit", 0, "seconds per question")
	flags.Int("feedback-delay-ms", 0, "pause after each answer in milliseconds")
	flags.String("skip-policy", "", "how skipped questions count: incorrect or correct")
	bindFlag(c.v, config.KeyQuestionTimeLimit, flags.Lookup("time-limit"))
	bindFlag(c.v, config.KeyFeedbackDelay, flags.Lookup("feedback-delay-ms"))
	bindFlag(c.v, config.KeySkipPolicy, flags.Lookup("skip-policy"))
	return cmd
}

// play drives session from line-based input until the attempt completes, the
// input ends or the learner quits. changed signals state transitions made by
// the session's own timers.
func play(ctx context.Context, out io.Writer, in io.Reader, session *quiz.Session, changed <-chan struct{}) error {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	shown, judged := -1, 0
	var saveErr error
	for {
		snap := session.Snapshot()

		if snap.Progress.CurrentQuestionIndex > judged && snap.Last != nil {
			printJudgement(out, *snap.Last)
			judged = snap.Progress.CurrentQuestionIndex
		}

		switch snap.State {
		case quiz.StateCompleted:
			printResult(out, snap)
			return saveErr
		case quiz.StateInQuestion:
			if snap.Progress.CurrentQuestionIndex != shown && snap.Question != nil {
				shown = snap.Progress.CurrentQuestionIndex
				printQuestion(out, snap)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out, "\nQuiz abandoned.")
				return nil
			}
			quit, err := handleInput(ctx, out, session, snap, line)
			if err != nil {
				saveErr = err
			}
			if quit {
				fmt.Fprintln(out, "Quiz abandoned.")
				return nil
			}
		}
	}
}

func handleInput(ctx context.Context, out io.Writer, session *quiz.Session, snap quiz.Snapshot, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch {
	case strings.EqualFold(line, "q"):
		return true, nil
	case snap.State == quiz.StateAnswerSubmitted:
		session.Next()
		return false, nil
	case snap.State != quiz.StateInQuestion:
		return false, nil
	case strings.EqualFold(line, "s"):
		return false, reportErr(session.Skip(ctx))
	}

	session.SelectAnswer(resolveAnswer(snap.Question, line))
	err = session.Submit(ctx)
	if errors.Is(err, quiz.ErrNoAnswerSelected) {
		fmt.Fprintln(out, "Pick an option or type an answer.")
		return false, nil
	}
	if errors.Is(err, quiz.ErrNotInQuestion) {
		// The countdown got there first.
		return false, nil
	}
	return false, reportErr(err)
}

// reportErr drops the race with the countdown and names what failed.
func reportErr(err error) error {
	if err == nil || errors.Is(err, quiz.ErrNotInQuestion) {
		return nil
	}
	return fmt.Errorf("save progress: %w", err)
}

// resolveAnswer maps an option number to its text.
func resolveAnswer(q *domain.Question, line string) string {
	if q == nil {
		return line
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1]
	}
	return line
}

func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func printQuestion(out io.Writer, snap quiz.Snapshot) {
	q := snap.Question
	fmt.Fprintf(out, "\nQuestion %d/%d  (%s)\n", snap.Progress.CurrentQuestionIndex+1, snap.Progress.TotalQuestions, snap.Remaining)
	fmt.Fprintln(out, q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
	}
	if q.AudioURL != "" {
		fmt.Fprintf(out, "  🔊 %s\n", q.AudioURL)
	}
	fmt.Fprint(out, "> ")
}

func printJudgement(out io.Writer, j quiz.Judgement) {
	switch {
	case j.TimedOut:
		fmt.Fprintf(out, "⏰ Time's up! The answer was %q.\n", j.CorrectAnswer)
	case j.Correct:
		fmt.Fprintln(out, "✓ Correct!")
	case j.Skipped:
		fmt.Fprintf(out, "Skipped. The answer was %q.\n", j.CorrectAnswer)
	default:
		fmt.Fprintf(out, "✗ Not quite. The answer was %q.\n", j.CorrectAnswer)
	}
	if j.Explanation != "" {
		fmt.Fprintf(out, "  %s\n", j.Explanation)
	}
}

func printResult(out io.Writer, snap quiz.Snapshot) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Lesson complete: %s\n", snap.Lesson.Title)
	fmt.Fprintln(out, "----------------")
	if snap.Result == nil {
		return
	}
	r := snap.Result
	fmt.Fprintf(out, "Score:   %d%% %s\n", r.Score, renderProgressBar(float64(r.Score)/100, 20))
	fmt.Fprintf(out, "Correct: %d/%d\n", r.CorrectAnswers, r.TotalQuestions)
	fmt.Fprintf(out, "XP:      +%d\n", r.XPEarned)
	if r.Perfect() {
		fmt.Fprintln(out, "Perfect score! ⭐")
	}
}
