package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quiz-session/internal/app"
	"quiz-session/internal/config"
	"quiz-session/internal/domain"
	"quiz-session/internal/view"

	"github.com/spf13/cobra"
)

const maxAttempts = 3

type playOptions struct {
	countdown int
	tick      time.Duration
	timeLimit time.Duration
}

// NewPlayCmd builds the interactive terminal quiz.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		url         string
		noCountdown bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Fetch the quiz and answer it in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Provider.URL = url
			}
			opts := playOptions{
				countdown: cfg.View.Countdown,
				tick:      config.TTLDuration(cfg.View.Tick, time.Second),
				timeLimit: config.TTLDuration(cfg.View.TimeLimit, time.Minute),
			}
			if noCountdown {
				opts.countdown = 0
			}

			quizzes, closeRepo := newQuizRepository(cfg)
			defer closeRepo()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session := app.NewSession(quizzes, cfg.Provider.URL, nil)
			return runPlay(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), session, opts)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "quiz provider URL (overrides config)")
	cmd.Flags().BoolVar(&noCountdown, "no-countdown", false, "skip the start countdown")
	return cmd
}

func runPlay(ctx context.Context, in io.Reader, out io.Writer, session *app.Session, opts playOptions) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Loading quiz...")
	session.Load(ctx)

	for {
		if session.State().Quiz == nil {
			fmt.Fprintln(out, "No quiz data found.")
			if !confirm(reader, out, "Try again? [y/N] ") {
				return nil
			}
		} else {
			err := playRound(ctx, reader, out, session, opts)
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}
			if !confirm(reader, out, "Restart quiz? [y/N] ") {
				return nil
			}
		}
		fmt.Fprintln(out, "Loading quiz...")
		session.Restart(ctx)
	}
}

// playRound shows one quiz until it is submitted with every question answered.
func playRound(ctx context.Context, reader *bufio.Reader, out io.Writer, session *app.Session, opts playOptions) error {
	if err := view.Countdown(ctx, opts.countdown, opts.tick, func(n int) {
		fmt.Fprintf(out, "%d...\n", n)
	}); err != nil {
		return err
	}

	clockCtx, stopClock := context.WithCancel(ctx)
	defer stopClock()
	clock := view.NewClock(opts.timeLimit, opts.tick)
	go clock.Run(clockCtx)

	quiz := *session.State().Quiz
	printHeader(out, quiz)

	pending := quiz.Questions
	for {
		for _, question := range pending {
			st := session.State()
			printQuestion(out, quiz, question, st.Flagged(question.ID), clock.Remaining())

			index, ok, err := getAnswer(reader, out, len(question.Options))
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := session.SelectAnswer(question.ID, question.Options[index].Description); err != nil {
				return err
			}
		}

		result, err := session.Submit()
		if err != nil {
			return err
		}
		if result.Completed {
			printSummary(out, result)
			return nil
		}
		fmt.Fprintf(out, "\n%d question(s) still need an answer.\n", len(result.Unanswered))
		pending = pending[:0:0]
		for _, id := range result.Unanswered {
			if q, ok := quiz.Question(id); ok {
				pending = append(pending, q)
			}
		}
	}
}

func printHeader(out io.Writer, quiz domain.Quiz) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, quiz.Title)
	if quiz.Description != nil && *quiz.Description != "" {
		fmt.Fprintln(out, *quiz.Description)
	} else {
		fmt.Fprintln(out, "No description provided")
	}
	fmt.Fprintln(out, "\nQuestions:")
}

func printQuestion(out io.Writer, quiz domain.Quiz, question domain.Question, flagged bool, remaining time.Duration) {
	number := 0
	for i, q := range quiz.Questions {
		if q.ID == question.ID {
			number = i + 1
			break
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "[time left: %s]\n", remaining.Round(time.Second))
	fmt.Fprintf(out, "%d. %s\n", number, question.Description)
	for i, option := range question.Options {
		fmt.Fprintf(out, "  %c. %s\n", 'A'+i, option.Description)
	}
	if flagged {
		fmt.Fprintln(out, "Please answer this question.")
	}
}

func printSummary(out io.Writer, result domain.SubmitResult) {
	s := result.Summary
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Quiz Summary")
	fmt.Fprintf(out, "Total Questions: %d\n", s.TotalQuestions)
	fmt.Fprintf(out, "Correct Answers: %d\n", s.CorrectAnswers)
	fmt.Fprintf(out, "Incorrect Answers: %d\n", s.IncorrectAnswers)
	fmt.Fprintf(out, "Unanswered Questions: %d\n", s.Unanswered)
	fmt.Fprintf(out, "Your score: %d/%d\n", result.Score, s.TotalQuestions)

	switch view.OutcomeFor(*s) {
	case view.OutcomeFinish:
		fmt.Fprintln(out, "Finish line! Every answer correct.")
	case view.OutcomeCrash:
		fmt.Fprintln(out, "Crash! No correct answers this time.")
	}
	fmt.Fprintln(out)
}

// getAnswer reads an option letter. An empty line skips the question.
func getAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool, error) {
	if optionCount < 1 {
		return -1, false, nil
	}

	maxLetter := byte('A' + optionCount - 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Fprintf(out, "Answer (A-%c, blank to skip): ", maxLetter)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return -1, false, err
		}

		line = strings.ToUpper(strings.TrimSpace(line))
		if line == "" {
			return -1, false, nil
		}
		if len(line) == 1 && line[0] >= 'A' && line[0] <= maxLetter {
			return int(line[0] - 'A'), true, nil
		}

		if attempt < maxAttempts {
			fmt.Fprintf(out, "Invalid input. Please enter a letter A-%c.\n", maxLetter)
		}
	}

	return -1, false, nil
}

func confirm(reader *bufio.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
