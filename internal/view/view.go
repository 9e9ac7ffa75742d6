// Package view holds presentation-only helpers shared by the terminal and
// websocket front ends. Nothing here feeds back into a session.
package view

import (
	"context"
	"sync"
	"time"

	"quiz-session/internal/domain"
)

// Countdown calls show with from, from-1, ..., 1, one tick apart.
// It returns ctx.Err() if the view goes away first.
func Countdown(ctx context.Context, from int, tick time.Duration, show func(n int)) error {
	if from <= 0 {
		return nil
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for n := from; n > 0; n-- {
		show(n)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Clock is the per-quiz countdown shown while questions are visible.
// It never submits anything when it runs out.
type Clock struct {
	tick time.Duration

	mu        sync.Mutex
	remaining time.Duration
}

func NewClock(limit, tick time.Duration) *Clock {
	return &Clock{tick: tick, remaining: limit}
}

// Run counts down until the limit is reached or ctx is cancelled.
func (c *Clock) Run(ctx context.Context) {
	if c.tick <= 0 {
		return
	}
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.remaining -= c.tick
			if c.remaining < 0 {
				c.remaining = 0
			}
			done := c.remaining == 0
			c.mu.Unlock()
			if done {
				return
			}
		}
	}
}

func (c *Clock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Outcome selects the closing animation for a completed quiz.
type Outcome string

const (
	OutcomeNone   Outcome = "none"
	OutcomeCrash  Outcome = "crash"
	OutcomeFinish Outcome = "finish"
)

func OutcomeFor(summary domain.Summary) Outcome {
	switch {
	case summary.TotalQuestions > 0 && summary.CorrectAnswers == summary.TotalQuestions:
		return OutcomeFinish
	case summary.CorrectAnswers == 0:
		return OutcomeCrash
	default:
		return OutcomeNone
	}
}
