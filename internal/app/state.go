package app

import (
	"errors"

	"quiz-session/internal/domain"
)

// Phase is the session-level lifecycle position.
type Phase string

const (
	PhaseLoading     Phase = "loading"
	PhaseReady       Phase = "ready"
	PhaseCompleted   Phase = "completed"
	PhaseUnavailable Phase = "unavailable"
)

// State is the single record a session owns. Every change goes through reduce.
type State struct {
	Phase      Phase
	Generation uint64
	// Quiz is shared between snapshots and must not be mutated.
	Quiz               *domain.Quiz
	Answers            domain.AnswerMap
	Unanswered         []domain.QuestionID
	Score              *int
	Summary            *domain.Summary
	IncompleteAttempts int
	LoadErr            error
}

// Loading reports whether a load is in flight.
func (s State) Loading() bool { return s.Phase == PhaseLoading }

// Completed reports whether the last submission was scored.
func (s State) Completed() bool { return s.Phase == PhaseCompleted }

// Flagged reports whether id was missing on the last rejected submission.
func (s State) Flagged(id domain.QuestionID) bool {
	for _, missing := range s.Unanswered {
		if missing == id {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	out := s
	out.Answers = s.Answers.Clone()
	if s.Unanswered != nil {
		out.Unanswered = append([]domain.QuestionID(nil), s.Unanswered...)
	}
	if s.Score != nil {
		score := *s.Score
		out.Score = &score
	}
	if s.Summary != nil {
		summary := *s.Summary
		out.Summary = &summary
	}
	return out
}

type event interface {
	isEvent()
}

type loadStarted struct{ generation uint64 }

type loadSucceeded struct {
	generation uint64
	quiz       domain.Quiz
}

type loadFailed struct {
	generation uint64
	err        error
}

type answerSelected struct {
	questionID domain.QuestionID
	option     string
}

type submitted struct{}

type restarted struct{}

func (loadStarted) isEvent()    {}
func (loadSucceeded) isEvent()  {}
func (loadFailed) isEvent()     {}
func (answerSelected) isEvent() {}
func (submitted) isEvent()      {}
func (restarted) isEvent()      {}

var errStaleLoad = errors.New("stale load result")

// reduce returns the state that follows e. On error s is returned unchanged.
func reduce(s State, e event) (State, error) {
	switch e := e.(type) {
	case loadStarted:
		return State{
			Phase:      PhaseLoading,
			Generation: e.generation,
			Answers:    domain.AnswerMap{},
		}, nil

	case loadSucceeded:
		if e.generation != s.Generation || s.Phase != PhaseLoading {
			return s, errStaleLoad
		}
		quiz := e.quiz
		next := s.clone()
		next.Phase = PhaseReady
		next.Quiz = &quiz
		return next, nil

	case loadFailed:
		if e.generation != s.Generation || s.Phase != PhaseLoading {
			return s, errStaleLoad
		}
		next := s.clone()
		next.Phase = PhaseUnavailable
		next.Quiz = nil
		next.LoadErr = e.err
		return next, nil

	case answerSelected:
		if s.Phase != PhaseReady {
			return s, domain.ErrNotReady
		}
		question, ok := s.Quiz.Question(e.questionID)
		if !ok {
			return s, domain.ErrQuestionNotFound
		}
		if !question.HasOption(e.option) {
			return s, domain.ErrOptionNotFound
		}
		next := s.clone()
		next.Answers[e.questionID] = e.option
		next.Unanswered = removeID(next.Unanswered, e.questionID)
		return next, nil

	case submitted:
		if s.Phase != PhaseReady {
			return s, domain.ErrNotReady
		}
		next := s.clone()
		if missing := Unanswered(*s.Quiz, s.Answers); len(missing) > 0 {
			next.Unanswered = missing
			next.IncompleteAttempts++
			return next, nil
		}
		summary, err := Summarize(*s.Quiz, s.Answers, s.IncompleteAttempts)
		if err != nil {
			return s, err
		}
		score := summary.CorrectAnswers
		next.Phase = PhaseCompleted
		next.Unanswered = nil
		next.Score = &score
		next.Summary = &summary
		return next, nil

	case restarted:
		next := s.clone()
		if next.Phase == PhaseCompleted {
			next.Phase = PhaseReady
		}
		next.Answers = domain.AnswerMap{}
		next.Unanswered = nil
		next.Score = nil
		next.Summary = nil
		next.IncompleteAttempts = 0
		return next, nil
	}
	return s, nil
}

func removeID(ids []domain.QuestionID, id domain.QuestionID) []domain.QuestionID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
