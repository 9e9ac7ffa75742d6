package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"quiz-session/internal/domain"

	"github.com/google/uuid"
)

// QuizRepository loads quiz content (from cache/backing provider).
type QuizRepository interface {
	GetQuiz(ctx context.Context, source string) (domain.Quiz, error)
}

// QuizInvalidator is implemented by repositories that cache documents.
// Restart uses it so a restarted session always sees a fresh fetch.
type QuizInvalidator interface {
	Invalidate(ctx context.Context, source string) error
}

// Session drives one fetch-answer-submit-restart cycle for a single user.
type Session struct {
	id      string
	source  string
	quizzes QuizRepository
	logger  *log.Logger

	mu          sync.Mutex
	state       State
	subscribers map[chan State]struct{}
}

// NewSession returns a session in the Loading phase. Call Load to fetch the quiz.
// A nil logger falls back to log.Default().
func NewSession(quizzes QuizRepository, source string, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		id:          uuid.NewString(),
		source:      source,
		quizzes:     quizzes,
		logger:      logger,
		state:       State{Phase: PhaseLoading, Answers: domain.AnswerMap{}},
		subscribers: make(map[chan State]struct{}),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// State returns a snapshot of the session record.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Load fetches the quiz once. Failures are logged and leave the session
// Unavailable with State.LoadErr set; there is no retry.
func (s *Session) Load(ctx context.Context) {
	s.mu.Lock()
	gen := s.beginLoadLocked()
	s.mu.Unlock()

	s.finishLoad(ctx, gen)
}

// Restart clears every answer and result, then loads the quiz again.
// A load still in flight is left alone; its result is discarded on arrival.
func (s *Session) Restart(ctx context.Context) {
	s.mu.Lock()
	_ = s.applyLocked(restarted{})
	gen := s.beginLoadLocked()
	s.mu.Unlock()

	if inv, ok := s.quizzes.(QuizInvalidator); ok {
		if err := inv.Invalidate(ctx, s.source); err != nil {
			s.logger.Printf("session %s: quiz cache invalidation failed: %v", s.id, err)
		}
	}
	s.finishLoad(ctx, gen)
}

// SelectAnswer records or overwrites the answer for questionID.
func (s *Session) SelectAnswer(questionID domain.QuestionID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(answerSelected{questionID: questionID, option: option}); err != nil {
		return err
	}
	s.broadcastLocked()
	return nil
}

// Submit scores the quiz when every question has an answer. Otherwise it
// flags the missing questions and returns them without scoring.
func (s *Session) Submit() (domain.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(submitted{}); err != nil {
		return domain.SubmitResult{}, err
	}
	s.broadcastLocked()

	st := s.state
	if !st.Completed() {
		return domain.SubmitResult{
			Unanswered: append([]domain.QuestionID(nil), st.Unanswered...),
		}, nil
	}
	summary := *st.Summary
	return domain.SubmitResult{
		Completed: true,
		Score:     *st.Score,
		Summary:   &summary,
	}, nil
}

// Subscribe returns a channel that receives a snapshot after every transition.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// queued before any broadcast can run, so it always arrives first
	ch <- s.state.clone()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) beginLoadLocked() uint64 {
	gen := s.state.Generation + 1
	_ = s.applyLocked(loadStarted{generation: gen})
	s.broadcastLocked()
	return gen
}

func (s *Session) finishLoad(ctx context.Context, gen uint64) {
	quiz, err := s.quizzes.GetQuiz(ctx, s.source)
	if err == nil {
		err = domain.Validate(quiz)
	}

	var ev event = loadSucceeded{generation: gen, quiz: quiz}
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrLoadFailed, err)
		s.logger.Printf("session %s: error fetching quiz data: %v", s.id, err)
		ev = loadFailed{generation: gen, err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyLocked(ev); err != nil {
		if errors.Is(err, errStaleLoad) {
			s.logger.Printf("session %s: discarding stale load result (generation %d, current %d)", s.id, gen, s.state.Generation)
		}
		return
	}
	s.broadcastLocked()
}

func (s *Session) applyLocked(ev event) error {
	next, err := reduce(s.state, ev)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Session) broadcastLocked() {
	for ch := range s.subscribers {
		select {
		case ch <- s.state.clone():
		default:
			// drop the oldest snapshot so a slow view never blocks a transition
			select {
			case <-ch:
			default:
			}
			ch <- s.state.clone()
		}
	}
}
