package app_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"quiz-session/internal/app"
	"quiz-session/internal/domain"
	"quiz-session/internal/infra/memory"
)

func TestAnsweringEverythingCorrectlyCompletes(t *testing.T) {
	session, _ := newTestSession(threeQuestionQuiz())
	session.Load(context.Background())

	for id, option := range map[domain.QuestionID]string{"q1": "4", "q2": "Paris", "q3": "Blue"} {
		if err := session.SelectAnswer(id, option); err != nil {
			t.Fatalf("select %s: %v", id, err)
		}
	}

	result, err := session.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Completed || result.Score != 3 {
		t.Fatalf("expected completed with score 3, got %+v", result)
	}
	want := domain.Summary{TotalQuestions: 3, CorrectAnswers: 3}
	if *result.Summary != want {
		t.Fatalf("expected %+v, got %+v", want, *result.Summary)
	}
	if st := session.State(); !st.Completed() || *st.Score != 3 {
		t.Fatalf("expected completed state, got %+v", st)
	}
}

func TestIncompleteSubmissionFlagsMissingQuestions(t *testing.T) {
	quiz := threeQuestionQuiz()
	quiz.Questions = quiz.Questions[:2]
	session, _ := newTestSession(quiz)
	session.Load(context.Background())

	if err := session.SelectAnswer("q1", "4"); err != nil {
		t.Fatalf("select: %v", err)
	}
	result, err := session.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Completed || len(result.Unanswered) != 1 || result.Unanswered[0] != "q2" {
		t.Fatalf("expected unanswered [q2], got %+v", result)
	}

	st := session.State()
	if st.Completed() || st.Score != nil || st.Summary != nil {
		t.Fatalf("incomplete submit must not score, got %+v", st)
	}
	if !st.Flagged("q2") || st.Flagged("q1") {
		t.Fatalf("expected only q2 flagged, got %v", st.Unanswered)
	}

	// Answering the flagged question clears its flag.
	if err := session.SelectAnswer("q2", "Lyon"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if session.State().Flagged("q2") {
		t.Fatalf("expected q2 flag cleared")
	}

	result, err = session.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Completed || result.Summary.IncompleteAttempts != 1 || result.Summary.Unanswered != 0 {
		t.Fatalf("expected completion after one incomplete attempt, got %+v", result.Summary)
	}
}

func TestLoadFailureLeavesSessionUnavailable(t *testing.T) {
	var logs bytes.Buffer
	session := app.NewSession(failingRepository{}, "http://quiz.test/quiz", log.New(&logs, "", 0))
	session.Load(context.Background())

	st := session.State()
	if st.Loading() {
		t.Fatalf("expected loading flag cleared")
	}
	if st.Phase != app.PhaseUnavailable || st.Quiz != nil {
		t.Fatalf("expected unavailable without quiz, got %+v", st)
	}
	if !errors.Is(st.LoadErr, domain.ErrLoadFailed) {
		t.Fatalf("expected load failure recorded, got %v", st.LoadErr)
	}
	if !strings.Contains(logs.String(), "error fetching quiz data") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
	if _, err := session.Submit(); !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("expected submit to be rejected, got %v", err)
	}
}

func TestMalformedQuizIsRejectedAtLoad(t *testing.T) {
	quiz := threeQuestionQuiz()
	quiz.Questions[1].Options[0].Correct = false
	session, _ := newTestSession(quiz)
	session.Load(context.Background())

	st := session.State()
	var malformed *domain.MalformedQuestionError
	if st.Phase != app.PhaseUnavailable || !errors.As(st.LoadErr, &malformed) || malformed.QuestionID != "q2" {
		t.Fatalf("expected malformed q2 at load, got phase=%s err=%v", st.Phase, st.LoadErr)
	}
}

func TestSelectAnswerOverwrites(t *testing.T) {
	session, _ := newTestSession(threeQuestionQuiz())
	session.Load(context.Background())

	_ = session.SelectAnswer("q1", "3")
	_ = session.SelectAnswer("q1", "5")

	answers := session.State().Answers
	if len(answers) != 1 || answers["q1"] != "5" {
		t.Fatalf("expected only latest answer, got %v", answers)
	}
}

func TestSelectAnswerRejectsUnknownIDs(t *testing.T) {
	session, _ := newTestSession(threeQuestionQuiz())
	session.Load(context.Background())

	if err := session.SelectAnswer("nope", "4"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if err := session.SelectAnswer("q1", "42"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option not found, got %v", err)
	}
	if len(session.State().Answers) != 0 {
		t.Fatalf("rejected selections must not be recorded")
	}
}

func TestRestartResetsAndRefetches(t *testing.T) {
	session, loader := newTestSession(threeQuestionQuiz())
	ctx := context.Background()
	session.Load(ctx)

	_ = session.SelectAnswer("q1", "4")
	_, _ = session.Submit()

	session.Restart(ctx)

	st := session.State()
	if len(st.Answers) != 0 || st.Score != nil || st.Completed() || st.Summary != nil || len(st.Unanswered) != 0 {
		t.Fatalf("expected cleared state after restart, got %+v", st)
	}
	if st.Phase != app.PhaseReady {
		t.Fatalf("expected ready after refetch, got %s", st.Phase)
	}
	if loader.count() != 2 {
		t.Fatalf("expected two fetches, got %d", loader.count())
	}
}

func TestStaleLoadDoesNotOverwriteRestart(t *testing.T) {
	stale := threeQuestionQuiz()
	stale.Title = "stale"
	fresh := threeQuestionQuiz()
	fresh.Title = "fresh"

	release := make(chan struct{})
	repo := &sequenceRepository{
		responses: []sequencedResponse{
			{quiz: stale, wait: release},
			{quiz: fresh},
		},
	}
	session := app.NewSession(repo, "src", log.New(&bytes.Buffer{}, "", 0))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		session.Load(ctx)
		close(done)
	}()
	repo.waitForCalls(1)

	session.Restart(ctx)
	if got := session.State().Quiz.Title; got != "fresh" {
		t.Fatalf("expected fresh quiz, got %q", got)
	}

	close(release)
	<-done

	st := session.State()
	if st.Quiz.Title != "fresh" || st.Phase != app.PhaseReady {
		t.Fatalf("stale load overwrote state: %+v", st)
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	session, _ := newTestSession(threeQuestionQuiz())
	updates, cancel := session.Subscribe()
	defer cancel()

	initial := <-updates
	if initial.Phase != app.PhaseLoading {
		t.Fatalf("expected initial loading snapshot, got %s", initial.Phase)
	}

	session.Load(context.Background())
	seenReady := false
	timeout := time.After(time.Second)
	for !seenReady {
		select {
		case st := <-updates:
			seenReady = st.Phase == app.PhaseReady
		case <-timeout:
			t.Fatalf("no ready snapshot received")
		}
	}
}

func TestDisconnectedSessionDoesNotFailSharedLoad(t *testing.T) {
	release := make(chan struct{})
	loader := &gatedLoader{release: release, quiz: threeQuestionQuiz()}
	repo := memory.NewQuizRepository(loader, 0)
	logger := log.New(&bytes.Buffer{}, "", 0)

	a := app.NewSession(repo, "src", logger)
	b := app.NewSession(repo, "src", logger)

	ctxA, cancelA := context.WithCancel(context.Background())
	doneA := make(chan struct{})
	go func() {
		a.Load(ctxA)
		close(doneA)
	}()
	loader.waitForCalls(1)

	doneB := make(chan struct{})
	go func() {
		b.Load(context.Background())
		close(doneB)
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	<-doneA
	close(release)
	<-doneB

	if st := b.State(); st.Phase != app.PhaseReady || st.LoadErr != nil {
		t.Fatalf("expected b ready, got phase=%s err=%v", st.Phase, st.LoadErr)
	}
	if st := a.State(); !errors.Is(st.LoadErr, context.Canceled) {
		t.Fatalf("expected a to fail with its own cancellation, got %v", st.LoadErr)
	}
}

func TestRestartBypassesQuizCache(t *testing.T) {
	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{"src": threeQuestionQuiz()})}
	repo := memory.NewQuizRepository(loader, time.Hour)
	ctx := context.Background()

	first := app.NewSession(repo, "src", log.New(&bytes.Buffer{}, "", 0))
	second := app.NewSession(repo, "src", log.New(&bytes.Buffer{}, "", 0))
	first.Load(ctx)
	second.Load(ctx)
	if loader.count() != 1 {
		t.Fatalf("expected cached initial loads, got %d fetches", loader.count())
	}

	first.Restart(ctx)
	if loader.count() != 2 {
		t.Fatalf("expected restart to refetch, got %d fetches", loader.count())
	}
}

func TestSubscribeDeliversInitialSnapshotFirst(t *testing.T) {
	quiz := threeQuestionQuiz()
	session, _ := newTestSession(quiz)
	session.Load(context.Background())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_, _ = session.Submit()
			}
		}
	}()

	for i := 0; i < 200; i++ {
		updates, cancel := session.Subscribe()
		first := <-updates
		second := <-updates
		cancel()
		if second.IncompleteAttempts < first.IncompleteAttempts {
			t.Fatalf("snapshot order reversed: %d then %d", first.IncompleteAttempts, second.IncompleteAttempts)
		}
	}
	close(stop)
	wg.Wait()
}

func newTestSession(quiz domain.Quiz) (*app.Session, *countingLoader) {
	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{"src": quiz})}
	repo := memory.NewQuizRepository(loader, 0)
	return app.NewSession(repo, "src", log.New(&bytes.Buffer{}, "", 0)), loader
}

type countingLoader struct {
	memory.QuizLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, source string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuizLoader.LoadQuiz(ctx, source)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// gatedLoader blocks until release and honours its own ctx.
type gatedLoader struct {
	release chan struct{}
	quiz    domain.Quiz
	mu      sync.Mutex
	calls   int
}

func (l *gatedLoader) LoadQuiz(ctx context.Context, _ string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	select {
	case <-l.release:
		return l.quiz, nil
	case <-ctx.Done():
		return domain.Quiz{}, ctx.Err()
	}
}

func (l *gatedLoader) waitForCalls(n int) {
	for {
		l.mu.Lock()
		calls := l.calls
		l.mu.Unlock()
		if calls >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

type failingRepository struct{}

func (failingRepository) GetQuiz(context.Context, string) (domain.Quiz, error) {
	return domain.Quiz{}, errors.New("connection refused")
}

type sequencedResponse struct {
	quiz domain.Quiz
	wait chan struct{}
}

type sequenceRepository struct {
	mu        sync.Mutex
	calls     int
	responses []sequencedResponse
}

func (r *sequenceRepository) GetQuiz(context.Context, string) (domain.Quiz, error) {
	r.mu.Lock()
	resp := r.responses[r.calls]
	r.calls++
	r.mu.Unlock()
	if resp.wait != nil {
		<-resp.wait
	}
	return resp.quiz, nil
}

func (r *sequenceRepository) waitForCalls(n int) {
	for {
		r.mu.Lock()
		calls := r.calls
		r.mu.Unlock()
		if calls >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
}
