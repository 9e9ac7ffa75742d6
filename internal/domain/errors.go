package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLoadFailed wraps any failure to fetch, decode or validate a quiz.
	ErrLoadFailed = errors.New("quiz load failed")
	// ErrNotReady is returned when an answer or submission arrives outside the Ready phase.
	ErrNotReady = errors.New("quiz session not ready")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID that is not part of the loaded quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an option description the question does not offer.
	ErrOptionNotFound = errors.New("option not found")
	// ErrMalformedQuestion indicates a question without exactly one correct option.
	ErrMalformedQuestion = errors.New("malformed question")
	// ErrEmptyQuiz indicates a quiz document with no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrDuplicateQuestion indicates two questions sharing an id.
	ErrDuplicateQuestion = errors.New("duplicate question id")
)

// MalformedQuestionError names the offending question.
type MalformedQuestionError struct {
	QuestionID     QuestionID
	CorrectOptions int
}

func (e *MalformedQuestionError) Error() string {
	return fmt.Sprintf("malformed question %q: %d correct options, want 1", e.QuestionID, e.CorrectOptions)
}

func (e *MalformedQuestionError) Unwrap() error {
	return ErrMalformedQuestion
}
