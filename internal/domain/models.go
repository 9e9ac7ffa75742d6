package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// QuestionID identifies a question. Providers send it as a JSON string or number.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id must be a string or number: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// Option represents a possible answer for a question.
type Option struct {
	Description string `json:"description"`
	Correct     bool   `json:"is_correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID          QuestionID `json:"id"`
	Description string     `json:"description"`
	Options     []Option   `json:"options"`
}

// Quiz is the document served by the quiz data provider.
type Quiz struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Questions   []Question `json:"questions"`
}

// Question returns the question with the given id.
func (q Quiz) Question(id QuestionID) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// HasOption reports whether description matches one of the question's options.
func (q Question) HasOption(description string) bool {
	for _, opt := range q.Options {
		if opt.Description == description {
			return true
		}
	}
	return false
}

// AnswerMap records the selected option description per question.
type AnswerMap map[QuestionID]string

// Clone returns an independent copy.
func (a AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Summary is the result record shown after a completed submission.
type Summary struct {
	TotalQuestions   int `json:"totalQuestions"`
	CorrectAnswers   int `json:"correctAnswers"`
	IncorrectAnswers int `json:"incorrectAnswers"`
	// Unanswered is always zero: a summary is only built once every question has an answer.
	Unanswered int `json:"unanswered"`
	// IncompleteAttempts counts submissions rejected for missing answers before this one.
	IncompleteAttempts int `json:"incompleteAttempts"`
}

// SubmitResult is the outcome of a submission.
type SubmitResult struct {
	Completed  bool         `json:"completed"`
	Unanswered []QuestionID `json:"unanswered,omitempty"`
	Score      int          `json:"score"`
	Summary    *Summary     `json:"summary,omitempty"`
}
