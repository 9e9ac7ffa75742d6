package domain

import "fmt"

// Validate checks a freshly loaded quiz before a session accepts it.
func Validate(quiz Quiz) error {
	if len(quiz.Questions) == 0 {
		return ErrEmptyQuiz
	}
	seen := make(map[QuestionID]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if _, ok := seen[q.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateQuestion, q.ID)
		}
		seen[q.ID] = struct{}{}

		correct := 0
		for _, opt := range q.Options {
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			return &MalformedQuestionError{QuestionID: q.ID, CorrectOptions: correct}
		}
	}
	return nil
}
