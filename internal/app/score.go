package app

import "quiz-session/internal/domain"

// CorrectOption returns the first option flagged correct, in scan order.
func CorrectOption(q domain.Question) (domain.Option, error) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt, nil
		}
	}
	return domain.Option{}, &domain.MalformedQuestionError{QuestionID: q.ID}
}

// Unanswered lists, in quiz order, the questions with no recorded answer.
func Unanswered(quiz domain.Quiz, answers domain.AnswerMap) []domain.QuestionID {
	var missing []domain.QuestionID
	for _, q := range quiz.Questions {
		if _, ok := answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Score counts questions whose answer equals the correct option's description exactly.
func Score(quiz domain.Quiz, answers domain.AnswerMap) (int, error) {
	score := 0
	for _, q := range quiz.Questions {
		correct, err := CorrectOption(q)
		if err != nil {
			return 0, err
		}
		if selected, ok := answers[q.ID]; ok && selected == correct.Description {
			score++
		}
	}
	return score, nil
}

// Summarize builds the result record for a complete answer set.
func Summarize(quiz domain.Quiz, answers domain.AnswerMap, incompleteAttempts int) (domain.Summary, error) {
	correct, err := Score(quiz, answers)
	if err != nil {
		return domain.Summary{}, err
	}
	total := len(quiz.Questions)
	return domain.Summary{
		TotalQuestions:     total,
		CorrectAnswers:     correct,
		IncorrectAnswers:   total - correct,
		Unanswered:         len(Unanswered(quiz, answers)),
		IncompleteAttempts: incompleteAttempts,
	}, nil
}
