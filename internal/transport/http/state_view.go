package http

import (
	"quiz-session/internal/app"
	"quiz-session/internal/domain"
)

// stateView is what browsers see of a session. Correct options stay hidden.
type stateView struct {
	Phase       app.Phase                    `json:"phase"`
	Loading     bool                         `json:"loading"`
	Generation  uint64                       `json:"generation"`
	Title       string                       `json:"title,omitempty"`
	Description string                       `json:"description,omitempty"`
	Questions   []questionView               `json:"questions,omitempty"`
	Answers     map[domain.QuestionID]string `json:"answers"`
	Unanswered  []domain.QuestionID          `json:"unanswered,omitempty"`
	Score       *int                         `json:"score,omitempty"`
	Summary     *domain.Summary              `json:"summary,omitempty"`
	Error       string                       `json:"error,omitempty"`
}

type questionView struct {
	ID          domain.QuestionID `json:"id"`
	Description string            `json:"description"`
	Options     []string          `json:"options"`
}

func newStateView(st app.State) stateView {
	v := stateView{
		Phase:      st.Phase,
		Loading:    st.Loading(),
		Generation: st.Generation,
		Answers:    st.Answers,
		Unanswered: st.Unanswered,
		Score:      st.Score,
		Summary:    st.Summary,
	}
	if st.LoadErr != nil {
		v.Error = st.LoadErr.Error()
	}
	if st.Quiz == nil {
		return v
	}
	v.Title = st.Quiz.Title
	v.Description = "No description provided"
	if st.Quiz.Description != nil && *st.Quiz.Description != "" {
		v.Description = *st.Quiz.Description
	}
	v.Questions = make([]questionView, 0, len(st.Quiz.Questions))
	for _, q := range st.Quiz.Questions {
		options := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			options = append(options, opt.Description)
		}
		v.Questions = append(v.Questions, questionView{ID: q.ID, Description: q.Description, Options: options})
	}
	return v
}
