package progression

import "github.com/google/uuid"

// Snapshot is the read model handed to the presentation layer. Correct
// answers are only revealed once a quiz has been graded.
type Snapshot struct {
	ModuleID            uuid.UUID  `json:"module_id"`
	ModuleTitle         string     `json:"module_title"`
	State               State      `json:"state"`
	EntryState          State      `json:"entry_state"`
	Review              bool       `json:"review"`
	Completed           bool       `json:"completed"`
	OverallScorePercent *int       `json:"overall_score_percent,omitempty"`
	EarnedPoints        int        `json:"earned_points"`
	LessonIndex         int        `json:"lesson_index"`
	LessonCount         int        `json:"lesson_count"`
	Lesson              LessonView `json:"lesson"`
	Quiz                *QuizView  `json:"quiz,omitempty"`
	UnsavedChanges      bool       `json:"unsaved_changes"`
}

type LessonView struct {
	ID            uuid.UUID `json:"id"`
	OrderIndex    int       `json:"order_index"`
	Title         string    `json:"title"`
	BodyMD        string    `json:"body_md"`
	QuestionCount int       `json:"question_count"`
}

type QuizView struct {
	Questions         []QuestionView `json:"questions"`
	SelectedAnswers   []int          `json:"selected_answers"`
	Submitted         bool           `json:"submitted"`
	AttemptsUsed      int            `json:"attempts_used"`
	AttemptsRemaining int            `json:"attempts_remaining"`
	BestScorePercent  int            `json:"best_score_percent"`
	LastScorePercent  *int           `json:"last_score_percent,omitempty"`
	CanRetake         bool           `json:"can_retake"`
}

type QuestionView struct {
	ID           uuid.UUID `json:"id"`
	Prompt       string    `json:"prompt"`
	Options      []string  `json:"options"`
	CorrectIndex *int      `json:"correct_index,omitempty"`
	Explanation  string    `json:"explanation,omitempty"`
}

func lessonView(l LessonContent) LessonView {
	return LessonView{
		ID:            l.ID,
		OrderIndex:    l.OrderIndex,
		Title:         l.Title,
		BodyMD:        l.BodyMD,
		QuestionCount: len(l.Questions),
	}
}

func (h *Handle) snapshotLocked() Snapshot {
	lesson := h.content.Lessons[h.index]
	s := Snapshot{
		ModuleID:       h.content.ID,
		ModuleTitle:    h.content.Title,
		State:          h.state,
		EntryState:     h.entry,
		Review:         h.review,
		Completed:      h.completed,
		EarnedPoints:   h.earnedPoints,
		LessonIndex:    h.index,
		LessonCount:    len(h.content.Lessons),
		Lesson:         lessonView(lesson),
		UnsavedChanges: len(h.dirty) > 0,
	}
	if h.completed {
		score := h.overallScore
		s.OverallScorePercent = &score
	}
	if h.state.InQuiz() {
		if at := h.attempts[lesson.ID]; at != nil {
			s.Quiz = quizView(lesson, at, h.engine.rules.MaxAttempts)
		}
	}
	return s
}

func quizView(lesson LessonContent, at *AttemptState, maxAttempts int) *QuizView {
	q := &QuizView{
		Questions:         make([]QuestionView, 0, len(lesson.Questions)),
		SelectedAnswers:   append([]int(nil), at.SelectedAnswers...),
		Submitted:         at.Submitted,
		AttemptsUsed:      at.AttemptsUsed,
		AttemptsRemaining: remaining(at.AttemptsUsed, maxAttempts),
		BestScorePercent:  at.BestScorePercent,
		CanRetake:         at.CanRetake(maxAttempts),
	}
	if at.Submitted {
		last := at.LastScorePercent
		q.LastScorePercent = &last
	}
	for _, qc := range lesson.Questions {
		v := QuestionView{ID: qc.ID, Prompt: qc.Prompt, Options: qc.Options}
		if at.Submitted {
			idx := qc.CorrectIndex
			v.CorrectIndex = &idx
			v.Explanation = qc.Explanation
		}
		q.Questions = append(q.Questions, v)
	}
	return q
}
