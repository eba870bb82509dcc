package progression

import (
	"math"

	"github.com/google/uuid"
)

const unanswered = -1

// AttemptState is the quiz bookkeeping for one lesson in one session.
type AttemptState struct {
	LessonID         uuid.UUID
	SelectedAnswers  []int
	Submitted        bool
	AttemptsUsed     int
	BestScorePercent int
	LastScorePercent int
	LastCorrectCount int
}

type GradeResult struct {
	LessonID          uuid.UUID `json:"lesson_id"`
	ScorePercent      int       `json:"score_percent"`
	CorrectCount      int       `json:"correct_count"`
	QuestionCount     int       `json:"question_count"`
	BestScorePercent  int       `json:"best_score_percent"`
	AttemptsUsed      int       `json:"attempts_used"`
	AttemptsRemaining int       `json:"attempts_remaining"`
	Correct           []bool    `json:"correct"`
}

func NewAttemptState(lessonID uuid.UUID, questionCount int) *AttemptState {
	return &AttemptState{
		LessonID:        lessonID,
		SelectedAnswers: blankAnswers(questionCount),
	}
}

func blankAnswers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = unanswered
	}
	return out
}

// Select records an answer. Submitted quizzes are frozen until reset.
func (a *AttemptState) Select(questionIndex, optionIndex, optionCount int) error {
	const op = "progression.select_answer"
	if a.Submitted {
		return invalidTransition(op, "quiz already submitted")
	}
	if questionIndex < 0 || questionIndex >= len(a.SelectedAnswers) {
		return notFound(op, "question not found")
	}
	if optionIndex < 0 || optionIndex >= optionCount {
		return invalidTransition(op, "option out of range")
	}
	a.SelectedAnswers[questionIndex] = optionIndex
	return nil
}

// Submit grades the current answers against correct and consumes one attempt.
// The best score never regresses.
func (a *AttemptState) Submit(correct []int, maxAttempts int) (GradeResult, error) {
	const op = "progression.submit_quiz"
	if a.Submitted {
		return GradeResult{}, invalidTransition(op, "quiz already submitted; reset to retake")
	}
	if a.AttemptsUsed >= maxAttempts {
		return GradeResult{}, attemptsExhausted(op)
	}
	if len(a.SelectedAnswers) != len(correct) {
		a.SelectedAnswers = resizeAnswers(a.SelectedAnswers, len(correct))
	}
	marks := GradeAnswers(a.SelectedAnswers, correct)
	count := 0
	for _, ok := range marks {
		if ok {
			count++
		}
	}
	score := ScorePercent(count, len(correct))

	a.AttemptsUsed++
	a.Submitted = true
	a.LastScorePercent = score
	a.LastCorrectCount = count
	if score > a.BestScorePercent {
		a.BestScorePercent = score
	}
	return a.result(len(correct), maxAttempts, marks), nil
}

func (a *AttemptState) result(questionCount, maxAttempts int, marks []bool) GradeResult {
	return GradeResult{
		LessonID:          a.LessonID,
		ScorePercent:      a.LastScorePercent,
		CorrectCount:      a.LastCorrectCount,
		QuestionCount:     questionCount,
		BestScorePercent:  a.BestScorePercent,
		AttemptsUsed:      a.AttemptsUsed,
		AttemptsRemaining: remaining(a.AttemptsUsed, maxAttempts),
		Correct:           marks,
	}
}

func (a *AttemptState) CanRetake(maxAttempts int) bool {
	return a.AttemptsUsed < maxAttempts
}

// Reset clears answers for a retake. With no attempts left it reports
// attempts_exhausted and leaves the state untouched.
func (a *AttemptState) Reset(maxAttempts int) error {
	if !a.CanRetake(maxAttempts) {
		return attemptsExhausted("progression.reset_quiz")
	}
	a.SelectedAnswers = blankAnswers(len(a.SelectedAnswers))
	a.Submitted = false
	return nil
}

// Touched reports whether any answer has been picked.
func (a *AttemptState) Touched() bool {
	for _, v := range a.SelectedAnswers {
		if v != unanswered {
			return true
		}
	}
	return false
}

// GradeAnswers marks each answer; unanswered questions are wrong.
func GradeAnswers(selected, correct []int) []bool {
	out := make([]bool, len(correct))
	for i, want := range correct {
		out[i] = i < len(selected) && selected[i] != unanswered && selected[i] == want
	}
	return out
}

// ScorePercent is round(100 * correct / total); 0 when there are no questions.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

func resizeAnswers(in []int, n int) []int {
	out := blankAnswers(n)
	copy(out, in)
	return out
}

func remaining(used, max int) int {
	if used >= max {
		return 0
	}
	return max - used
}
