package progression

import (
	"math"

	"github.com/google/uuid"
)

// LessonScore is the per-lesson input to aggregation and point computation.
type LessonScore struct {
	LessonID         uuid.UUID `json:"lesson_id"`
	QuestionCount    int       `json:"question_count"`
	AttemptsUsed     int       `json:"attempts_used"`
	BestScorePercent int       `json:"best_score_percent"`
}

func (l LessonScore) counts() bool {
	return l.QuestionCount > 0 && l.AttemptsUsed > 0
}

// Aggregate is the lesson-weighted mean of best scores over attempted quiz
// lessons, rounded to an integer percent. Zero contributors yields 0.
func Aggregate(lessons []LessonScore) int {
	sum, n := 0, 0
	for _, l := range lessons {
		if !l.counts() {
			continue
		}
		sum += l.BestScorePercent
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// ComputeEarnedPoints weights modulePoints by question count. Below
// threshold nothing is earned.
func ComputeEarnedPoints(overallScorePercent, modulePoints, thresholdPercent int, lessons []LessonScore) int {
	if overallScorePercent < thresholdPercent || modulePoints <= 0 {
		return 0
	}
	totalCorrect, totalQuestions := 0, 0
	for _, l := range lessons {
		if !l.counts() {
			continue
		}
		totalCorrect += int(math.Round(float64(l.BestScorePercent) * float64(l.QuestionCount) / 100))
		totalQuestions += l.QuestionCount
	}
	if totalQuestions == 0 {
		return 0
	}
	return int(math.Round(float64(totalCorrect) / float64(totalQuestions) * float64(modulePoints)))
}
