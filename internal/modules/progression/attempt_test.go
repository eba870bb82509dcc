package progression

import (
	"testing"

	"github.com/google/uuid"
)

func TestAttemptState_BestScoreNeverRegresses(t *testing.T) {
	at := NewAttemptState(uuid.New(), 2)
	correct := []int{0, 1}

	_ = at.Select(0, 0, 3)
	_ = at.Select(1, 1, 3)
	res, err := at.Submit(correct, 3)
	if err != nil {
		t.Fatalf("Submit #1: %v", err)
	}
	if res.ScorePercent != 100 || res.CorrectCount != 2 {
		t.Fatalf("Submit #1: score=%d correct=%d", res.ScorePercent, res.CorrectCount)
	}

	if err := at.Reset(3); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	res, err = at.Submit(correct, 3)
	if err != nil {
		t.Fatalf("Submit #2: %v", err)
	}
	if res.ScorePercent != 0 {
		t.Fatalf("unanswered quiz should score 0, got %d", res.ScorePercent)
	}
	if at.BestScorePercent != 100 || res.BestScorePercent != 100 {
		t.Fatalf("best score regressed: %d", at.BestScorePercent)
	}
	if at.LastScorePercent != 0 {
		t.Fatalf("last score: want 0 got %d", at.LastScorePercent)
	}
}

func TestAttemptState_AttemptsCapped(t *testing.T) {
	at := NewAttemptState(uuid.New(), 1)
	for i := 0; i < 3; i++ {
		if _, err := at.Submit([]int{0}, 3); err != nil {
			t.Fatalf("Submit %d: %v", i+1, err)
		}
		if i < 2 {
			if err := at.Reset(3); err != nil {
				t.Fatalf("Reset %d: %v", i+1, err)
			}
		}
	}
	if at.AttemptsUsed != 3 {
		t.Fatalf("attempts: want 3 got %d", at.AttemptsUsed)
	}
	if at.CanRetake(3) {
		t.Fatalf("CanRetake should be false after 3 attempts")
	}
	err := at.Reset(3)
	if !IsKind(err, KindAttemptsExhausted) {
		t.Fatalf("Reset after exhaustion: want attempts_exhausted, got %v", err)
	}
	if !at.Submitted {
		t.Fatalf("failed reset must not clear the submission")
	}

	at.Submitted = false
	if _, err := at.Submit([]int{0}, 3); !IsKind(err, KindAttemptsExhausted) {
		t.Fatalf("fourth submit: want attempts_exhausted, got %v", err)
	}
	if at.AttemptsUsed != 3 {
		t.Fatalf("attempts exceeded cap: %d", at.AttemptsUsed)
	}
}

func TestAttemptState_SelectRules(t *testing.T) {
	at := NewAttemptState(uuid.New(), 2)
	if err := at.Select(5, 0, 3); !IsKind(err, KindNotFound) {
		t.Fatalf("out of range question: want not_found, got %v", err)
	}
	if err := at.Select(0, 3, 3); !IsKind(err, KindInvalidTransition) {
		t.Fatalf("out of range option: want invalid_transition, got %v", err)
	}
	if err := at.Select(0, 2, 3); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !at.Touched() {
		t.Fatalf("expected Touched after a selection")
	}
	if _, err := at.Submit([]int{2, 0}, 3); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := at.Select(1, 0, 3); !IsKind(err, KindInvalidTransition) {
		t.Fatalf("select after submit: want invalid_transition, got %v", err)
	}
	if _, err := at.Submit([]int{2, 0}, 3); !IsKind(err, KindInvalidTransition) {
		t.Fatalf("double submit: want invalid_transition, got %v", err)
	}
}

func TestScorePercent(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{3, 3, 100},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := ScorePercent(tc.correct, tc.total); got != tc.want {
			t.Fatalf("ScorePercent(%d,%d): want=%d got=%d", tc.correct, tc.total, tc.want, got)
		}
	}
}
