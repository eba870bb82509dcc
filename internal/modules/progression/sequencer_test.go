package progression

import "testing"

func intPtr(v int) *int { return &v }

func TestDetermineStartingLesson(t *testing.T) {
	lessons := []LessonScore{score(0, 0, 0), score(2, 1, 100), score(2, 0, 0), score(1, 0, 0)}

	cases := []struct {
		name       string
		completed  bool
		last       *int
		lessons    []LessonScore
		wantIndex  int
		wantReview bool
	}{
		{"completed opens review at 0", true, intPtr(3), lessons, 0, true},
		{"persisted position", false, intPtr(3), lessons, 3, false},
		{"persisted zero is honored", false, intPtr(0), lessons, 0, false},
		{"out of bounds falls back to first unattempted quiz", false, intPtr(9), lessons, 2, false},
		{"negative falls back", false, intPtr(-1), lessons, 2, false},
		{"no position falls back", false, nil, lessons, 2, false},
		{"everything attempted", false, nil, []LessonScore{score(1, 1, 0), score(0, 0, 0)}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx, review := DetermineStartingLesson(tc.completed, tc.last, tc.lessons)
			if idx != tc.wantIndex || review != tc.wantReview {
				t.Fatalf("want (%d,%v) got (%d,%v)", tc.wantIndex, tc.wantReview, idx, review)
			}
		})
	}
}

func TestNextAndPreviousLesson(t *testing.T) {
	if next, done := NextLesson(0, 3); next != 1 || done {
		t.Fatalf("NextLesson(0,3): got (%d,%v)", next, done)
	}
	if _, done := NextLesson(2, 3); !done {
		t.Fatalf("NextLesson on last lesson should signal done")
	}
	if prev, err := PreviousLesson(2); err != nil || prev != 1 {
		t.Fatalf("PreviousLesson(2): got (%d,%v)", prev, err)
	}
	if _, err := PreviousLesson(0); !IsKind(err, KindInvalidTransition) {
		t.Fatalf("PreviousLesson(0): want invalid_transition, got %v", err)
	}
}
