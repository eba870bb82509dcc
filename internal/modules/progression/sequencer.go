package progression

// DetermineStartingLesson picks where a session opens.
//
// A completed module opens at 0 in review mode. Otherwise a persisted
// in-bounds position wins, then the first quiz lesson with no attempts,
// then 0.
func DetermineStartingLesson(completed bool, lastLessonIndex *int, lessons []LessonScore) (index int, review bool) {
	if completed {
		return 0, true
	}
	if lastLessonIndex != nil && *lastLessonIndex >= 0 && *lastLessonIndex < len(lessons) {
		return *lastLessonIndex, false
	}
	for i, l := range lessons {
		if l.QuestionCount > 0 && l.AttemptsUsed == 0 {
			return i, false
		}
	}
	return 0, false
}

// NextLesson moves forward one lesson. done is true when current is the last lesson.
func NextLesson(current, count int) (next int, done bool) {
	if current >= count-1 {
		return current, true
	}
	return current + 1, false
}

func PreviousLesson(current int) (int, error) {
	if current <= 0 {
		return 0, invalidTransition("progression.retreat", "already at the first lesson")
	}
	return current - 1, nil
}
