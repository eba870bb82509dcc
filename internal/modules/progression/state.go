package progression

// State is the single source of truth for where a session is in the module flow.
type State int

const (
	StateLoading State = iota
	StateResuming
	StateReviewBrowsing
	StateInLesson
	StateQuizOffered
	StateQuizInProgress
	StateQuizGraded
	StateModuleCompleting
	StateModuleDone
	StateClosed
)

var stateNames = map[State]string{
	StateLoading:          "loading",
	StateResuming:         "resuming",
	StateReviewBrowsing:   "review_browsing",
	StateInLesson:         "in_lesson",
	StateQuizOffered:      "quiz_offered",
	StateQuizInProgress:   "quiz_in_progress",
	StateQuizGraded:       "quiz_graded",
	StateModuleCompleting: "module_completing",
	StateModuleDone:       "module_done",
	StateClosed:           "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// InQuiz is true for the three quiz states.
func (s State) InQuiz() bool {
	return s == StateQuizOffered || s == StateQuizInProgress || s == StateQuizGraded
}
