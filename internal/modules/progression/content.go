package progression

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/modulegate-backend/internal/domain"
)

// ModuleContent is the immutable, cacheable view of a module for one session.
type ModuleContent struct {
	ID      uuid.UUID       `json:"id"`
	Title   string          `json:"title"`
	Points  int             `json:"points"`
	Locked  bool            `json:"locked"`
	Lessons []LessonContent `json:"lessons"`
}

type LessonContent struct {
	ID         uuid.UUID         `json:"id"`
	OrderIndex int               `json:"order_index"`
	Title      string            `json:"title"`
	BodyMD     string            `json:"body_md"`
	Questions  []QuestionContent `json:"questions"`
}

type QuestionContent struct {
	ID           uuid.UUID `json:"id"`
	Prompt       string    `json:"prompt"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_index"`
	Explanation  string    `json:"explanation"`
}

func (l LessonContent) HasQuiz() bool { return len(l.Questions) > 0 }

func (l LessonContent) correctIndexes() []int {
	out := make([]int, len(l.Questions))
	for i, q := range l.Questions {
		out[i] = q.CorrectIndex
	}
	return out
}

func ContentCacheKey(moduleID uuid.UUID) string {
	return fmt.Sprintf("module:%s:content", moduleID)
}

// loadContent serves from cache when fresh, otherwise reads the store and
// repopulates. Cache errors are logged and ignored.
func (e *Engine) loadContent(ctx context.Context, moduleID uuid.UUID) (*ModuleContent, error) {
	const op = "progression.open"
	key := ContentCacheKey(moduleID)
	if e.cache != nil {
		var cached ModuleContent
		age, ok, err := e.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			e.log.Warn("content cache read failed", "module_id", moduleID, "error", err)
		case ok && (e.contentTTL <= 0 || age <= e.contentTTL):
			return &cached, nil
		}
	}

	module, err := e.store.GetModule(ctx, moduleID)
	if err != nil {
		return nil, persistenceFailure(op, err)
	}
	if module == nil {
		return nil, notFound(op, "module not found")
	}
	lessons, err := e.store.ListLessons(ctx, moduleID)
	if err != nil {
		return nil, persistenceFailure(op, err)
	}
	if len(lessons) == 0 {
		return nil, notFound(op, "module has no lessons")
	}
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].OrderIndex < lessons[j].OrderIndex })

	lessonIDs := make([]uuid.UUID, 0, len(lessons))
	for _, l := range lessons {
		lessonIDs = append(lessonIDs, l.ID)
	}
	questions, err := e.store.ListQuizQuestions(ctx, lessonIDs)
	if err != nil {
		return nil, persistenceFailure(op, err)
	}
	content := buildContent(module, lessons, questions)

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, content); err != nil {
			e.log.Warn("content cache write failed", "module_id", moduleID, "error", err)
		}
	}
	return content, nil
}

func buildContent(module *types.Module, lessons []*types.Lesson, questions []*types.QuizQuestion) *ModuleContent {
	byLesson := make(map[uuid.UUID][]*types.QuizQuestion, len(lessons))
	for _, q := range questions {
		if q == nil {
			continue
		}
		byLesson[q.LessonID] = append(byLesson[q.LessonID], q)
	}
	out := &ModuleContent{
		ID:      module.ID,
		Title:   module.Title,
		Points:  module.Points,
		Locked:  module.Locked,
		Lessons: make([]LessonContent, 0, len(lessons)),
	}
	for _, l := range lessons {
		qs := byLesson[l.ID]
		sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderIndex < qs[j].OrderIndex })
		lc := LessonContent{
			ID:         l.ID,
			OrderIndex: l.OrderIndex,
			Title:      l.Title,
			BodyMD:     l.BodyMD,
			Questions:  make([]QuestionContent, 0, len(qs)),
		}
		for _, q := range qs {
			lc.Questions = append(lc.Questions, QuestionContent{
				ID:           q.ID,
				Prompt:       q.Prompt,
				Options:      q.OptionList(),
				CorrectIndex: q.CorrectIndex,
				Explanation:  q.Explanation,
			})
		}
		out.Lessons = append(out.Lessons, lc)
	}
	return out
}

