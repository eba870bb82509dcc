// Package progressiontest provides an in-memory progression.Store with
// failure injection for engine and service tests.
package progressiontest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/modules/progression"
)

type pairKey struct {
	a uuid.UUID
	b string
}

type data struct {
	modules     map[uuid.UUID]types.Module
	lessons     map[uuid.UUID][]types.Lesson
	questions   map[uuid.UUID][]types.QuizQuestion
	completions map[pairKey]types.ModuleCompletion
	attempts    map[pairKey]types.LessonAttempt
	ledger      []types.RewardLedgerEntry
	points      map[uuid.UUID]int
	badges      map[pairKey]types.BadgeGrant
	activity    []types.ActivityLogEntry
}

func (d *data) clone() *data {
	out := &data{
		modules:     make(map[uuid.UUID]types.Module, len(d.modules)),
		lessons:     make(map[uuid.UUID][]types.Lesson, len(d.lessons)),
		questions:   make(map[uuid.UUID][]types.QuizQuestion, len(d.questions)),
		completions: make(map[pairKey]types.ModuleCompletion, len(d.completions)),
		attempts:    make(map[pairKey]types.LessonAttempt, len(d.attempts)),
		ledger:      append([]types.RewardLedgerEntry(nil), d.ledger...),
		points:      make(map[uuid.UUID]int, len(d.points)),
		badges:      make(map[pairKey]types.BadgeGrant, len(d.badges)),
		activity:    append([]types.ActivityLogEntry(nil), d.activity...),
	}
	for k, v := range d.modules {
		out.modules[k] = v
	}
	for k, v := range d.lessons {
		out.lessons[k] = append([]types.Lesson(nil), v...)
	}
	for k, v := range d.questions {
		out.questions[k] = append([]types.QuizQuestion(nil), v...)
	}
	for k, v := range d.completions {
		out.completions[k] = v
	}
	for k, v := range d.attempts {
		out.attempts[k] = v
	}
	for k, v := range d.points {
		out.points[k] = v
	}
	for k, v := range d.badges {
		out.badges[k] = v
	}
	return out
}

// Store is safe for concurrent use. Transactions are serialized and roll
// back by restoring a snapshot.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	d    *data

	failNext   map[string]error
	failAlways map[string]error
	calls      map[string]int
}

var _ progression.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		d: &data{
			modules:     map[uuid.UUID]types.Module{},
			lessons:     map[uuid.UUID][]types.Lesson{},
			questions:   map[uuid.UUID][]types.QuizQuestion{},
			completions: map[pairKey]types.ModuleCompletion{},
			attempts:    map[pairKey]types.LessonAttempt{},
			points:      map[uuid.UUID]int{},
			badges:      map[pairKey]types.BadgeGrant{},
		},
		failNext:   map[string]error{},
		failAlways: map[string]error{},
		calls:      map[string]int{},
	}
}

// FailNext makes the next call to op (a Store method name) return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = err
}

// FailAlways makes every call to op return err until ClearFailures.
func (s *Store) FailAlways(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAlways[op] = err
}

func (s *Store) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = map[string]error{}
	s.failAlways = map[string]error{}
}

func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter must be called with mu held.
func (s *Store) enter(op string) error {
	s.calls[op]++
	if err, ok := s.failNext[op]; ok {
		delete(s.failNext, op)
		return err
	}
	if err, ok := s.failAlways[op]; ok {
		return err
	}
	return nil
}

// Seeding

// SeedModule stores a module whose lessons carry the given question counts.
// Every question has options A, B, C with A correct.
func (s *Store) SeedModule(title string, points int, questionsPerLesson ...int) (types.Module, []types.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := types.Module{ID: uuid.New(), Title: title, Points: points}
	s.d.modules[m.ID] = m
	lessons := make([]types.Lesson, 0, len(questionsPerLesson))
	for i, n := range questionsPerLesson {
		l := types.Lesson{ID: uuid.New(), ModuleID: m.ID, OrderIndex: i + 1, Title: fmt.Sprintf("%s %d", title, i+1)}
		lessons = append(lessons, l)
		qs := make([]types.QuizQuestion, 0, n)
		for j := 0; j < n; j++ {
			qs = append(qs, types.QuizQuestion{
				ID:           uuid.New(),
				LessonID:     l.ID,
				OrderIndex:   j + 1,
				Prompt:       fmt.Sprintf("question %d", j+1),
				Options:      datatypes.JSON(`["A","B","C"]`),
				CorrectIndex: 0,
				Explanation:  "A is correct",
			})
		}
		s.d.questions[l.ID] = qs
	}
	s.d.lessons[m.ID] = lessons
	return m, lessons
}

func (s *Store) SetLocked(moduleID uuid.UUID, locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.d.modules[moduleID]
	m.Locked = locked
	s.d.modules[moduleID] = m
}

// Inspection

func (s *Store) Completion(userID, moduleID uuid.UUID) (types.ModuleCompletion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.d.completions[pairKey{userID, moduleID.String()}]
	return c, ok
}

func (s *Store) Attempt(userID, lessonID uuid.UUID) (types.LessonAttempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.d.attempts[pairKey{userID, lessonID.String()}]
	return a, ok
}

func (s *Store) Ledger(userID uuid.UUID) []types.RewardLedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.RewardLedgerEntry
	for _, e := range s.d.ledger {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) Points(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.points[userID]
}

func (s *Store) Badges(userID uuid.UUID) []types.BadgeGrant {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.BadgeGrant
	for k, b := range s.d.badges {
		if k.a == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BadgeName < out[j].BadgeName })
	return out
}

func (s *Store) Activity(userID uuid.UUID) []types.ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ActivityLogEntry
	for _, e := range s.d.activity {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// progression.Store

func (s *Store) GetModule(ctx context.Context, moduleID uuid.UUID) (*types.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetModule"); err != nil {
		return nil, err
	}
	m, ok := s.d.modules[moduleID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *Store) ListLessons(ctx context.Context, moduleID uuid.UUID) ([]*types.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListLessons"); err != nil {
		return nil, err
	}
	var out []*types.Lesson
	for _, l := range s.d.lessons[moduleID] {
		l := l
		out = append(out, &l)
	}
	return out, nil
}

func (s *Store) ListQuizQuestions(ctx context.Context, lessonIDs []uuid.UUID) ([]*types.QuizQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListQuizQuestions"); err != nil {
		return nil, err
	}
	var out []*types.QuizQuestion
	for _, id := range lessonIDs {
		for _, q := range s.d.questions[id] {
			q := q
			out = append(out, &q)
		}
	}
	return out, nil
}

func (s *Store) GetModuleCompletion(ctx context.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetModuleCompletion"); err != nil {
		return nil, err
	}
	c, ok := s.d.completions[pairKey{userID, moduleID.String()}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) EnsureModuleCompletion(ctx context.Context, userID, moduleID uuid.UUID) (*types.ModuleCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("EnsureModuleCompletion"); err != nil {
		return nil, err
	}
	key := pairKey{userID, moduleID.String()}
	c, ok := s.d.completions[key]
	if !ok {
		c = types.ModuleCompletion{ID: uuid.New(), UserID: userID, ModuleID: moduleID, CreatedAt: time.Now()}
		s.d.completions[key] = c
	}
	return &c, nil
}

func (s *Store) UpdateModulePosition(ctx context.Context, userID, moduleID uuid.UUID, lessonIndex int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateModulePosition"); err != nil {
		return false, err
	}
	key := pairKey{userID, moduleID.String()}
	c, ok := s.d.completions[key]
	if !ok || c.Completed {
		return false, nil
	}
	idx := lessonIndex
	c.LastLessonIndex = &idx
	s.d.completions[key] = c
	return true, nil
}

func (s *Store) ClaimCompletion(ctx context.Context, userID, moduleID uuid.UUID, claim progression.CompletionClaim) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ClaimCompletion"); err != nil {
		return false, err
	}
	key := pairKey{userID, moduleID.String()}
	c, ok := s.d.completions[key]
	if ok && c.Completed {
		return false, nil
	}
	if !ok {
		c = types.ModuleCompletion{ID: uuid.New(), UserID: userID, ModuleID: moduleID}
	}
	score := claim.OverallScorePercent
	at := claim.CompletedAt
	c.Completed = true
	c.OverallScorePercent = &score
	c.EarnedPoints = claim.EarnedPoints
	c.CompletedAt = &at
	s.d.completions[key] = c
	return true, nil
}

func (s *Store) ListLessonAttempts(ctx context.Context, userID uuid.UUID, lessonIDs []uuid.UUID) (map[uuid.UUID]*types.LessonAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListLessonAttempts"); err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*types.LessonAttempt, len(lessonIDs))
	for _, id := range lessonIDs {
		if a, ok := s.d.attempts[pairKey{userID, id.String()}]; ok {
			a := a
			out[id] = &a
		}
	}
	return out, nil
}

func (s *Store) UpsertLessonAttempt(ctx context.Context, row *types.LessonAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertLessonAttempt"); err != nil {
		return err
	}
	key := pairKey{row.UserID, row.LessonID.String()}
	cp := *row
	if prev, ok := s.d.attempts[key]; ok {
		cp.ID = prev.ID
		cp.CreatedAt = prev.CreatedAt
		// same monotonic rules as the gorm upsert
		if cp.AttemptsUsed < prev.AttemptsUsed {
			keep := prev
			if cp.BestScorePercent > keep.BestScorePercent {
				keep.BestScorePercent = cp.BestScorePercent
			}
			s.d.attempts[key] = keep
			return nil
		}
		if prev.BestScorePercent > cp.BestScorePercent {
			cp.BestScorePercent = prev.BestScorePercent
		}
	} else if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	cp.SelectedAnswers = append(datatypes.JSON(nil), row.SelectedAnswers...)
	s.d.attempts[key] = cp
	return nil
}

func (s *Store) AppendRewardLedgerEntry(ctx context.Context, userID uuid.UUID, moduleID *uuid.UUID, amount int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("AppendRewardLedgerEntry"); err != nil {
		return err
	}
	s.d.ledger = append(s.d.ledger, types.RewardLedgerEntry{
		ID:        uuid.New(),
		UserID:    userID,
		ModuleID:  moduleID,
		Reason:    reason,
		Amount:    amount,
		CreatedAt: time.Now(),
	})
	s.d.points[userID] += amount
	return nil
}

func (s *Store) HasBadgeGrant(ctx context.Context, userID uuid.UUID, badgeName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("HasBadgeGrant"); err != nil {
		return false, err
	}
	_, ok := s.d.badges[pairKey{userID, badgeName}]
	return ok, nil
}

func (s *Store) CreateBadgeGrant(ctx context.Context, userID, moduleID uuid.UUID, badgeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateBadgeGrant"); err != nil {
		return err
	}
	key := pairKey{userID, badgeName}
	if _, ok := s.d.badges[key]; ok {
		return fmt.Errorf("duplicate key: badge %q already granted", badgeName)
	}
	s.d.badges[key] = types.BadgeGrant{ID: uuid.New(), UserID: userID, BadgeName: badgeName, ModuleID: moduleID, CreatedAt: time.Now()}
	return nil
}

func (s *Store) AppendActivityLogEntry(ctx context.Context, userID uuid.UUID, action, item string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("AppendActivityLogEntry"); err != nil {
		return err
	}
	s.d.activity = append(s.d.activity, types.ActivityLogEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		Item:      item,
		Points:    points,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *Store) InTx(ctx context.Context, fn func(tx progression.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	if err := s.enter("InTx"); err != nil {
		s.mu.Unlock()
		return err
	}
	saved := s.d.clone()
	s.mu.Unlock()

	if err := fn(txView{s}); err != nil {
		s.mu.Lock()
		s.d = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// txView flattens nested transactions into the outer one.
type txView struct {
	*Store
}

func (t txView) InTx(ctx context.Context, fn func(tx progression.Store) error) error {
	return fn(t)
}
