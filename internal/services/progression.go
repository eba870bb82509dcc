package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/platform/apierr"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
)

// SessionOpener is satisfied by *progression.Engine.
type SessionOpener interface {
	Open(ctx context.Context, userID, moduleID uuid.UUID) (*progression.Handle, error)
}

// Session is a registered engine handle owned by one user.
type Session struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Handle *progression.Handle

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *Session) ModuleID() uuid.UUID { return s.Handle.ModuleID() }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

type ProgressionService interface {
	// OpenSession returns the caller's existing session for the module when
	// there is one, otherwise opens a new engine handle.
	OpenSession(ctx context.Context, userID, moduleID uuid.UUID) (*Session, error)
	// GetSession enforces ownership: only the user who opened a session may act on it.
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*Session, error)
	CloseSession(ctx context.Context, userID, sessionID uuid.UUID) error
	// Sweep closes sessions idle for longer than the idle timeout and
	// returns how many were closed.
	Sweep(ctx context.Context) int
	StartSweeper(ctx context.Context, interval time.Duration)
	Shutdown(ctx context.Context) error
}

type sessionKey struct {
	userID   uuid.UUID
	moduleID uuid.UUID
}

type progressionService struct {
	log         *logger.Logger
	engine      SessionOpener
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	byKey    map[sessionKey]uuid.UUID
}

func NewProgressionService(baseLog *logger.Logger, engine SessionOpener, idleTimeout time.Duration, now func() time.Time) ProgressionService {
	if now == nil {
		now = time.Now
	}
	return &progressionService{
		log:         baseLog.With("service", "ProgressionService"),
		engine:      engine,
		idleTimeout: idleTimeout,
		now:         now,
		sessions:    map[uuid.UUID]*Session{},
		byKey:       map[sessionKey]uuid.UUID{},
	}
}

func (s *progressionService) OpenSession(ctx context.Context, userID, moduleID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized("missing user id")
	}
	if moduleID == uuid.Nil {
		return nil, apierr.BadRequest("invalid_module_id", "missing module id")
	}
	key := sessionKey{userID: userID, moduleID: moduleID}

	if sess := s.lookupKey(key); sess != nil {
		sess.touch(s.now())
		return sess, nil
	}

	h, err := s.engine.Open(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if id, ok := s.byKey[key]; ok {
		existing := s.sessions[id]
		s.mu.Unlock()
		// lost the race to a concurrent open; the new handle has no unsaved state
		if cerr := h.Close(ctx); cerr != nil {
			s.log.Warn("close duplicate handle failed", "error", cerr, "user_id", userID, "module_id", moduleID)
		}
		existing.touch(s.now())
		return existing, nil
	}
	sess := &Session{ID: uuid.New(), UserID: userID, Handle: h, lastUsed: s.now()}
	s.sessions[sess.ID] = sess
	s.byKey[key] = sess.ID
	s.mu.Unlock()

	s.log.Info("session opened", "session_id", sess.ID, "user_id", userID, "module_id", moduleID, "state", h.State().String())
	return sess, nil
}

func (s *progressionService) lookupKey(key sessionKey) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		return s.sessions[id]
	}
	return nil
}

func (s *progressionService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, apierr.NotFound("session_not_found", "session not found")
	}
	if sess.UserID != userID {
		return nil, apierr.Forbidden("session belongs to another user")
	}
	sess.touch(s.now())
	return sess, nil
}

func (s *progressionService) CloseSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	sess, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := sess.Handle.Close(ctx); err != nil {
		s.log.Warn("session close failed", "error", err, "session_id", sessionID)
		return err
	}
	s.remove(sess)
	s.log.Info("session closed", "session_id", sessionID, "user_id", userID)
	return nil
}

func (s *progressionService) remove(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.ID)
	key := sessionKey{userID: sess.UserID, moduleID: sess.ModuleID()}
	if id, ok := s.byKey[key]; ok && id == sess.ID {
		delete(s.byKey, key)
	}
}

func (s *progressionService) snapshot() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

func (s *progressionService) Sweep(ctx context.Context) int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTimeout)
	closed := 0
	for _, sess := range s.snapshot() {
		if sess.idleSince().After(cutoff) {
			continue
		}
		if err := sess.Handle.Close(ctx); err != nil {
			// kept registered so the next sweep retries the flush
			s.log.Warn("idle session close failed", "error", err, "session_id", sess.ID)
			continue
		}
		s.remove(sess)
		closed++
	}
	if closed > 0 {
		s.log.Info("idle sessions closed", "count", closed)
	}
	return closed
}

func (s *progressionService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.idleTimeout <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Shutdown closes every open session and joins the failures.
func (s *progressionService) Shutdown(ctx context.Context) error {
	var errs []error
	for _, sess := range s.snapshot() {
		if err := sess.Handle.Close(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		s.remove(sess)
	}
	return errors.Join(errs...)
}
