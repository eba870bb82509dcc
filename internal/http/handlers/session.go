package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/modulegate-backend/internal/http/middleware"
	"github.com/yungbote/modulegate-backend/internal/http/response"
	"github.com/yungbote/modulegate-backend/internal/modules/progression"
	"github.com/yungbote/modulegate-backend/internal/platform/ctxutil"
	"github.com/yungbote/modulegate-backend/internal/platform/logger"
	"github.com/yungbote/modulegate-backend/internal/services"
)

type SessionHandler struct {
	log      *logger.Logger
	sessions services.ProgressionService
}

func NewSessionHandler(log *logger.Logger, sessions services.ProgressionService) *SessionHandler {
	return &SessionHandler{log: log.With("handler", "SessionHandler"), sessions: sessions}
}

type sessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	progression.ActionResult
}

type selectAnswerRequest struct {
	QuestionIndex *int `json:"question_index" binding:"required"`
	OptionIndex   *int `json:"option_index" binding:"required"`
}

// POST /api/modules/:id/sessions
func (h *SessionHandler) Open(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_module_id", err)
		return
	}
	sess, err := h.sessions.OpenSession(c.Request.Context(), middleware.UserID(c), moduleID)
	if err != nil {
		h.logFailure(c, "open", err)
		response.RespondWithError(c, err)
		return
	}
	response.RespondOK(c, sessionResponse{
		SessionID:    sess.ID,
		ActionResult: progression.ActionResult{Snapshot: sess.Handle.Snapshot()},
	})
}

// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	response.RespondOK(c, sessionResponse{
		SessionID:    sess.ID,
		ActionResult: progression.ActionResult{Snapshot: sess.Handle.Snapshot()},
	})
}

// POST /api/sessions/:id/answers
func (h *SessionHandler) SelectAnswer(c *gin.Context) {
	var req selectAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.act(c, "select_answer", func(hd *progression.Handle, ctx context.Context) (progression.ActionResult, error) {
		return hd.SelectAnswer(ctx, *req.QuestionIndex, *req.OptionIndex)
	})
}

// POST /api/sessions/:id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	h.act(c, "submit", (*progression.Handle).SubmitQuiz)
}

// POST /api/sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	h.act(c, "reset", (*progression.Handle).ResetQuiz)
}

// POST /api/sessions/:id/advance
func (h *SessionHandler) Advance(c *gin.Context) {
	h.act(c, "advance", (*progression.Handle).Advance)
}

// POST /api/sessions/:id/retreat
func (h *SessionHandler) Retreat(c *gin.Context) {
	h.act(c, "retreat", (*progression.Handle).Retreat)
}

// DELETE /api/sessions/:id
func (h *SessionHandler) Close(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	if err := h.sessions.CloseSession(c.Request.Context(), middleware.UserID(c), sessionID); err != nil {
		h.logFailure(c, "close", err)
		response.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) session(c *gin.Context) (*services.Session, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return nil, false
	}
	sess, err := h.sessions.GetSession(c.Request.Context(), middleware.UserID(c), sessionID)
	if err != nil {
		response.RespondWithError(c, err)
		return nil, false
	}
	return sess, true
}

// act runs one engine action. Failed actions still return the snapshot so
// the client can render the preserved local state.
func (h *SessionHandler) act(c *gin.Context, action string, fn func(*progression.Handle, context.Context) (progression.ActionResult, error)) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	res, err := fn(sess.Handle, c.Request.Context())
	if err != nil {
		h.logFailure(c, action, err)
		status, code, retryable := response.Classify(err)
		c.JSON(status, gin.H{
			"session_id": sess.ID,
			"snapshot":   sess.Handle.Snapshot(),
			"error": response.APIError{
				Message:   err.Error(),
				Code:      code,
				Retryable: retryable,
			},
		})
		return
	}
	response.RespondOK(c, sessionResponse{SessionID: sess.ID, ActionResult: res})
}

func (h *SessionHandler) logFailure(c *gin.Context, action string, err error) {
	fields := append([]interface{}{"action", action, "error", err}, ctxutil.LogFields(c.Request.Context())...)
	var pe *progression.Error
	if errors.As(err, &pe) && pe.Kind == progression.KindPersistenceFailure {
		h.log.Warn("session action failed", fields...)
		return
	}
	h.log.Debug("session action rejected", fields...)
}
