package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/modulegate-backend/internal/http/response"
	"github.com/yungbote/modulegate-backend/internal/platform/ctxutil"
)

const HeaderUserID = "X-User-Id"

const userIDKey = "user_id"

// RequireUser reads the caller identity asserted by the upstream gateway.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingUser)
			c.Abort()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errInvalidUser)
			c.Abort()
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: id.String()})
		c.Request = c.Request.WithContext(ctx)
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser.
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
