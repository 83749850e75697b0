package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "chat_session"
	sessionContextKey = "chat_session_id"

	sessionCookieTTL = 30 * 24 * time.Hour
)

// sessionMiddleware resolves the visitor's anonymous session from the
// cookie, minting a fresh key on first contact. There are no accounts;
// the cookie is the whole identity.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(sessionCookieName)
		if err != nil || key == "" {
			key = uuid.NewString()
		}
		session, err := h.assistant.EnsureSession(c.Request.Context(), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     sessionCookieName,
			Value:    key,
			MaxAge:   int(sessionCookieTTL.Seconds()),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   gin.Mode() == gin.ReleaseMode,
		})
		c.Set(sessionContextKey, session.ID)
		c.Next()
	}
}

// sessionIDFromContext retrieves the resolved session id.
func sessionIDFromContext(c *gin.Context) (int64, bool) {
	val, ok := c.Get(sessionContextKey)
	if !ok {
		return 0, false
	}
	id, ok := val.(int64)
	return id, ok
}
