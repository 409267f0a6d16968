package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coralcart/storefront/internal/domain"
)

const (
	sessionCookie     = "cc_session"
	sessionContextKey = "session"
	sessionMaxAge     = 72 * 60 * 60 // seconds, matches the cart TTL
)

// SessionMiddleware resolves the visitor's session cookie into a typed
// Session value, issuing a new cookie on first contact.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetCookie(sessionCookie, id, sessionMaxAge, "/", "", false, true)
		}

		c.Set(sessionContextKey, domain.Session{
			ID:        id,
			CreatedAt: time.Now(),
		})

		c.Next()
	}
}

// GetSessionFromContext returns the typed session set by SessionMiddleware
func GetSessionFromContext(c *gin.Context) (domain.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return domain.Session{}, false
	}
	session, ok := v.(domain.Session)
	return session, ok
}
