// Package session issues anonymous session cookies that scope document
// context to one browser. The cookie carries no authority; it is only a
// random key into the document store.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// CookieName holds the anonymous session identifier.
	CookieName = "chat_session"

	contextKey = "chat_session_id"

	// cookieMaxAge outlives the store TTL so the expiring record, not
	// the cookie, decides when document context disappears.
	cookieMaxAge = 7 * 24 * 3600
)

// NewID returns a 32-hex-char random session identifier.
func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Middleware accepts a well-formed session cookie or issues a fresh one,
// and stashes the ID in the gin context for handlers.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(CookieName)
		if err != nil || !validID(id) {
			id, err = NewID()
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not establish session"})
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     CookieName,
				Value:    id,
				MaxAge:   cookieMaxAge,
				Path:     "/",
				Secure:   gin.Mode() == gin.ReleaseMode,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(contextKey, id)
		c.Next()
	}
}

// FromContext retrieves the session ID stashed by Middleware.
func FromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(contextKey)
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok
}

func validID(id string) bool {
	if len(id) != 32 {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
