package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

const (
	SessionCookie = "session"
	userKey       = "current_user"
)

// Session resolves the session cookie to a user and stashes it in the gin
// context. A missing or stale cookie is not an error; the request proceeds
// anonymously and handlers that need an identity check for one themselves.
func Session(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}
		sess, err := st.GetSession(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		user, err := st.GetUserByID(c.Request.Context(), sess.UserID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				common.Fail(c, http.StatusInternalServerError, 50001, "store error")
				c.Abort()
				return
			}
			c.Next()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the signed-in user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// AuthRequired rejects anonymous requests. Session must run before it.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			common.Fail(c, http.StatusUnauthorized, 40100, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}
