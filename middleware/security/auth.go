package security

import (
	"context"
	"net/http"
	"strings"
	"time"

	"WebChat/service/auth"
	"WebChat/service/storage"
	"WebChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// context key the downstream handlers read the resolved user from
const CtxUserKey = "currentUser"

type UserResolver interface {
	GetUserByUsername(ctx context.Context, username string) (*storage.User, error)
}

// Middleware resolves `Authorization: Bearer <token>` to a user row and
// aborts with 401 when it cannot.
func Middleware(authMgr *auth.Manager, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}
		username, err := authMgr.VerifyToken(token)
		if err != nil {
			if ce, ok := errs.AsCode(err); ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, ce)
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			}
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		user, err := users.GetUserByUsername(ctx, username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errs.ErrInternal)
			return
		}
		if user == nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}
		c.Set(CtxUserKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}

// CurrentUser pulls the resolved user out of the request context.
func CurrentUser(c *gin.Context) *storage.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*storage.User)
	return u
}
