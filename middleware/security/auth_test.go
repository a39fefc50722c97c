package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"WebChat/service/auth"
	"WebChat/service/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	users map[string]*storage.User
	err   error
}

func (s *stubResolver) GetUserByUsername(_ context.Context, username string) (*storage.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[username], nil
}

func newAuthedRouter(t *testing.T, resolver *stubResolver) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	authMgr := auth.NewManager("test-secret", time.Hour)
	r := gin.New()
	r.GET("/protected", Middleware(authMgr, resolver), func(c *gin.Context) {
		user := CurrentUser(c)
		require.NotNil(t, user)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	return r, authMgr
}

func do(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareResolvesUser(t *testing.T) {
	resolver := &stubResolver{users: map[string]*storage.User{
		"alice": {ID: 1, Username: "alice", IsActive: true},
	}}
	r, authMgr := newAuthedRouter(t, resolver)

	tok, err := authMgr.IssueToken("alice")
	require.NoError(t, err)

	w := do(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1}`, w.Body.String())
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	r, _ := newAuthedRouter(t, &stubResolver{})
	w := do(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsNonBearerScheme(t *testing.T) {
	r, _ := newAuthedRouter(t, &stubResolver{})
	w := do(r, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsBadToken(t *testing.T) {
	r, _ := newAuthedRouter(t, &stubResolver{})
	w := do(r, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsUnknownUser(t *testing.T) {
	r, authMgr := newAuthedRouter(t, &stubResolver{users: map[string]*storage.User{}})
	tok, err := authMgr.IssueToken("ghost")
	require.NoError(t, err)

	w := do(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsInactiveUser(t *testing.T) {
	resolver := &stubResolver{users: map[string]*storage.User{
		"bob": {ID: 2, Username: "bob", IsActive: false},
	}}
	r, authMgr := newAuthedRouter(t, resolver)
	tok, err := authMgr.IssueToken("bob")
	require.NoError(t, err)

	w := do(r, "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
