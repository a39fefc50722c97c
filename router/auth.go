package router

import (
	"net/http"
	"net/mail"
	"strings"

	"WebChat/logger"
	"WebChat/middleware/security"
	"WebChat/tools/errs"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortCode(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		abortCode(c, errs.ErrArgs.WithDetail("username must be 3-50 characters"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		abortCode(c, errs.ErrArgs.WithDetail("invalid email"))
		return
	}
	if len(req.Password) < 6 {
		abortCode(c, errs.ErrArgs.WithDetail("password must be at least 6 characters"))
		return
	}

	ctx := c.Request.Context()
	if existing, err := a.store.GetUserByUsername(ctx, req.Username); err != nil {
		abortInternal(c, err)
		return
	} else if existing != nil {
		abortCode(c, errs.ErrDuplicate.WithDetail("username already registered"))
		return
	}
	if existing, err := a.store.GetUserByEmail(ctx, req.Email); err != nil {
		abortInternal(c, err)
		return
	} else if existing != nil {
		abortCode(c, errs.ErrDuplicate.WithDetail("email already registered"))
		return
	}

	hashed, err := a.authMgr.HashPassword(req.Password)
	if err != nil {
		abortInternal(c, err)
		return
	}
	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}
	user, err := a.store.CreateUser(ctx, req.Username, req.Email, hashed, displayName)
	if err != nil {
		abortInternal(c, err)
		return
	}
	logger.Infof("registered user %s (id=%d)", user.Username, user.ID)
	c.JSON(http.StatusCreated, user)
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortCode(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	user, err := a.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if user == nil || !a.authMgr.CheckPassword(user.HashedPassword, req.Password) {
		abortCode(c, errs.ErrBadCredentials)
		return
	}
	token, err := a.authMgr.IssueToken(user.Username)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// logout is client-side in a stateless token scheme; this just confirms the
// caller was authenticated.
func (a *API) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (a *API) me(c *gin.Context) {
	c.JSON(http.StatusOK, security.CurrentUser(c))
}
