package router

import (
	"net/http"
	"strconv"

	"WebChat/middleware/security"
	"WebChat/service/storage"
	"WebChat/tools/errs"

	"github.com/gin-gonic/gin"
)

func paramInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		abortCode(c, errs.ErrArgs.WithDetail("invalid "+name))
		return 0, false
	}
	return v, true
}

func queryInt(c *gin.Context, name string, def, max int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || v < 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// withLiveLastSeen overlays the presence store's last-seen timestamp when it
// is fresher than the row we loaded.
func (a *API) withLiveLastSeen(c *gin.Context, u *storage.User) *storage.User {
	if a.presence == nil || u == nil {
		return u
	}
	ls, ok, err := a.presence.LastSeen(c.Request.Context(), u.ID)
	if err == nil && ok && ls.After(u.LastSeen) {
		u.LastSeen = ls
	}
	return u
}

func (a *API) getUser(c *gin.Context) {
	id, ok := paramInt64(c, "user_id")
	if !ok {
		return
	}
	user, err := a.store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if user == nil {
		abortCode(c, errs.ErrNotFound.WithDetail("user not found"))
		return
	}
	c.JSON(http.StatusOK, a.withLiveLastSeen(c, user))
}

func (a *API) listUsers(c *gin.Context) {
	skip := queryInt(c, "skip", 0, 0)
	limit := queryInt(c, "limit", 50, 100)
	search := c.Query("search")

	users, err := a.store.SearchUsers(c.Request.Context(), search, 0, skip, limit)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if users == nil {
		users = []storage.User{}
	}
	c.JSON(http.StatusOK, users)
}

type profileUpdateRequest struct {
	DisplayName     *string `json:"display_name"`
	AvatarURL       *string `json:"avatar_url"`
	Bio             *string `json:"bio"`
	ThemePreference *string `json:"theme_preference"`
}

func (a *API) updateProfile(c *gin.Context) {
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortCode(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	user := security.CurrentUser(c)
	updated, err := a.store.UpdateProfile(c.Request.Context(), user.ID, storage.ProfileUpdate{
		DisplayName:     req.DisplayName,
		AvatarURL:       req.AvatarURL,
		Bio:             req.Bio,
		ThemePreference: req.ThemePreference,
	})
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
