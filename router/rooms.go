package router

import (
	"net/http"
	"strconv"

	"WebChat/middleware/security"
	"WebChat/service/storage"
	"WebChat/tools/errs"

	"github.com/gin-gonic/gin"
)

func (a *API) createDM(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Query("target_user_id"), 10, 64)
	if err != nil {
		abortCode(c, errs.ErrArgs.WithDetail("invalid target_user_id"))
		return
	}
	user := security.CurrentUser(c)
	ctx := c.Request.Context()

	target, err := a.store.GetUserByID(ctx, targetID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if target == nil {
		abortCode(c, errs.ErrNotFound.WithDetail("user not found"))
		return
	}

	// reuse the existing DM when one already links these two users
	existing, err := a.store.FindDirectRoom(ctx, user.ID, targetID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusOK, existing)
		return
	}

	room, err := a.store.CreateDirectRoom(ctx, user.ID, targetID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

type createGroupRequest struct {
	Name      string  `json:"name"`
	MemberIDs []int64 `json:"member_ids"`
}

func (a *API) createGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortCode(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	user := security.CurrentUser(c)
	room, err := a.store.CreateGroupRoom(c.Request.Context(), user.ID, req.Name, req.MemberIDs)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (a *API) listRooms(c *gin.Context) {
	user := security.CurrentUser(c)
	rooms, err := a.store.ListUserRooms(c.Request.Context(), user.ID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if rooms == nil {
		rooms = []storage.Room{}
	}
	c.JSON(http.StatusOK, rooms)
}

func (a *API) getRoom(c *gin.Context) {
	roomID, ok := paramInt64(c, "room_id")
	if !ok {
		return
	}
	user := security.CurrentUser(c)
	room, err := a.store.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if room == nil {
		abortCode(c, errs.ErrNotFound.WithDetail("room not found"))
		return
	}
	isMember := false
	for _, m := range room.Members {
		if m.UserID == user.ID {
			isMember = true
			break
		}
	}
	if !isMember {
		abortCode(c, errs.ErrAccessDenied.WithDetail("not a member of this room"))
		return
	}
	c.JSON(http.StatusOK, room)
}
