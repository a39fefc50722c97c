package router

import (
	"net/http"

	"WebChat/middleware/security"
	"WebChat/service/storage"
	"WebChat/tools/errs"

	"github.com/gin-gonic/gin"
)

func (a *API) sendFriendRequest(c *gin.Context) {
	targetID, ok := paramInt64(c, "user_id")
	if !ok {
		return
	}
	user := security.CurrentUser(c)
	if targetID == user.ID {
		abortCode(c, errs.ErrArgs.WithDetail("cannot send friend request to yourself"))
		return
	}
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

	existing, err := a.store.FindRelation(ctx, user.ID, targetID, false)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if existing != nil {
		switch {
		case existing.Status == storage.FriendStatusAccepted:
			abortCode(c, errs.ErrDuplicate.WithDetail("already friends"))
		case existing.SenderID == user.ID:
			abortCode(c, errs.ErrDuplicate.WithDetail("friend request already sent"))
		default:
			abortCode(c, errs.ErrDuplicate.WithDetail("this user has already sent you a friend request"))
		}
		return
	}

	fr, err := a.store.CreateFriendRequest(ctx, user.ID, targetID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, fr)
}

func (a *API) respondFriendRequest(c *gin.Context) {
	requestID, ok := paramInt64(c, "request_id")
	if !ok {
		return
	}
	var status string
	switch c.Param("action") {
	case "accept":
		status = storage.FriendStatusAccepted
	case "reject":
		status = storage.FriendStatusRejected
	default:
		abortCode(c, errs.ErrArgs.WithDetail("action must be accept or reject"))
		return
	}
	user := security.CurrentUser(c)
	ctx := c.Request.Context()

	fr, err := a.store.GetFriendRequest(ctx, requestID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if fr == nil {
		abortCode(c, errs.ErrNotFound.WithDetail("friend request not found"))
		return
	}
	if fr.ReceiverID != user.ID {
		abortCode(c, errs.ErrAccessDenied.WithDetail("not authorized to respond to this request"))
		return
	}
	if fr.Status != storage.FriendStatusPending {
		abortCode(c, errs.ErrArgs.WithDetail("request already handled"))
		return
	}

	updated, err := a.store.UpdateFriendRequestStatus(ctx, requestID, status)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *API) listFriends(c *gin.Context) {
	user := security.CurrentUser(c)
	friends, err := a.store.ListFriends(c.Request.Context(), user.ID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	out := make([]*storage.User, 0, len(friends))
	for i := range friends {
		out = append(out, a.withLiveLastSeen(c, &friends[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) listReceivedRequests(c *gin.Context) {
	user := security.CurrentUser(c)
	reqs, err := a.store.ListReceivedRequests(c.Request.Context(), user.ID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if reqs == nil {
		reqs = []storage.FriendRequest{}
	}
	c.JSON(http.StatusOK, reqs)
}

func (a *API) listSentRequests(c *gin.Context) {
	user := security.CurrentUser(c)
	reqs, err := a.store.ListSentRequests(c.Request.Context(), user.ID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if reqs == nil {
		reqs = []storage.FriendRequest{}
	}
	c.JSON(http.StatusOK, reqs)
}

type searchResult struct {
	storage.User
	FriendshipStatus string `json:"friendship_status"`
}

// searchFriends is a directory search annotated with the relationship
// between the caller and each hit.
func (a *API) searchFriends(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		abortCode(c, errs.ErrArgs.WithDetail("q is required"))
		return
	}
	user := security.CurrentUser(c)
	ctx := c.Request.Context()

	users, err := a.store.SearchUsers(ctx, q, user.ID, 0, 20)
	if err != nil {
		abortInternal(c, err)
		return
	}

	out := make([]searchResult, 0, len(users))
	for i := range users {
		rel, err := a.store.FindRelation(ctx, user.ID, users[i].ID, false)
		if err != nil {
			abortInternal(c, err)
			return
		}
		status := storage.FriendshipNone
		if rel != nil {
			switch {
			case rel.Status == storage.FriendStatusAccepted:
				status = storage.FriendshipFriend
			case rel.SenderID == user.ID:
				status = storage.FriendshipPendingSent
			default:
				status = storage.FriendshipPendingReceived
			}
		}
		out = append(out, searchResult{User: users[i], FriendshipStatus: status})
	}
	c.JSON(http.StatusOK, out)
}
