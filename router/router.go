// Package router wires the HTTP surface: auth, profile, rooms, messages,
// friends, sync, the websocket endpoint, and operational routes.
package router

import (
	"net/http"

	"WebChat/metrics"
	"WebChat/middleware/security"
	"WebChat/service/auth"
	"WebChat/service/chat"
	"WebChat/service/storage"
	"WebChat/tools/errs"

	"github.com/gin-gonic/gin"
)

type API struct {
	store    *storage.Store
	presence storage.PresenceStore
	authMgr  *auth.Manager
	ws       *chat.Handler
	disp     *chat.Dispatcher
	sync     *chat.SyncReconciler
}

func New(store *storage.Store, presence storage.PresenceStore, authMgr *auth.Manager,
	ws *chat.Handler, disp *chat.Dispatcher, sync *chat.SyncReconciler) *API {
	return &API{
		store:    store,
		presence: presence,
		authMgr:  authMgr,
		ws:       ws,
		disp:     disp,
		sync:     sync,
	}
}

func (a *API) Register(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "WebChat API is running"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", metrics.Handler())
	r.GET("/ws/chat", a.ws.HandleWS)

	authed := security.Middleware(a.authMgr, a.store)

	ar := r.Group("/auth")
	{
		ar.POST("/register", a.register)
		ar.POST("/login", a.login)
		ar.POST("/logout", authed, a.logout)
		ar.GET("/me", authed, a.me)
	}

	api := r.Group("/api", authed)
	{
		api.GET("/users/me", a.me)
		api.GET("/users/:user_id", a.getUser)
		api.GET("/users", a.listUsers)
		api.PUT("/users/me/profile", a.updateProfile)

		api.GET("/messages", a.listMessages)
		api.POST("/messages/:message_id/read", a.markRead)
		api.GET("/messages/:message_id/read-receipts", a.listReadReceipts)

		api.POST("/friends/request/:user_id", a.sendFriendRequest)
		api.PUT("/friends/request/:request_id/:action", a.respondFriendRequest)
		api.GET("/friends/", a.listFriends)
		api.GET("/friends/requests/received", a.listReceivedRequests)
		api.GET("/friends/requests/sent", a.listSentRequests)
		api.GET("/friends/search", a.searchFriends)

		api.POST("/sync", a.syncMessages)
	}

	rooms := r.Group("/rooms", authed)
	{
		rooms.POST("/dm", a.createDM)
		rooms.POST("/group", a.createGroup)
		rooms.GET("/", a.listRooms)
		rooms.GET("/:room_id", a.getRoom)
	}

	msgs := r.Group("/messages", authed)
	{
		msgs.PUT("/:message_id", a.editMessage)
	}
}

// abortCode maps a CodeError onto an HTTP status.
func abortCode(c *gin.Context, ce *errs.CodeError) {
	status := http.StatusBadRequest
	switch ce.Code {
	case errs.CodeTokenInvalid, errs.CodeTokenExpired, errs.CodeBadCredentials:
		status = http.StatusUnauthorized
	case errs.CodeAccessDenied:
		status = http.StatusForbidden
	case errs.CodeNotFound:
		status = http.StatusNotFound
	case errs.CodeInternal:
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, ce)
}

func abortInternal(c *gin.Context, err error) {
	if ce, ok := errs.AsCode(err); ok {
		abortCode(c, ce)
		return
	}
	abortCode(c, errs.ErrInternal)
}
