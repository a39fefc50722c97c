package router

import (
	"net/http"

	"WebChat/middleware/security"
	"WebChat/service/chat"
	"WebChat/tools/errs"

	"github.com/gin-gonic/gin"
)

func (a *API) syncMessages(c *gin.Context) {
	var req chat.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortCode(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	user := security.CurrentUser(c)
	resp, err := a.sync.Sync(c.Request.Context(), user.ID, req)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
