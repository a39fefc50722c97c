package router

import (
	"net/http"
	"strconv"
	"time"

	"WebChat/middleware/security"
	"WebChat/service/chat"
	"WebChat/service/storage"
	"WebChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// editWindow limits how long after sending a message may still be edited.
const editWindow = 2 * time.Hour

func (a *API) listMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Query("room_id"), 10, 64)
	if err != nil {
		abortCode(c, errs.ErrArgs.WithDetail("invalid room_id"))
		return
	}
	skip := queryInt(c, "skip", 0, 0)
	limit := queryInt(c, "limit", 50, 100)

	messages, err := a.store.ListRoomMessages(c.Request.Context(), roomID, skip, limit)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if messages == nil {
		messages = []storage.MessageWithSender{}
	}
	c.JSON(http.StatusOK, messages)
}

type editMessageRequest struct {
	Content string `json:"content"`
}

func (a *API) editMessage(c *gin.Context) {
	messageID, ok := paramInt64(c, "message_id")
	if !ok {
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortCode(c, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	user := security.CurrentUser(c)
	ctx := c.Request.Context()

	msg, err := a.store.GetMessage(ctx, messageID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if msg == nil {
		abortCode(c, errs.ErrNotFound.WithDetail("message not found"))
		return
	}
	if msg.SenderID != user.ID {
		abortCode(c, errs.ErrAccessDenied.WithDetail("not authorized to edit this message"))
		return
	}
	if time.Since(msg.CreatedAt) > editWindow {
		abortCode(c, errs.ErrEditWindowClosed.WithDetail("message cannot be edited after 2 hours"))
		return
	}

	updated, err := a.store.UpdateMessageContent(ctx, messageID, req.Content)
	if err != nil {
		abortInternal(c, err)
		return
	}

	// live viewers learn about the edit immediately
	a.disp.Broadcast(updated.RoomID, chat.BuildMessageUpdated(updated), 0)
	c.JSON(http.StatusOK, updated)
}

func (a *API) markRead(c *gin.Context) {
	messageID, ok := paramInt64(c, "message_id")
	if !ok {
		return
	}
	user := security.CurrentUser(c)
	receipt, err := a.store.MarkMessageRead(c.Request.Context(), messageID, user.ID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (a *API) listReadReceipts(c *gin.Context) {
	messageID, ok := paramInt64(c, "message_id")
	if !ok {
		return
	}
	receipts, err := a.store.ListMessageReceipts(c.Request.Context(), messageID)
	if err != nil {
		abortInternal(c, err)
		return
	}
	if receipts == nil {
		receipts = []storage.ReadReceipt{}
	}
	c.JSON(http.StatusOK, receipts)
}
