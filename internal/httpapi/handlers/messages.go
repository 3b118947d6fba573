package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/httpapi/middleware"
	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

const defaultMessagePage = 50

// ListMessages pages a room's chat by sequence number. Without ?after it
// returns the newest page; with ?after=N it returns messages with Seq > N,
// oldest first. next_cursor is the Seq to pass on the next call.
func (h *Handler) ListMessages(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := h.Store.GetRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}

	var after uint64
	if v := c.Query("after"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, 10040, "invalid after cursor")
			return
		}
		after = n
	}
	limit := defaultMessagePage
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			common.Fail(c, http.StatusBadRequest, 10041, "limit must be 1..200")
			return
		}
		limit = n
	}

	msgs, err := h.Store.ListMessages(c.Request.Context(), roomID, after, limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	var next uint64
	if len(msgs) > 0 {
		next = msgs[len(msgs)-1].Seq
	} else {
		next = after
	}
	common.OK(c, gin.H{"messages": msgs, "next_cursor": next})
}

type appendMessageReq struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

func (h *Handler) AppendMessage(c *gin.Context) {
	roomID := c.Param("id")
	var req appendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		common.Fail(c, http.StatusBadRequest, 10042, "text required")
		return
	}

	author := strings.TrimSpace(req.Author)
	user := middleware.CurrentUser(c)
	if user != nil {
		author = user.Name
	}
	if author == "" {
		author = "anon"
	}

	id, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20004, "failed to allocate id")
		return
	}
	msg := &models.Message{
		ID:        id,
		RoomID:    roomID,
		Kind:      models.KindUser,
		Author:    author,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	if err := h.Store.AppendMessage(c.Request.Context(), msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}

	if user != nil {
		if err := h.Presence.SetOnline(c.Request.Context(), roomID, user.ID); err != nil {
			log.Printf("presence update failed room=%s user=%s err=%v", roomID, user.ID, err)
		}
	}
	common.OK(c, gin.H{"message": msg})
}
