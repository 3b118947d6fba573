package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/httpapi/middleware"
	"github.com/chronicle-hq/chronicle/internal/pipeline"
	"github.com/chronicle-hq/chronicle/internal/store"
)

// pipelineUser resolves the identity the sync cursor is keyed by: the session
// user's name, else a request-supplied one.
func pipelineUser(c *gin.Context, supplied string) string {
	if u := middleware.CurrentUser(c); u != nil {
		return u.Name
	}
	return strings.TrimSpace(supplied)
}

type generateReq struct {
	User string `json:"user"`
}

func (h *Handler) GeneratePosts(c *gin.Context) {
	if !h.roomExists(c) {
		return
	}
	var req generateReq
	_ = c.ShouldBindJSON(&req) // body is optional for signed-in callers
	userID := pipelineUser(c, req.User)
	if userID == "" {
		common.Fail(c, http.StatusBadRequest, 10080, "user required")
		return
	}

	preview, err := h.Pipeline.GeneratePreview(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNoMessages):
			common.Fail(c, http.StatusBadRequest, 41001, "no messages from this user in the room")
		case errors.Is(err, pipeline.ErrNoNewMessages):
			common.Fail(c, http.StatusBadRequest, 41002, "no new messages since last sync")
		default:
			common.Fail(c, http.StatusBadGateway, 50020, fmt.Sprintf("ai pipeline failed: %v", err))
		}
		return
	}
	common.OK(c, preview)
}

type confirmReq struct {
	User    string `json:"user"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ConfirmPost persists a reviewed draft and advances the sync cursor.
func (h *Handler) ConfirmPost(c *gin.Context) {
	if !h.roomExists(c) {
		return
	}
	var req confirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	userID := pipelineUser(c, req.User)
	if userID == "" {
		common.Fail(c, http.StatusBadRequest, 10080, "user required")
		return
	}
	if len([]rune(strings.TrimSpace(req.Title))) < 2 || len([]rune(strings.TrimSpace(req.Content))) < 2 {
		common.Fail(c, http.StatusBadRequest, 10050, "title and content must be at least 2 characters")
		return
	}

	post, err := h.Pipeline.Confirm(c.Request.Context(), c.Param("id"), userID, req.Title, req.Content)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	h.publishPostCreated(c, post)
	common.OK(c, gin.H{"post": post})
}

type recordSyncReq struct {
	User string `json:"user"`
}

func (h *Handler) RecordSync(c *gin.Context) {
	if !h.roomExists(c) {
		return
	}
	var req recordSyncReq
	_ = c.ShouldBindJSON(&req)
	userID := pipelineUser(c, req.User)
	if userID == "" {
		common.Fail(c, http.StatusBadRequest, 10080, "user required")
		return
	}
	if err := h.Pipeline.RecordSync(c.Request.Context(), c.Param("id"), userID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"synced": true})
}

func (h *Handler) AnalyzePost(c *gin.Context) {
	result, err := h.Pipeline.AnalyzePost(c.Request.Context(), c.Param("id"), c.Param("postId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "post not found")
			return
		}
		common.Fail(c, http.StatusBadGateway, 50021, fmt.Sprintf("post analysis failed: %v", err))
		return
	}
	common.OK(c, result)
}

func (h *Handler) QualityAnalysis(c *gin.Context) {
	if !h.roomExists(c) {
		return
	}
	report, postCount, err := h.Pipeline.AnalyzeRoomQuality(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pipeline.ErrNoPosts) {
			common.Fail(c, http.StatusBadRequest, 41003, "room has no posts to analyze")
			return
		}
		common.Fail(c, http.StatusBadGateway, 50022, fmt.Sprintf("quality analysis failed: %v", err))
		return
	}
	common.OK(c, gin.H{"report": report, "post_count": postCount})
}
