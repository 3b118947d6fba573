package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/httpapi/middleware"
	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

// ListComments returns every comment on the post, soft-deleted ones included
// so reply chains stay intact; their content and author are masked.
func (h *Handler) ListComments(c *gin.Context) {
	if !h.postExists(c) {
		return
	}
	comments, err := h.Store.ListComments(c.Request.Context(), c.Param("postId"))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	for i := range comments {
		if comments[i].IsDeleted {
			comments[i].Content = "[deleted]"
			comments[i].Author = ""
		}
	}
	common.OK(c, gin.H{"comments": comments})
}

type createCommentReq struct {
	Content  string  `json:"content"`
	Author   string  `json:"author"`
	ParentID *string `json:"parent_id"`
}

func (h *Handler) CreateComment(c *gin.Context) {
	if !h.postExists(c) {
		return
	}
	var req createCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		common.Fail(c, http.StatusBadRequest, 10060, "content required")
		return
	}
	if req.ParentID != nil {
		if _, err := h.Store.GetComment(c.Request.Context(), c.Param("postId"), *req.ParentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				common.Fail(c, http.StatusNotFound, 40404, "parent comment not found")
				return
			}
			common.Fail(c, http.StatusInternalServerError, 20001, "store error")
			return
		}
	}

	author := strings.TrimSpace(req.Author)
	if u := middleware.CurrentUser(c); u != nil {
		author = u.Name
	}
	if author == "" {
		author = "anon"
	}

	comment := &models.Comment{
		ID:        common.NewID("cmt"),
		PostID:    c.Param("postId"),
		RoomID:    c.Param("id"),
		ParentID:  req.ParentID,
		Content:   req.Content,
		Author:    author,
		CreatedAt: time.Now(),
	}
	if err := h.Store.CreateComment(c.Request.Context(), comment); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"comment": comment})
}

type updateCommentReq struct {
	Content string `json:"content"`
}

func (h *Handler) UpdateComment(c *gin.Context) {
	var req updateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		common.Fail(c, http.StatusBadRequest, 10060, "content required")
		return
	}
	comment, err := h.Store.UpdateComment(c.Request.Context(), c.Param("postId"), c.Param("commentId"), req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "comment not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"comment": comment})
}

func (h *Handler) DeleteComment(c *gin.Context) {
	comment, err := h.Store.SoftDeleteComment(c.Request.Context(), c.Param("postId"), c.Param("commentId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "comment not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"deleted": true, "comment_id": comment.ID})
}

func (h *Handler) LikeComment(c *gin.Context) {
	comment, err := h.Store.LikeComment(c.Request.Context(), c.Param("postId"), c.Param("commentId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40404, "comment not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"likes": comment.Likes})
}

func (h *Handler) postExists(c *gin.Context) bool {
	_, err := h.Store.GetPost(c.Request.Context(), c.Param("id"), c.Param("postId"))
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrNotFound) {
		common.Fail(c, http.StatusNotFound, 40403, "post not found")
	} else {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
	}
	return false
}
