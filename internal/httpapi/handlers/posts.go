package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/httpapi/middleware"
	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
	"github.com/chronicle-hq/chronicle/internal/store/rabbitmq"
)

func (h *Handler) ListPosts(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := h.Store.GetRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	posts, err := h.Store.ListPosts(c.Request.Context(), roomID, 100)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"posts": posts})
}

type createPostReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

func (h *Handler) CreatePost(c *gin.Context) {
	roomID := c.Param("id")
	var req createPostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if len([]rune(req.Title)) < 2 || len([]rune(req.Content)) < 2 {
		common.Fail(c, http.StatusBadRequest, 10050, "title and content must be at least 2 characters")
		return
	}
	if _, err := h.Store.GetRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}

	author := strings.TrimSpace(req.Author)
	if u := middleware.CurrentUser(c); u != nil {
		author = u.Name
	}
	if author == "" {
		author = "anon"
	}

	post := &models.Post{
		ID:        common.NewID("post"),
		RoomID:    roomID,
		Title:     req.Title,
		Content:   req.Content,
		Author:    author,
		CreatedAt: time.Now(),
	}
	if err := h.Store.CreatePost(c.Request.Context(), post); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}

	h.publishPostCreated(c, post)
	common.OK(c, gin.H{"post": post})
}

// publishPostCreated fans out the room event. A dead broker never fails the
// request.
func (h *Handler) publishPostCreated(c *gin.Context, post *models.Post) {
	if h.Events == nil {
		return
	}
	ev := rabbitmq.RoomEvent{
		Kind:      rabbitmq.KindPostCreated,
		RoomID:    post.RoomID,
		PostID:    post.ID,
		PostTitle: post.Title,
		Author:    post.Author,
		At:        time.Now(),
	}
	if err := h.Events.PublishRoomEvent(c.Request.Context(), ev); err != nil {
		log.Printf("publish room event failed room=%s post=%s err=%v", post.RoomID, post.ID, err)
	}
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.Store.GetPost(c.Request.Context(), c.Param("id"), c.Param("postId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "post not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"post": post})
}

func (h *Handler) IncrementPostViews(c *gin.Context) {
	err := h.Store.IncrementPostViews(c.Request.Context(), c.Param("id"), c.Param("postId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "post not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"incremented": true})
}
