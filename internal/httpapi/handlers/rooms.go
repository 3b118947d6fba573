package handlers

import (
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/httpapi/middleware"
	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

// window for the "recently active" member list on room detail
const recentWindow = 30 * time.Minute

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "room"
	}
	if len(s) > 48 {
		s = s[:48]
	}
	return s
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Store.ListRooms(c.Request.Context(), 100)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	out := make([]gin.H, 0, len(rooms))
	for _, r := range rooms {
		n, err := h.Store.CountMessageAuthors(c.Request.Context(), r.ID)
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, 20001, "store error")
			return
		}
		out = append(out, gin.H{"room": r, "member_count": n})
	}
	common.OK(c, gin.H{"rooms": out})
}

type createRoomReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Rules       string   `json:"rules"`
	Visibility  string   `json:"visibility"`
	Starred     bool     `json:"starred"`
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if len([]rune(req.Name)) < 2 {
		common.Fail(c, http.StatusBadRequest, 10030, "room name must be at least 2 characters")
		return
	}
	if len(req.Tags) > 8 {
		common.Fail(c, http.StatusBadRequest, 10031, "at most 8 tags")
		return
	}
	vis := models.Visibility(req.Visibility)
	switch vis {
	case "":
		vis = models.VisibilityPublic
	case models.VisibilityPublic, models.VisibilityPrivate, models.VisibilityInvite:
	default:
		common.Fail(c, http.StatusBadRequest, 10032, "visibility must be public, private or invite")
		return
	}

	room := &models.Room{
		ID:          slugify(req.Name),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Tags:        req.Tags,
		Rules:       strings.TrimSpace(req.Rules),
		Visibility:  vis,
		Starred:     req.Starred,
		CreatedAt:   time.Now(),
	}
	err := h.Store.CreateRoom(c.Request.Context(), room)
	if errors.Is(err, store.ErrConflict) {
		// slug taken, retry once with a random suffix
		room.ID = room.ID + "-" + common.NewID("r")[2:8]
		err = h.Store.CreateRoom(c.Request.Context(), room)
	}
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"room": room})
}

func (h *Handler) GetRoom(c *gin.Context) {
	ctx := c.Request.Context()
	roomID := c.Param("id")
	room, err := h.Store.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}

	memberCount, err := h.Store.CountMessageAuthors(ctx, roomID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	recent, err := h.Store.RecentAuthors(ctx, roomID, time.Now().Add(-recentWindow))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}

	// viewing the room counts as presence
	if u := middleware.CurrentUser(c); u != nil {
		if err := h.Presence.SetOnline(ctx, roomID, u.ID); err != nil {
			log.Printf("presence update failed room=%s user=%s err=%v", roomID, u.ID, err)
		}
	}
	online, err := h.Presence.OnlineUsers(ctx, roomID)
	if err != nil {
		log.Printf("presence scan failed room=%s err=%v", roomID, err)
		online = nil
	}

	common.OK(c, gin.H{
		"room":         room,
		"member_count": memberCount,
		"recent_users": recent,
		"online":       online,
	})
}

// RoomOnline reports presence: with ?user=<id> a single user's status,
// otherwise the room's live list.
func (h *Handler) RoomOnline(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := h.Store.GetRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "room not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	if userID := c.Query("user"); userID != "" {
		on, err := h.Presence.IsOnline(c.Request.Context(), roomID, userID)
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, 20010, "presence unavailable")
			return
		}
		common.OK(c, gin.H{"user_id": userID, "online": on})
		return
	}
	online, err := h.Presence.OnlineUsers(c.Request.Context(), roomID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20010, "presence unavailable")
		return
	}
	common.OK(c, gin.H{"online": online})
}

// MarkOnline refreshes the caller's presence window in the room.
func (h *Handler) MarkOnline(c *gin.Context) {
	roomID := c.Param("id")
	user := middleware.CurrentUser(c)
	if user == nil {
		common.Fail(c, http.StatusUnauthorized, 40100, "authentication required")
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
	if err := h.Presence.SetOnline(c.Request.Context(), roomID, user.ID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20010, "presence unavailable")
		return
	}
	common.OK(c, gin.H{"online": true})
}
