package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/auth"
	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/httpapi/middleware"
	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const sessionTTL = 7 * 24 * time.Hour

type signupReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if !emailRe.MatchString(req.Email) {
		common.Fail(c, http.StatusBadRequest, 10002, "invalid email")
		return
	}
	if len(req.Password) < 6 {
		common.Fail(c, http.StatusBadRequest, 10003, "password must be at least 6 characters")
		return
	}
	if req.Name == "" {
		req.Name = strings.SplitN(req.Email, "@", 2)[0]
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	user := &models.User{
		ID:           common.NewID("usr"),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := h.Store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			common.Fail(c, http.StatusConflict, 10004, "email already registered")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}

	if err := h.startSession(c, user.ID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to create session")
		return
	}
	common.OK(c, gin.H{"user": user})
}

type signinReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signin(c *gin.Context) {
	var req signinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	user, err := h.Store.GetUserByEmail(c.Request.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.Fail(c, http.StatusUnauthorized, 10010, "invalid email or password")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 10010, "invalid email or password")
		return
	}

	if err := h.startSession(c, user.ID); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to create session")
		return
	}
	common.OK(c, gin.H{"user": user})
}

func (h *Handler) Signout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
		_ = h.Store.DeleteSession(c.Request.Context(), token)
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	common.OK(c, gin.H{"signed_out": true})
}

// Me reports the signed-in user, or user null for anonymous callers. It is not
// an error to ask while signed out.
func (h *Handler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		common.OK(c, gin.H{"user": nil})
		return
	}
	common.OK(c, gin.H{"user": user})
}

func (h *Handler) startSession(c *gin.Context, userID string) error {
	token := common.NewToken()
	if err := h.Store.CreateSession(c.Request.Context(), &models.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: time.Now(),
	}); err != nil {
		return err
	}
	c.SetCookie(middleware.SessionCookie, token, int(sessionTTL.Seconds()), "/", "", false, true)
	return nil
}
