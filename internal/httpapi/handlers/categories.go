package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/store"
)

func (h *Handler) ListCategories(c *gin.Context) {
	if !h.roomExists(c) {
		return
	}
	cats, err := h.Store.ListCategories(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"categories": cats})
}

type categoryReq struct {
	Category string `json:"category"`
}

func (h *Handler) AddCategory(c *gin.Context) {
	if !h.roomExists(c) {
		return
	}
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	name := strings.TrimSpace(req.Category)
	if name == "" {
		common.Fail(c, http.StatusBadRequest, 10070, "category required")
		return
	}
	cats, err := h.Store.AddCategory(c.Request.Context(), c.Param("id"), name)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"categories": cats})
}

func (h *Handler) RemoveCategory(c *gin.Context) {
	if !h.roomExists(c) {
		return
	}
	name := strings.TrimSpace(c.Query("category"))
	if name == "" {
		common.Fail(c, http.StatusBadRequest, 10070, "category required")
		return
	}
	cats, err := h.Store.RemoveCategory(c.Request.Context(), c.Param("id"), name)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
		return
	}
	common.OK(c, gin.H{"categories": cats})
}

func (h *Handler) roomExists(c *gin.Context) bool {
	_, err := h.Store.GetRoom(c.Request.Context(), c.Param("id"))
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrNotFound) {
		common.Fail(c, http.StatusNotFound, 40402, "room not found")
	} else {
		common.Fail(c, http.StatusInternalServerError, 20001, "store error")
	}
	return false
}
