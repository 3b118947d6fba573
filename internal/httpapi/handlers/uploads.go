package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/uploads"
)

// 20 MiB upload cap
const maxUploadBytes = 20 << 20

type signUploadReq struct {
	Filename string `json:"filename"`
}

func (h *Handler) SignUpload(c *gin.Context) {
	var req signUploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	uploadURL, fileURL, err := h.Uploads.Sign(req.Filename)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20020, "failed to sign upload")
		return
	}
	common.OK(c, gin.H{"upload_url": uploadURL, "file_url": fileURL})
}

func (h *Handler) PutUpload(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		common.Fail(c, http.StatusBadRequest, 10090, "token required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes+1))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10091, "failed to read body")
		return
	}
	if len(body) > maxUploadBytes {
		common.Fail(c, http.StatusRequestEntityTooLarge, 10092, "upload too large")
		return
	}
	fileURL, err := h.Uploads.Put(token, body)
	if err != nil {
		if errors.Is(err, uploads.ErrInvalidToken) {
			common.Fail(c, http.StatusUnauthorized, 40101, "invalid or expired upload token")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20021, "failed to store upload")
		return
	}
	common.OK(c, gin.H{"file_url": fileURL})
}
