package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/ai"
	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/config"
	"github.com/chronicle-hq/chronicle/internal/pipeline"
	"github.com/chronicle-hq/chronicle/internal/store"
	"github.com/chronicle-hq/chronicle/internal/store/rabbitmq"
	"github.com/chronicle-hq/chronicle/internal/store/redisstore"
	"github.com/chronicle-hq/chronicle/internal/uploads"
)

type Handler struct {
	Store    store.Store
	Cfg      config.Config
	Presence *redisstore.Store
	Events   *rabbitmq.Publisher
	Pipeline *pipeline.Service
	Uploads  *uploads.Service
}

// NewHandler wires the request-facing services. Events may be nil when no
// broker is configured; Presence degrades on its own when redis is down.
func NewHandler(st store.Store, cfg config.Config, provider ai.Provider, presence *redisstore.Store, events *rabbitmq.Publisher) *Handler {
	return &Handler{
		Store:    st,
		Cfg:      cfg,
		Presence: presence,
		Events:   events,
		Pipeline: pipeline.NewService(st, provider, cfg.SyncSampleSize, cfg.SummaryWindowSize),
		Uploads:  uploads.NewService(cfg.UploadDir, cfg.UploadSecret),
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"message": "pong"})
}
