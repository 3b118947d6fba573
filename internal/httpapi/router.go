package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-hq/chronicle/internal/ai"
	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/config"
	"github.com/chronicle-hq/chronicle/internal/httpapi/handlers"
	"github.com/chronicle-hq/chronicle/internal/httpapi/middleware"
	"github.com/chronicle-hq/chronicle/internal/store"
	"github.com/chronicle-hq/chronicle/internal/store/rabbitmq"
	"github.com/chronicle-hq/chronicle/internal/store/redisstore"
)

func NewRouter(st store.Store, cfg config.Config, provider ai.Provider, presence *redisstore.Store, events *rabbitmq.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())
	r.Use(middleware.Session(st))

	h := handlers.NewHandler(st, cfg, provider, presence, events)

	r.GET("/ping", h.Ping)

	// auth
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/signin", h.Signin)
	r.POST("/auth/signout", h.Signout)
	r.GET("/auth/me", h.Me)

	// rooms
	r.GET("/rooms", h.ListRooms)
	r.POST("/rooms", h.CreateRoom)
	r.GET("/rooms/:id", h.GetRoom)
	r.GET("/rooms/:id/online", h.RoomOnline)
	r.POST("/rooms/:id/online", h.MarkOnline)

	// chat
	r.GET("/rooms/:id/messages", h.ListMessages)
	r.POST("/rooms/:id/messages", h.AppendMessage)

	// category presets
	r.GET("/rooms/:id/categories", h.ListCategories)
	r.POST("/rooms/:id/categories", h.AddCategory)
	r.DELETE("/rooms/:id/categories", h.RemoveCategory)

	// posts
	r.GET("/rooms/:id/posts", h.ListPosts)
	r.POST("/rooms/:id/posts", h.CreatePost)
	r.GET("/rooms/:id/posts/:postId", h.GetPost)
	r.POST("/rooms/:id/posts/:postId/views", h.IncrementPostViews)
	r.POST("/rooms/:id/posts/:postId/analyze", h.AnalyzePost)

	// comments
	r.GET("/rooms/:id/posts/:postId/comments", h.ListComments)
	r.POST("/rooms/:id/posts/:postId/comments", h.CreateComment)
	r.PUT("/rooms/:id/posts/:postId/comments/:commentId", h.UpdateComment)
	r.DELETE("/rooms/:id/posts/:postId/comments/:commentId", h.DeleteComment)
	r.POST("/rooms/:id/posts/:postId/comments/:commentId/like", h.LikeComment)

	// AI flows
	r.POST("/rooms/:id/ai/generate-posts", h.GeneratePosts)
	r.POST("/rooms/:id/ai/confirm", h.ConfirmPost)
	r.POST("/rooms/:id/ai/record-sync", h.RecordSync)
	r.POST("/rooms/:id/quality-analysis", h.QualityAnalysis)

	// uploads
	r.POST("/uploads/sign", h.SignUpload)
	r.PUT("/uploads/put", h.PutUpload)
	r.Static("/uploads", cfg.UploadDir)

	return r
}
