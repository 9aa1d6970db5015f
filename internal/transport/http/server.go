package http

import (
	"github.com/gin-gonic/gin"

	"legalrag/internal/bootstrap"
	"legalrag/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	chatHandler := handler.NewChatHandler(app.ChatService)
	corpusHandler := handler.NewCorpusHandler(app.IngestService)

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")

	chatGroup := v1.Group("/chat")
	chatGroup.POST("/sessions", chatHandler.CreateSession)
	chatGroup.GET("/sessions", chatHandler.ListSessions)
	chatGroup.POST("/ask", chatHandler.Ask)
	chatGroup.POST("/regenerate", chatHandler.Regenerate)
	chatGroup.GET("/history", chatHandler.GetHistory)

	corpusGroup := v1.Group("/corpus")
	corpusGroup.POST("/statutes", corpusHandler.PutStatute)

	return router
}
