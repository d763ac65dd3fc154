package routes

import (
	"eventhire_backend/internal/logger"
	"eventhire_backend/ws"

	"github.com/gin-gonic/gin"
)

func SetupWebSocketRoutes(r *gin.Engine, wsHandler *ws.Handler, mw Middlewares) {
	r.GET("/ws", mw.Auth, wsHandler.ServeWS)
	logger.Info("WebSocket route /ws registered")
}
