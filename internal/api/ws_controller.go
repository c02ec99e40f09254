package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true }, // любой origin
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// PlanFeedController лента событий plan.created по WebSocket
type PlanFeedController struct {
	hub *Hub
	log *zap.Logger
}

func NewPlanFeedController(hub *Hub, log *zap.Logger) *PlanFeedController {
	return &PlanFeedController{hub: hub, log: log}
}

// ServeWS GET /api/v1/ws/plans
func (fc *PlanFeedController) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		fc.log.Warn("⚠️ Ошибка обновления WebSocket соединения", zap.Error(err))
		return
	}

	fc.hub.AddClient(conn)
	fc.log.Info("📱 Экран подключен", zap.Int("clients", fc.hub.ClientsCount()))
	defer func() {
		fc.hub.RemoveClient(conn)
		fc.log.Info("📱 Экран отключен", zap.Int("clients", fc.hub.ClientsCount()))
	}()

	// входящие сообщения не нужны, читаем только ради close/ping
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fc.log.Warn("⚠️ WebSocket ошибка", zap.Error(err))
			}
			return
		}
	}
}
