package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tandem-server/middleware"
	"tandem-server/presence"
)

const presenceReadLimit = 512

type PresenceHandler struct {
	hub      *presence.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewPresenceHandler(hub *presence.Hub, allowedOrigins []string, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// Connect upgrades the request to a websocket and keeps the caller online
// for as long as the connection lives. Client messages only count as
// activity; their content is ignored.
func (h *PresenceHandler) Connect(w http.ResponseWriter, r *http.Request) {
	accountID, ok := callerID(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Presence upgrade failed", zap.String("account_id", accountID), zap.Error(err))
		return
	}

	c := h.hub.Add(accountID, conn)
	defer h.hub.Remove(c)

	conn.SetReadLimit(presenceReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(presence.PongWait))
	conn.SetPongHandler(func(string) error {
		c.Touch()
		return conn.SetReadDeadline(time.Now().Add(presence.PongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Presence connection closed", zap.String("account_id", accountID), zap.Error(err))
			}
			return
		}
		c.Touch()
		_ = conn.SetReadDeadline(time.Now().Add(presence.PongWait))
	}
}
