package config

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	AllowedOrigins []string
	Upgrader       websocket.Upgrader
}

// NewWebSocket builds the upgrader. Without WS_ALLOWED_ORIGINS every origin
// is accepted.
func NewWebSocket() (*WebSocket, error) {
	var e struct {
		AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	}
	if err := ParseEnv(&e); err != nil {
		return nil, err
	}
	ws := &WebSocket{AllowedOrigins: e.AllowedOrigins}
	ws.Upgrader = websocket.Upgrader{CheckOrigin: ws.checkOrigin}
	return ws, nil
}

func (ws *WebSocket) checkOrigin(r *http.Request) bool {
	if len(ws.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(ws.AllowedOrigins, r.Header.Get("Origin"))
}
