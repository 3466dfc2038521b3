package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vancomm/gridsweeper/internal/middleware"
	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/session"
)

// ConnectWS streams the game over a websocket. Every text message is a
// batch of commands; the reply is the session after applying them, or an
// {"error": ...} object if the batch was rejected.
func (g GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	playerID := middleware.PlayerID(r.Context())

	s, err := g.games.Fetch(r.Context(), id, playerID)
	if err != nil {
		g.fail(w, "unable to fetch game session", err)
		return
	}

	c, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("unable to upgrade connection", slog.Any("error", err))
		return
	}
	defer c.Close()

	logger := g.logger.With(slog.Int64("game_session_id", id))

	if err := c.WriteJSON(NewGameSessionDTO(s, mines.NoChange)); err != nil {
		logger.Warn("write", slog.Any("error", err))
		return
	}

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read", slog.Any("error", err))
			}
			return
		}
		if mt != websocket.TextMessage {
			_ = c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "text only"))
			return
		}

		var reply any
		cmds, err := session.ParseBatch(string(message))
		if err == nil {
			var res mines.Result
			s, res, err = g.games.Apply(r.Context(), id, playerID, cmds...)
			if err == nil {
				reply = NewGameSessionDTO(s, res)
			}
		}
		if err != nil {
			if statusOf(err) == http.StatusInternalServerError {
				logger.Error("unable to apply commands", slog.Any("error", err))
				return
			}
			reply = wrapError(err)
		}

		if err := c.WriteJSON(reply); err != nil {
			logger.Warn("write", slog.Any("error", err))
			return
		}
	}
}
