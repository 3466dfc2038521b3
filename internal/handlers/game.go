package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vancomm/gridsweeper/internal/config"
	"github.com/vancomm/gridsweeper/internal/middleware"
	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/session"
)

const maxBatchBytes = 64 << 10

type GameHandler struct {
	logger *slog.Logger
	games  *session.Service
	ws     *config.WebSocket
}

func NewGameHandler(
	logger *slog.Logger,
	games *session.Service,
	ws *config.WebSocket,
) *GameHandler {
	return &GameHandler{
		logger: logger,
		games:  games,
		ws:     ws,
	}
}

// statusOf maps service errors to HTTP statuses. Anything unknown is a 500.
func statusOf(err error) int {
	var (
		paramsErr *mines.ParamsError
		batchErr  *session.BatchError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &paramsErr), errors.As(err, &batchErr),
		errors.Is(err, mines.ErrOutOfBounds), errors.Is(err, session.ErrBadMove):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (g GameHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		internalError(w, g.logger, msg, err)
		return
	}
	sendErrorOrLog(w, g.logger, status, err)
}

func (g GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	params, err := ParseNewGameDTO(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	s, err := g.games.Start(r.Context(), params, middleware.PlayerID(r.Context()))
	if err != nil {
		g.fail(w, "unable to start a game", err)
		return
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s, mines.Changed))
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s, err := g.games.Fetch(r.Context(), id, middleware.PlayerID(r.Context()))
	if err != nil {
		g.fail(w, "unable to fetch game session", err)
		return
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s, mines.NoChange))
}

func (g GameHandler) apply(w http.ResponseWriter, r *http.Request, cmds ...session.Command) {
	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s, res, err := g.games.Apply(r.Context(), id, middleware.PlayerID(r.Context()), cmds...)
	if err != nil {
		g.fail(w, "unable to apply move", err)
		return
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s, res))
}

// MakeAMove handles ?move=open|flag|chord&row=&col=. Moves that leave the
// board as it was answer 200 with "changed": false.
func (g GameHandler) MakeAMove(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	move, err := session.ParseMove(query.Get("move"))
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	cmd := session.Command{Move: move}
	if move != session.Forfeit {
		pos, err := ParsePosition(query)
		if err != nil {
			sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
			return
		}
		cmd.Row, cmd.Col = pos.Row, pos.Col
	}

	g.apply(w, r, cmd)
}

func (g GameHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	g.apply(w, r, session.Command{Move: session.Forfeit})
}

// Batch applies the newline separated commands in the request body in one
// go, see [session.ParseCommand] for the syntax.
func (g GameHandler) Batch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusRequestEntityTooLarge, err)
		return
	}

	cmds, err := session.ParseBatch(string(body))
	if err != nil {
		sendErrorOrLog(w, g.logger, http.StatusBadRequest, err)
		return
	}

	g.apply(w, r, cmds...)
}
