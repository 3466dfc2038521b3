package app

import (
	"log/slog"
	"net/http"

	"github.com/vancomm/gridsweeper/internal/config"
	"github.com/vancomm/gridsweeper/internal/handlers"
	"github.com/vancomm/gridsweeper/internal/middleware"
)

func (a *App) loadRoutes() {
	game := handlers.NewGameHandler(a.logger, a.games, a.ws)

	a.router.HandleFunc("POST /game", game.NewGame)
	a.router.HandleFunc("GET /game/{id}", game.Fetch)
	a.router.HandleFunc("POST /game/{id}/move", game.MakeAMove)
	a.router.HandleFunc("POST /game/{id}/forfeit", game.Forfeit)
	a.router.HandleFunc("POST /game/{id}/batch", game.Batch)
	a.router.HandleFunc("GET /game/{id}/connect", game.ConnectWS)

	a.router.HandleFunc("GET /highscores", handlers.Highscores(a.logger, a.repo))

	auth := handlers.NewAuth(a.logger, a.repo, a.cookies)

	a.router.HandleFunc("GET /healthz", handlers.Health)
	a.router.HandleFunc("GET /status", auth.Status)
	a.router.HandleFunc("POST /register", auth.Register)
	a.router.HandleFunc("POST /login", auth.Login)
	a.router.HandleFunc("POST /logout", auth.Logout)
}

// wrap puts the shared middleware around h. Browsers are held to the same
// origins as websocket upgrades.
func wrap(h http.Handler, logger *slog.Logger, cookies *config.Cookies, ws *config.WebSocket) http.Handler {
	return middleware.Wrap(
		h,
		middleware.Auth(logger, cookies),
		middleware.Cors(ws.AllowedOrigins...),
		middleware.Logging(logger),
	)
}
