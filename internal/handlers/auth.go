package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/vancomm/gridsweeper/internal/config"
	"github.com/vancomm/gridsweeper/internal/middleware"
	"github.com/vancomm/gridsweeper/internal/repository"
)

type Players interface {
	CreatePlayer(ctx context.Context, params repository.CreatePlayerParams) (*repository.Player, error)
	FetchPlayer(ctx context.Context, username string) (*repository.Player, error)
}

type Auth struct {
	logger  *slog.Logger
	players Players
	cookies *config.Cookies
	cost    int
}

func NewAuth(logger *slog.Logger, players Players, cookies *config.Cookies) *Auth {
	return &Auth{
		logger:  logger,
		players: players,
		cookies: cookies,
		cost:    bcrypt.DefaultCost,
	}
}

type PlayerInfo struct {
	PlayerId int64  `json:"player_id"`
	Username string `json:"username"`
}

type StatusDTO struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

var (
	ErrBadAuthBody        = errors.New("request body must contain url-encoded username and password")
	ErrBadPasswordTooLong = errors.New("password too long")
	ErrBadCredentials     = errors.New("wrong username or password")
)

// Status reports who is logged in and refreshes their cookies.
func (a Auth) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r.Context())
	if !ok {
		a.cookies.Clear(w)
		sendJSONOrLog(w, a.logger, &StatusDTO{LoggedIn: false})
		return
	}

	fresh := config.NewPlayerClaims(claims.PlayerId, claims.Username)
	if err := a.cookies.Issue(w, fresh); err != nil {
		internalError(w, a.logger, "unable to refresh cookies", err)
		return
	}
	sendJSONOrLog(w, a.logger, &StatusDTO{
		LoggedIn: true,
		Player:   &PlayerInfo{claims.PlayerId, claims.Username},
	})
}

func (a Auth) credentials(w http.ResponseWriter, r *http.Request) (username string, password []byte, ok bool) {
	if err := r.ParseForm(); err != nil {
		sendErrorOrLog(w, a.logger, http.StatusBadRequest, ErrBadAuthBody)
		return
	}
	username = r.PostFormValue("username")
	passwordStr := r.PostFormValue("password")
	if username == "" || passwordStr == "" {
		sendErrorOrLog(w, a.logger, http.StatusBadRequest, ErrBadAuthBody)
		return
	}
	password = []byte(passwordStr)
	if len(password) > 72 {
		sendErrorOrLog(w, a.logger, http.StatusBadRequest, ErrBadPasswordTooLong)
		return
	}
	return username, password, true
}

func (a Auth) signIn(w http.ResponseWriter, player *repository.Player) {
	claims := config.NewPlayerClaims(player.PlayerID, player.Username)
	if err := a.cookies.Issue(w, claims); err != nil {
		internalError(w, a.logger, "unable to issue cookies", err)
		return
	}
	sendJSONOrLog(w, a.logger, &StatusDTO{
		LoggedIn: true,
		Player:   &PlayerInfo{player.PlayerID, player.Username},
	})
}

func (a Auth) Register(w http.ResponseWriter, r *http.Request) {
	username, password, ok := a.credentials(w, r)
	if !ok {
		return
	}

	hash, err := bcrypt.GenerateFromPassword(password, a.cost)
	if err != nil {
		internalError(w, a.logger, "unable to hash password", err)
		return
	}

	player, err := a.players.CreatePlayer(r.Context(), repository.CreatePlayerParams{
		Username:     username,
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrUsernameTaken) {
		sendErrorOrLog(w, a.logger, http.StatusConflict, err)
		return
	}
	if err != nil {
		internalError(w, a.logger, "unable to insert player", err)
		return
	}

	a.logger.Info("player registered", slog.Int64("player_id", player.PlayerID))
	a.signIn(w, player)
}

func (a Auth) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := a.credentials(w, r)
	if !ok {
		return
	}

	player, err := a.players.FetchPlayer(r.Context(), username)
	if errors.Is(err, repository.ErrPlayerUnknown) {
		sendErrorOrLog(w, a.logger, http.StatusUnauthorized, ErrBadCredentials)
		return
	}
	if err != nil {
		internalError(w, a.logger, "unable to fetch player", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword(player.PasswordHash, password); err != nil {
		sendErrorOrLog(w, a.logger, http.StatusUnauthorized, ErrBadCredentials)
		return
	}

	a.signIn(w, player)
}

func (a Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}
