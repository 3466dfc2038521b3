package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vancomm/gridsweeper/internal/config"
	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/repository"
	"github.com/vancomm/gridsweeper/internal/session"
)

type App struct {
	logger  *slog.Logger
	cfg     *config.App
	router  *http.ServeMux
	repo    repository.Repository
	games   *session.Service
	cookies *config.Cookies
	ws      *config.WebSocket
}

func New(
	logger *slog.Logger,
	cfg *config.App,
	repo repository.Repository,
	cookies *config.Cookies,
	ws *config.WebSocket,
) *App {
	a := &App{
		logger:  logger,
		cfg:     cfg,
		router:  http.NewServeMux(),
		repo:    repo,
		games:   session.NewService(logger, repo, mines.NewRand()),
		cookies: cookies,
		ws:      ws,
	}
	a.loadRoutes()
	return a
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         a.cfg.Addr,
		Handler:      a.Handler(),
		ReadTimeout:  time.Second * 15,
		WriteTimeout: time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening", slog.String("addr", a.cfg.Addr),
			slog.String("base_path", a.cfg.BasePath))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return server.Shutdown(sCtx)
	})
	return g.Wait()
}

func (a *App) Handler() http.Handler {
	var h http.Handler = a.router
	if base := strings.TrimSuffix(a.cfg.BasePath, "/"); base != "" {
		h = http.StripPrefix(base, h)
	}
	return wrap(h, a.logger, a.cookies, a.ws)
}
