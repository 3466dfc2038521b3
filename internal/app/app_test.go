package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/gridsweeper/internal/config"
	"github.com/vancomm/gridsweeper/internal/repository"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestApp(t *testing.T, basePath string) *App {
	t.Helper()
	t.Setenv("COOKIES_SECURE", "false")

	repo, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cookies, err := config.NewCookies(config.NewJWTFromKey(key, time.Hour))
	require.NoError(t, err)
	ws, err := config.NewWebSocket()
	require.NoError(t, err)

	cfg := &config.App{Addr: "127.0.0.1:0", BasePath: basePath, ShutdownTimeout: time.Second}
	return New(discard, cfg, repo, cookies, ws)
}

func TestAppPlayAndHighscore(t *testing.T) {
	a := newTestApp(t, "/api")
	server := httptest.NewServer(a.Handler())
	defer server.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.PostForm(server.URL+"/api/register", url.Values{
		"username": {"alice"}, "password": {"pw"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(server.URL + "/api/status")
	require.NoError(t, err)
	var status struct {
		LoggedIn bool `json:"logged_in"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.True(t, status.LoggedIn)

	// a board without mines is won by the first click
	resp, err = client.Post(server.URL+"/api/game?rows=4&cols=4&mines=0", "", nil)
	require.NoError(t, err)
	var game struct {
		ID     string `json:"game_session_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&game))
	resp.Body.Close()
	require.Equal(t, "playing", game.Status)

	resp, err = client.Post(server.URL+"/api/game/"+game.ID+"/move?move=open&row=0&col=0", "", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&game))
	resp.Body.Close()
	assert.Equal(t, "won", game.Status)

	resp, err = client.Get(server.URL + "/api/highscores?username=alice")
	require.NoError(t, err)
	var scores []repository.Highscore
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scores))
	resp.Body.Close()
	require.Len(t, scores, 1)
	require.NotNil(t, scores[0].Username)
	assert.Equal(t, "alice", *scores[0].Username)

	// anonymous clients cannot touch alice's game
	resp, err = http.Get(server.URL + "/api/game/" + game.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAppHealthAndUnknownRoute(t *testing.T) {
	a := newTestApp(t, "")

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/game/1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAppRunStopsOnCancel(t *testing.T) {
	a := newTestApp(t, "")
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	a.cfg.Addr = l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + a.cfg.Addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
