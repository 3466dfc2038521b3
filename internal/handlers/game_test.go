package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/gridsweeper/internal/config"
	"github.com/vancomm/gridsweeper/internal/middleware"
	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/repository"
	"github.com/vancomm/gridsweeper/internal/session"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type gameFixture struct {
	repo    *repository.SQLite
	handler http.Handler
}

// asPlayer fakes the auth middleware through the X-Test-Player header.
func asPlayer(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get("X-Test-Player"); v != "" {
			id, _ := strconv.ParseInt(v, 10, 64)
			claims := config.NewPlayerClaims(id, "player"+v)
			r = r.WithContext(context.WithValue(r.Context(), middleware.CtxPlayerClaims, claims))
		}
		h.ServeHTTP(w, r)
	})
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	repo, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "game.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ws, err := config.NewWebSocket()
	require.NoError(t, err)

	games := session.NewService(discard, repo, rand.New(rand.NewPCG(1, 2)))
	game := NewGameHandler(discard, games, ws)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /game", game.NewGame)
	mux.HandleFunc("GET /game/{id}", game.Fetch)
	mux.HandleFunc("POST /game/{id}/move", game.MakeAMove)
	mux.HandleFunc("POST /game/{id}/forfeit", game.Forfeit)
	mux.HandleFunc("POST /game/{id}/batch", game.Batch)
	mux.HandleFunc("GET /game/{id}/connect", game.ConnectWS)

	return &gameFixture{repo: repo, handler: asPlayer(mux)}
}

// seed stores a 3x3 game with a single mine in the bottom right corner.
func (f *gameFixture) seed(t *testing.T, playerID *int64) string {
	t.Helper()
	board, err := mines.NewWithLayout(3, 3, []mines.Point{{Row: 2, Col: 2}})
	require.NoError(t, err)
	s := session.New(board, playerID, time.Now())
	require.NoError(t, f.repo.CreateSession(context.Background(), s))
	return strconv.FormatInt(s.ID, 10)
}

func (f *gameFixture) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) GameSessionDTO {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var dto GameSessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	return dto
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder, status int) string {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestNewGame(t *testing.T) {
	f := newGameFixture(t)

	dto := decodeSession(t, f.do(t, http.MethodPost, "/game?rows=9&cols=9&mines=10", ""))
	assert.NotEmpty(t, dto.GameSessionID)
	assert.Len(t, dto.Grid, 81)
	for _, s := range dto.Grid {
		assert.Equal(t, mines.Unknown, s)
	}
	assert.Equal(t, 10, dto.MinesRemaining)
	assert.Equal(t, mines.Playing, dto.Status)
	assert.Nil(t, dto.EndedAt)

	fetched := decodeSession(t, f.do(t, http.MethodGet, "/game/"+dto.GameSessionID, ""))
	assert.Equal(t, dto.Grid, fetched.Grid)
	assert.False(t, fetched.Changed)
}

func TestNewGameBadParams(t *testing.T) {
	f := newGameFixture(t)

	msg := decodeError(t, f.do(t, http.MethodPost, "/game?rows=2&cols=2&mines=4", ""), http.StatusBadRequest)
	assert.Contains(t, msg, mines.ErrTooManyMines.Error())

	decodeError(t, f.do(t, http.MethodPost, "/game?rows=0&cols=2&mines=1", ""), http.StatusBadRequest)
	decodeError(t, f.do(t, http.MethodPost, "/game?rows=9", ""), http.StatusBadRequest)
}

func TestNewGameOversized(t *testing.T) {
	f := newGameFixture(t)

	msg := decodeError(t, f.do(t, http.MethodPost, "/game?rows=100000&cols=100000&mines=1", ""), http.StatusBadRequest)
	assert.Contains(t, msg, ErrBoardTooLarge.Error())

	msg = decodeError(t, f.do(t, http.MethodPost, "/game?rows=4294967296&cols=4294967297&mines=1", ""), http.StatusBadRequest)
	assert.Contains(t, msg, mines.ErrInvalidDimensions.Error())

	decodeSession(t, f.do(t, http.MethodPost, "/game?rows=256&cols=256&mines=1", ""))
}

func TestMoveOpenWins(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)

	dto := decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=open&row=0&col=0", ""))
	assert.True(t, dto.Changed)
	assert.Equal(t, mines.Won, dto.Status)
	assert.True(t, dto.Won)
	assert.False(t, dto.Dead)
	require.NotNil(t, dto.EndedAt)
	assert.Equal(t, mines.UnflaggedMine, dto.Grid[8])
	assert.Equal(t, mines.CellState(0), dto.Grid[0])
}

func TestMoveOutOfBounds(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)

	msg := decodeError(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=open&row=3&col=0", ""), http.StatusBadRequest)
	assert.Contains(t, msg, mines.ErrOutOfBounds.Error())

	dto := decodeSession(t, f.do(t, http.MethodGet, "/game/"+id, ""))
	assert.Equal(t, mines.Playing, dto.Status)
}

func TestMoveNoChange(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)

	dto := decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=flag&row=1&col=1", ""))
	assert.True(t, dto.Changed)
	assert.Equal(t, 0, dto.MinesRemaining)
	assert.Equal(t, mines.Flagged, dto.Grid[4])

	dto = decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=open&row=1&col=1", ""))
	assert.False(t, dto.Changed)
	assert.Equal(t, mines.Flagged, dto.Grid[4])
}

func TestMoveLossAndChord(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)

	dto := decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=open&row=1&col=1", ""))
	assert.Equal(t, mines.CellState(1), dto.Grid[4])

	// no flags around (1,1) yet
	dto = decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=chord&row=1&col=1", ""))
	assert.False(t, dto.Changed)

	dto = decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=open&row=2&col=2", ""))
	assert.Equal(t, mines.Lost, dto.Status)
	assert.True(t, dto.Dead)
	assert.Equal(t, mines.ExplodedMine, dto.Grid[8])
}

func TestMoveBadRequests(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)

	decodeError(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=dig&row=0&col=0", ""), http.StatusBadRequest)
	decodeError(t, f.do(t, http.MethodPost, "/game/"+id+"/move?move=open", ""), http.StatusBadRequest)

	rec := f.do(t, http.MethodPost, "/game/abc/move?move=open&row=0&col=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	decodeError(t, f.do(t, http.MethodPost, "/game/999/move?move=open&row=0&col=0", ""), http.StatusNotFound)
	decodeError(t, f.do(t, http.MethodGet, "/game/999", ""), http.StatusNotFound)
}

func TestForfeit(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)

	dto := decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/forfeit", ""))
	assert.True(t, dto.Changed)
	assert.Equal(t, mines.Lost, dto.Status)
	require.NotNil(t, dto.EndedAt)
	assert.Equal(t, mines.UnflaggedMine, dto.Grid[8])

	dto = decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/forfeit", ""))
	assert.False(t, dto.Changed)
}

func TestBatch(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)

	dto := decodeSession(t, f.do(t, http.MethodPost, "/game/"+id+"/batch", "f 2 2\no 0 0\n"))
	assert.Equal(t, mines.Won, dto.Status)
	assert.Equal(t, 0, dto.MinesRemaining)
	assert.Equal(t, mines.CorrectlyFlagged, dto.Grid[8])
}

func TestBatchRejected(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)

	msg := decodeError(t, f.do(t, http.MethodPost, "/game/"+id+"/batch", "f 0 0\nx 1 1"), http.StatusBadRequest)
	assert.Contains(t, msg, "line 1")

	msg = decodeError(t, f.do(t, http.MethodPost, "/game/"+id+"/batch", "f 0 0\no 9 9"), http.StatusBadRequest)
	assert.Contains(t, msg, mines.ErrOutOfBounds.Error())

	dto := decodeSession(t, f.do(t, http.MethodGet, "/game/"+id, ""))
	assert.Equal(t, 1, dto.MinesRemaining, "failed batch must not persist the flag")
}

func TestOwnership(t *testing.T) {
	f := newGameFixture(t)
	owner := int64(1)
	id := f.seed(t, &owner)

	req := httptest.NewRequest(http.MethodGet, "/game/"+id, nil)
	req.Header.Set("X-Test-Player", "2")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	decodeError(t, rec, http.StatusForbidden)

	req = httptest.NewRequest(http.MethodGet, "/game/"+id, nil)
	req.Header.Set("X-Test-Player", "1")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	decodeSession(t, rec)
}

func TestConnectWS(t *testing.T) {
	f := newGameFixture(t)
	id := f.seed(t, nil)
	server := httptest.NewServer(f.handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/game/" + id + "/connect"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var dto GameSessionDTO
	require.NoError(t, conn.ReadJSON(&dto))
	assert.Equal(t, mines.Playing, dto.Status)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("bogus")))
	var failure map[string]string
	require.NoError(t, conn.ReadJSON(&failure))
	assert.Contains(t, failure["error"], session.ErrUnknownCommand.Error())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("f 2 2")))
	require.NoError(t, conn.ReadJSON(&dto))
	assert.Equal(t, 0, dto.MinesRemaining)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("o 0 0")))
	require.NoError(t, conn.ReadJSON(&dto))
	assert.Equal(t, mines.Won, dto.Status)
	assert.True(t, dto.Changed)
}

func TestConnectWSNotFound(t *testing.T) {
	f := newGameFixture(t)
	server := httptest.NewServer(f.handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/game/77/connect"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
