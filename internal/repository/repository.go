package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/session"
)

var (
	ErrNotFound      = session.ErrNotFound
	ErrPlayerUnknown = errors.New("username unknown")
	ErrUsernameTaken = errors.New("username taken")
)

// Repository is implemented by the Postgres [Queries] and the [SQLite]
// store.
type Repository interface {
	session.Store
	CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error)
	FetchPlayer(ctx context.Context, username string) (*Player, error)
	Highscores(ctx context.Context, filter HighscoreFilter) ([]Highscore, error)
}

type Player struct {
	PlayerID     int64     `db:"player_id"`
	Username     string    `db:"username"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type CreatePlayerParams struct {
	Username     string
	PasswordHash []byte
}

// GameSession is a game_session row. State holds the gob-encoded board, the
// other columns duplicate what highscore queries need.
type GameSession struct {
	GameSessionID int64      `db:"game_session_id"`
	PlayerID      *int64     `db:"player_id"`
	RowCount      int        `db:"row_count"`
	ColCount      int        `db:"col_count"`
	MineCount     int        `db:"mine_count"`
	FlagsPlaced   int        `db:"flags_placed"`
	Dead          bool       `db:"dead"`
	Won           bool       `db:"won"`
	State         []byte     `db:"state"`
	StartedAt     time.Time  `db:"started_at"`
	EndedAt       *time.Time `db:"ended_at"`
}

const gameSessionColumns = `game_session_id, player_id, row_count, col_count,
	mine_count, flags_placed, dead, won, state, started_at, ended_at`

func newGameSession(s *session.Session) (*GameSession, error) {
	state, err := s.Board.MarshalBinary()
	if err != nil {
		return nil, err
	}
	p := s.Board.Params()
	status := s.Status()
	return &GameSession{
		GameSessionID: s.ID,
		PlayerID:      s.PlayerID,
		RowCount:      p.Rows,
		ColCount:      p.Cols,
		MineCount:     p.Mines,
		FlagsPlaced:   s.FlagsPlaced,
		Dead:          status == mines.Lost,
		Won:           status == mines.Won,
		State:         state,
		StartedAt:     s.StartedAt,
		EndedAt:       s.EndedAt,
	}, nil
}

// Session decodes the stored board.
func (g *GameSession) Session() (*session.Session, error) {
	board, err := mines.DecodeBoard(g.State)
	if err != nil {
		return nil, err
	}
	s := &session.Session{
		ID:          g.GameSessionID,
		PlayerID:    g.PlayerID,
		Board:       board,
		FlagsPlaced: g.FlagsPlaced,
		StartedAt:   g.StartedAt.UTC(),
	}
	if g.EndedAt != nil {
		ended := g.EndedAt.UTC()
		s.EndedAt = &ended
	}
	return s, nil
}

type UpdateGameSessionParams struct {
	FlagsPlaced *int
	Dead        *bool
	Won         *bool
	EndedAt     *time.Time
	State       *[]byte
}

func (g *GameSession) updateParams() UpdateGameSessionParams {
	return UpdateGameSessionParams{
		FlagsPlaced: &g.FlagsPlaced,
		Dead:        &g.Dead,
		Won:         &g.Won,
		EndedAt:     g.EndedAt,
		State:       &g.State,
	}
}

// SetClause renders the non-nil fields as "col = @col" pairs.
func (p UpdateGameSessionParams) SetClause() (string, map[string]any) {
	parts := make([]string, 0)
	args := make(map[string]any)

	if p.FlagsPlaced != nil {
		parts = append(parts, "flags_placed = @flags_placed")
		args["flags_placed"] = *p.FlagsPlaced
	}
	if p.Dead != nil {
		parts = append(parts, "dead = @dead")
		args["dead"] = *p.Dead
	}
	if p.Won != nil {
		parts = append(parts, "won = @won")
		args["won"] = *p.Won
	}
	if p.EndedAt != nil {
		parts = append(parts, "ended_at = @ended_at")
		args["ended_at"] = *p.EndedAt
	}
	if p.State != nil {
		parts = append(parts, "state = @state")
		args["state"] = *p.State
	}

	return strings.Join(parts, ", "), args
}

type Highscore struct {
	GameSessionID int64   `json:"game_session_id" db:"game_session_id"`
	Username      *string `json:"username" db:"username"`
	Rows          int     `json:"rows" db:"row_count"`
	Cols          int     `json:"cols" db:"col_count"`
	Mines         int     `json:"mines" db:"mine_count"`
	PlaytimeMs    float64 `json:"playtime_ms" db:"playtime_ms"`
}

const DefaultHighscoreLimit = 100

type HighscoreFilter struct {
	Username *string
	Params   *mines.Params
	Limit    int
}

func (f HighscoreFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultHighscoreLimit
	}
	return f.Limit
}

func (f HighscoreFilter) WhereClause() (string, map[string]any) {
	clauses := make([]string, 0)
	args := make(map[string]any)
	if f.Username != nil {
		clauses = append(clauses, "username = @username")
		args["username"] = *f.Username
	}
	if f.Params != nil {
		clauses = append(
			clauses,
			"row_count = @row_count",
			"col_count = @col_count",
			"mine_count = @mine_count",
		)
		args["row_count"] = f.Params.Rows
		args["col_count"] = f.Params.Cols
		args["mine_count"] = f.Params.Mines
	}
	return strings.Join(clauses, " AND "), args
}
