package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vancomm/gridsweeper/internal/session"
)

type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Queries is the Postgres repository. db is usually a *pgxpool.Pool.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (q *Queries) CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO player (username, password_hash) VALUES ($1, $2)
		RETURNING player_id, username, password_hash, created_at`,
		params.Username,
		params.PasswordHash,
	)
	player, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return nil, ErrUsernameTaken
	}
	return player, err
}

func (q *Queries) FetchPlayer(ctx context.Context, username string) (*Player, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT player_id, username, password_hash, created_at
		FROM player WHERE username = $1`,
		username,
	)
	player, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerUnknown
	}
	return player, err
}

func (q *Queries) CreateSession(ctx context.Context, s *session.Session) error {
	row, err := newGameSession(s)
	if err != nil {
		return fmt.Errorf("unable to encode board: %w", err)
	}
	args := pgx.NamedArgs{
		"player_id":    row.PlayerID,
		"row_count":    row.RowCount,
		"col_count":    row.ColCount,
		"mine_count":   row.MineCount,
		"flags_placed": row.FlagsPlaced,
		"dead":         row.Dead,
		"won":          row.Won,
		"state":        row.State,
		"started_at":   row.StartedAt,
	}
	return q.db.QueryRow(
		ctx,
		`INSERT INTO game_session (
			player_id, row_count, col_count, mine_count, flags_placed,
			dead, won, state, started_at
		)
		VALUES (
			@player_id, @row_count, @col_count, @mine_count, @flags_placed,
			@dead, @won, @state, @started_at
		)
		RETURNING game_session_id`,
		args,
	).Scan(&s.ID)
}

func (q *Queries) FetchGameSession(ctx context.Context, id int64) (*GameSession, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT "+gameSessionColumns+" FROM game_session WHERE game_session_id = $1",
		id,
	)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
	return row, notFound(err)
}

func (q *Queries) FetchSession(ctx context.Context, id int64) (*session.Session, error) {
	row, err := q.FetchGameSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.Session()
}

func (q *Queries) UpdateGameSession(
	ctx context.Context, id int64, params UpdateGameSessionParams,
) error {
	setClause, args := params.SetClause()
	if setClause == "" {
		return nil
	}
	args["game_session_id"] = id
	tag, err := q.db.Exec(
		ctx,
		"UPDATE game_session SET "+setClause+", updated_at = now() WHERE game_session_id = @game_session_id",
		pgx.NamedArgs(args),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) UpdateSession(ctx context.Context, s *session.Session) error {
	row, err := newGameSession(s)
	if err != nil {
		return fmt.Errorf("unable to encode board: %w", err)
	}
	return q.UpdateGameSession(ctx, s.ID, row.updateParams())
}

func (q *Queries) Highscores(ctx context.Context, filter HighscoreFilter) ([]Highscore, error) {
	query := `
	SELECT
		game_session_id,
		username,
		row_count,
		col_count,
		mine_count,
		(
			extract('epoch' from ended_at) -
			extract('epoch' from started_at)
		)::float8 * 1000 playtime_ms
	FROM game_session
		LEFT OUTER JOIN player using (player_id)
	WHERE
		won = true
		AND ended_at IS NOT NULL
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}
	query += " ORDER BY playtime_ms LIMIT @limit"
	args["limit"] = filter.limit()

	rows, err := q.db.Query(ctx, query, pgx.NamedArgs(args))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Highscore])
}

var _ Repository = (*Queries)(nil)
