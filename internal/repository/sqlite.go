package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/vancomm/gridsweeper/internal/session"
)

//go:embed migrations/*.sql
var sqliteMigrations embed.FS

// SQLite is the single-file repository used for local play and tests.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// OpenSQLite opens the database at path and applies the embedded schema.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db, sqliteMigrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyMigrations(db *sql.DB, fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var found int
		err := db.QueryRow("SELECT 1 FROM schema_migrations WHERE name = ?", file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		content, err := fs.ReadFile(fsys, root+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(upMigration(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)",
			file, toMillis(time.Now()),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// upMigration returns the SQL between the "-- +migrate Up" and
// "-- +migrate Down" markers.
func upMigration(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	if i := strings.Index(content, up); i != -1 {
		content = content[i+len(up):]
	}
	if i := strings.Index(content, down); i != -1 {
		content = content[:i]
	}
	return content
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func namedArgs(args map[string]any) []any {
	named := make([]any, 0, len(args))
	for k, v := range args {
		named = append(named, sql.Named(k, v))
	}
	return named
}

func (s *SQLite) CreatePlayer(ctx context.Context, params CreatePlayerParams) (*Player, error) {
	now := s.now()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO player (username, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		params.Username, params.PasswordHash, toMillis(now), toMillis(now),
	)
	if isUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return &Player{
		PlayerID:     id,
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		CreatedAt:    fromMillis(toMillis(now)),
	}, nil
}

func (s *SQLite) FetchPlayer(ctx context.Context, username string) (*Player, error) {
	var (
		p         Player
		createdAt int64
	)
	err := s.db.QueryRowContext(
		ctx,
		"SELECT player_id, username, password_hash, created_at FROM player WHERE username = ?",
		username,
	).Scan(&p.PlayerID, &p.Username, &p.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerUnknown
	}
	if err != nil {
		return nil, fmt.Errorf("fetch player: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

func (s *SQLite) CreateSession(ctx context.Context, sess *session.Session) error {
	row, err := newGameSession(sess)
	if err != nil {
		return fmt.Errorf("unable to encode board: %w", err)
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO game_session (
			player_id, row_count, col_count, mine_count, flags_placed,
			dead, won, state, started_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.PlayerID, row.RowCount, row.ColCount, row.MineCount, row.FlagsPlaced,
		row.Dead, row.Won, row.State, toMillis(row.StartedAt), toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("create game session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create game session: %w", err)
	}
	sess.ID = id
	return nil
}

func (s *SQLite) FetchGameSession(ctx context.Context, id int64) (*GameSession, error) {
	var (
		g         GameSession
		startedAt int64
		endedAt   sql.NullInt64
	)
	err := s.db.QueryRowContext(
		ctx,
		"SELECT "+gameSessionColumns+" FROM game_session WHERE game_session_id = ?",
		id,
	).Scan(
		&g.GameSessionID, &g.PlayerID, &g.RowCount, &g.ColCount,
		&g.MineCount, &g.FlagsPlaced, &g.Dead, &g.Won, &g.State,
		&startedAt, &endedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch game session: %w", err)
	}
	g.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		t := fromMillis(endedAt.Int64)
		g.EndedAt = &t
	}
	return &g, nil
}

func (s *SQLite) FetchSession(ctx context.Context, id int64) (*session.Session, error) {
	row, err := s.FetchGameSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.Session()
}

func (s *SQLite) UpdateGameSession(
	ctx context.Context, id int64, params UpdateGameSessionParams,
) error {
	setClause, args := params.SetClause()
	if t, ok := args["ended_at"].(time.Time); ok {
		args["ended_at"] = toMillis(t)
	}
	return s.update(ctx, id, setClause, args)
}

func (s *SQLite) update(ctx context.Context, id int64, setClause string, args map[string]any) error {
	if setClause == "" {
		return nil
	}
	args["game_session_id"] = id
	args["updated_at"] = toMillis(s.now())
	res, err := s.db.ExecContext(
		ctx,
		"UPDATE game_session SET "+setClause+", updated_at = @updated_at WHERE game_session_id = @game_session_id",
		namedArgs(args)...,
	)
	if err != nil {
		return fmt.Errorf("update game session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update game session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) UpdateSession(ctx context.Context, sess *session.Session) error {
	row, err := newGameSession(sess)
	if err != nil {
		return fmt.Errorf("unable to encode board: %w", err)
	}
	return s.UpdateGameSession(ctx, sess.ID, row.updateParams())
}

func (s *SQLite) Highscores(ctx context.Context, filter HighscoreFilter) ([]Highscore, error) {
	query := `
	SELECT
		game_session_id,
		username,
		row_count,
		col_count,
		mine_count,
		CAST(ended_at - started_at AS REAL) playtime_ms
	FROM game_session
		LEFT OUTER JOIN player USING (player_id)
	WHERE
		won = 1
		AND ended_at IS NOT NULL
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " AND " + whereClause
	}
	query += " ORDER BY playtime_ms LIMIT @limit"
	args["limit"] = filter.limit()

	rows, err := s.db.QueryContext(ctx, query, namedArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("query highscores: %w", err)
	}
	defer rows.Close()

	highscores := make([]Highscore, 0)
	for rows.Next() {
		var h Highscore
		if err := rows.Scan(
			&h.GameSessionID, &h.Username, &h.Rows, &h.Cols, &h.Mines, &h.PlaytimeMs,
		); err != nil {
			return nil, fmt.Errorf("scan highscore: %w", err)
		}
		highscores = append(highscores, h)
	}
	return highscores, rows.Err()
}

var _ Repository = (*SQLite)(nil)
