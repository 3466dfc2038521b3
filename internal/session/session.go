package session

import (
	"errors"
	"time"

	"github.com/vancomm/gridsweeper/internal/mines"
)

var (
	ErrNotFound  = errors.New("game session not found")
	ErrForbidden = errors.New("game session belongs to another player")
)

// Session is one game in progress or finished, together with the
// bookkeeping the engine leaves to its caller: placed flags and timing.
type Session struct {
	ID          int64
	PlayerID    *int64
	Board       *mines.Board
	FlagsPlaced int
	StartedAt   time.Time
	EndedAt     *time.Time
}

func New(board *mines.Board, playerID *int64, now time.Time) *Session {
	return &Session{
		PlayerID:  playerID,
		Board:     board,
		StartedAt: now.UTC(),
	}
}

// MinesRemaining is the counter shown next to the board. It goes negative
// when the player places more flags than there are mines.
func (s *Session) MinesRemaining() int {
	return s.Board.Mines() - s.FlagsPlaced
}

func (s *Session) Ended() bool {
	return s.EndedAt != nil
}

func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

// Status reports the board outcome. A session ended without the board being
// over was forfeited and counts as lost.
func (s *Session) Status() mines.Status {
	if s.Ended() && !s.Board.GameOver() {
		return mines.Lost
	}
	return s.Board.Status()
}

func (s *Session) Owner(playerID *int64) bool {
	if s.PlayerID == nil {
		return true
	}
	return playerID != nil && *playerID == *s.PlayerID
}

// Apply runs one command against the board. Once the game is over the whole
// layout is disclosed and the end time stamped, exactly once.
func (s *Session) Apply(cmd Command, now time.Time) (mines.Result, error) {
	if s.Ended() {
		return mines.NoChange, nil
	}

	var (
		res mines.Result
		err error
	)
	switch cmd.Move {
	case Noop:
		return mines.NoChange, nil
	case Open:
		res, err = s.Board.Reveal(cmd.Row, cmd.Col)
	case Flag:
		res, err = s.Board.ToggleFlag(cmd.Row, cmd.Col)
		if err == nil && res == mines.Changed {
			s.countFlag(cmd.Row, cmd.Col)
		}
	case Chord:
		res, err = s.Board.Chord(cmd.Row, cmd.Col)
	case Forfeit:
		s.finish(now)
		return mines.Changed, nil
	default:
		return mines.NoChange, ErrBadMove
	}
	if err != nil {
		return mines.NoChange, err
	}

	if s.Board.GameOver() {
		s.finish(now)
	}
	return res, nil
}

func (s *Session) countFlag(r, c int) {
	cell, err := s.Board.Cell(r, c)
	if err != nil {
		return
	}
	if cell.Flagged {
		s.FlagsPlaced++
	} else {
		s.FlagsPlaced--
	}
}

func (s *Session) finish(now time.Time) {
	s.Board.RevealAll()
	ended := now.UTC()
	s.EndedAt = &ended
}
