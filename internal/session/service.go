package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vancomm/gridsweeper/internal/mines"
)

// Store persists sessions. CreateSession assigns the session id.
type Store interface {
	CreateSession(ctx context.Context, s *Session) error
	FetchSession(ctx context.Context, id int64) (*Session, error)
	UpdateSession(ctx context.Context, s *Session) error
}

type Service struct {
	logger *slog.Logger
	store  Store
	locks  *Locker
	now    func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewService(logger *slog.Logger, store Store, rnd *rand.Rand) *Service {
	if rnd == nil {
		rnd = mines.NewRand()
	}
	return &Service{
		logger: logger,
		store:  store,
		locks:  NewLocker(),
		now:    time.Now,
		rnd:    rnd,
	}
}

func (s *Service) newBoard(p mines.Params) (*mines.Board, error) {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return mines.New(p.Rows, p.Cols, p.Mines, s.rnd)
}

// Start creates a board for p and stores a fresh session for it.
func (s *Service) Start(ctx context.Context, p mines.Params, playerID *int64) (*Session, error) {
	board, err := s.newBoard(p)
	if err != nil {
		return nil, err
	}
	session := New(board, playerID, s.now())
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("unable to create game session: %w", err)
	}
	s.logger.Debug("game session started",
		slog.Int64("id", session.ID), slog.String("params", p.String()))
	return session, nil
}

func (s *Service) Fetch(ctx context.Context, id int64, playerID *int64) (*Session, error) {
	session, err := s.store.FetchSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Owner(playerID) {
		return nil, ErrForbidden
	}
	return session, nil
}

// Apply runs cmds in order against the session and persists the result.
// Processing stops at the first command that ends the game. If any command
// fails nothing is stored and the error is returned as a [*BatchError].
//
// The returned result is [mines.Changed] if at least one command changed the
// board.
func (s *Service) Apply(
	ctx context.Context, id int64, playerID *int64, cmds ...Command,
) (*Session, mines.Result, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.Fetch(ctx, id, playerID)
	if err != nil {
		return nil, mines.NoChange, err
	}

	res := mines.NoChange
	for i, cmd := range cmds {
		r, err := session.Apply(cmd, s.now())
		if err != nil {
			return nil, mines.NoChange, &BatchError{Line: i, Err: err}
		}
		if r == mines.Changed {
			res = mines.Changed
		}
		if session.Ended() {
			break
		}
	}

	if res == mines.NoChange {
		return session, res, nil
	}
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, mines.NoChange, fmt.Errorf("unable to update game session: %w", err)
	}
	if session.Ended() {
		s.logger.Debug("game session ended",
			slog.Int64("id", session.ID),
			slog.String("status", session.Status().String()),
			slog.Duration("elapsed", session.Elapsed(s.now())))
	}
	return session, res, nil
}
