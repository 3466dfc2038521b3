package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/gridsweeper/internal/mines"
)

var epoch = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, rows, cols int, layout ...mines.Point) *Session {
	t.Helper()
	b, err := mines.NewWithLayout(rows, cols, layout)
	require.NoError(t, err)
	return New(b, nil, epoch)
}

func TestSessionFlagBookkeeping(t *testing.T) {
	s := newTestSession(t, 3, 3, mines.Point{Row: 0, Col: 0})
	assert.Equal(t, 1, s.MinesRemaining())

	for _, p := range []mines.Point{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}} {
		res, err := s.Apply(Command{Move: Flag, Row: p.Row, Col: p.Col}, epoch)
		require.NoError(t, err)
		assert.Equal(t, mines.Changed, res)
	}
	assert.Equal(t, 3, s.FlagsPlaced)
	assert.Equal(t, -2, s.MinesRemaining(), "over-flagging goes negative")

	_, err := s.Apply(Command{Move: Flag, Row: 0, Col: 1}, epoch)
	require.NoError(t, err)
	assert.Equal(t, 2, s.FlagsPlaced)
	assert.Equal(t, -1, s.MinesRemaining())
}

func TestSessionFlagOnRevealedCellKeepsCount(t *testing.T) {
	s := newTestSession(t, 3, 3, mines.Point{Row: 0, Col: 0})

	_, err := s.Apply(Command{Move: Open, Row: 1, Col: 1}, epoch)
	require.NoError(t, err)

	res, err := s.Apply(Command{Move: Flag, Row: 1, Col: 1}, epoch)
	require.NoError(t, err)
	assert.Equal(t, mines.NoChange, res)
	assert.Zero(t, s.FlagsPlaced)
}

func TestSessionLossRevealsBoard(t *testing.T) {
	s := newTestSession(t, 3, 3, mines.Point{Row: 0, Col: 0})
	later := epoch.Add(42 * time.Second)

	res, err := s.Apply(Command{Move: Open, Row: 0, Col: 0}, later)
	require.NoError(t, err)
	assert.Equal(t, mines.Changed, res)

	require.True(t, s.Ended())
	assert.Equal(t, mines.Lost, s.Status())
	assert.Equal(t, 42*time.Second, s.Elapsed(later.Add(time.Hour)))
	for c := range s.Board.Cells() {
		assert.True(t, c.Revealed)
	}

	res, err = s.Apply(Command{Move: Open, Row: 2, Col: 2}, later)
	require.NoError(t, err)
	assert.Equal(t, mines.NoChange, res)
}

func TestSessionWin(t *testing.T) {
	s := newTestSession(t, 5, 5)

	_, err := s.Apply(Command{Move: Open, Row: 2, Col: 2}, epoch.Add(time.Second))
	require.NoError(t, err)

	assert.True(t, s.Ended())
	assert.Equal(t, mines.Won, s.Status())
	assert.Equal(t, time.Second, s.Elapsed(epoch.Add(time.Minute)))
}

func TestSessionForfeit(t *testing.T) {
	s := newTestSession(t, 3, 3, mines.Point{Row: 1, Col: 1})

	res, err := s.Apply(Command{Move: Forfeit}, epoch)
	require.NoError(t, err)
	assert.Equal(t, mines.Changed, res)
	assert.True(t, s.Ended())
	assert.False(t, s.Board.GameOver())
	assert.Equal(t, mines.Lost, s.Status())

	res, err = s.Apply(Command{Move: Forfeit}, epoch)
	require.NoError(t, err)
	assert.Equal(t, mines.NoChange, res)
}

func TestSessionOutOfBounds(t *testing.T) {
	s := newTestSession(t, 3, 3, mines.Point{Row: 1, Col: 1})

	res, err := s.Apply(Command{Move: Open, Row: 3, Col: 0}, epoch)
	assert.ErrorIs(t, err, mines.ErrOutOfBounds)
	assert.Equal(t, mines.NoChange, res)
	assert.False(t, s.Ended())
}

func TestSessionOwner(t *testing.T) {
	alice, bob := int64(1), int64(2)

	anonymous := newTestSession(t, 2, 2)
	assert.True(t, anonymous.Owner(nil))
	assert.True(t, anonymous.Owner(&alice))

	owned := newTestSession(t, 2, 2)
	owned.PlayerID = &alice
	assert.True(t, owned.Owner(&alice))
	assert.False(t, owned.Owner(&bob))
	assert.False(t, owned.Owner(nil))
}
