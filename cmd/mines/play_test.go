package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/session"
)

func newTestGame(t *testing.T, input string) (*game, *bytes.Buffer) {
	t.Helper()
	b, err := mines.NewWithLayout(3, 3, []mines.Point{{Row: 2, Col: 2}})
	require.NoError(t, err)
	start := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	var out bytes.Buffer
	return &game{
		session: session.New(b, nil, start),
		in:      strings.NewReader(input),
		out:     &out,
		now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}, &out
}

func TestPlayWin(t *testing.T) {
	g, out := newTestGame(t, "f 2 2\no 0 0\n")
	require.NoError(t, g.play())

	assert.Equal(t, mines.Won, g.session.Status())
	assert.Contains(t, out.String(), "mines left: 0")
	assert.Contains(t, out.String(), "cleared in")
	assert.Contains(t, out.String(), "  2 0 1 F \n")
}

func TestPlayLoss(t *testing.T) {
	g, out := newTestGame(t, "o 2 2\no 0 0\n")
	require.NoError(t, g.play())

	assert.Equal(t, mines.Lost, g.session.Status())
	assert.Contains(t, out.String(), "game over after")
	assert.Contains(t, out.String(), "  2 0 1 X \n")
}

func TestPlayErrorsKeepGoing(t *testing.T) {
	g, out := newTestGame(t, "dig\no 7 7\nf 1\n\nh\no 1 1\no 1 1\nq\no 0 0\n")
	require.NoError(t, g.play())

	assert.False(t, g.session.Ended())
	text := out.String()
	assert.Contains(t, text, session.ErrUnknownCommand.Error())
	assert.Contains(t, text, mines.ErrOutOfBounds.Error())
	assert.Contains(t, text, session.ErrArgCount.Error())
	assert.Contains(t, text, "nothing to do there")
	assert.Equal(t, 2, strings.Count(text, "commands:"))

	cell, err := g.session.Board.Cell(0, 0)
	require.NoError(t, err)
	assert.False(t, cell.Revealed, "input after q is ignored")
}

func TestPlayForfeitAndEOF(t *testing.T) {
	g, out := newTestGame(t, "r\n")
	require.NoError(t, g.play())
	assert.Equal(t, mines.Lost, g.session.Status())
	assert.Contains(t, out.String(), "  2 0 1 M \n")

	g, out = newTestGame(t, "")
	require.NoError(t, g.play())
	assert.False(t, g.session.Ended())
	assert.NotContains(t, out.String(), "game over")
}

func TestParamsFlag(t *testing.T) {
	*board = "16:30:99"
	t.Cleanup(func() { *board = "" })

	p, err := params()
	require.NoError(t, err)
	assert.Equal(t, mines.Params{Rows: 16, Cols: 30, Mines: 99}, p)

	*board = "3:3:9"
	_, err = params()
	assert.ErrorIs(t, err, mines.ErrTooManyMines)
}
