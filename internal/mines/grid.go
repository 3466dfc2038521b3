package mines

import (
	"fmt"
	"strconv"
	"strings"
)

// CellState is what a player is allowed to know about a cell.
type CellState int8

const (
	Unknown          CellState = -2
	Flagged          CellState = -1
	CorrectlyFlagged CellState = 64
	ExplodedMine     CellState = 65
	FalselyFlagged   CellState = 66
	UnflaggedMine    CellState = 67
	/*
	 * 0 to 8 mean the cell is open and show its adjacent mine count.
	 *
	 * 64 and up only show up once the layout has been disclosed with
	 * RevealAll: 64 is a flag that was right, 65 the mine that ended the
	 * game, 66 a flag on a safe cell, 67 a mine nobody flagged.
	 */
)

func (s CellState) String() string {
	switch {
	case s == Unknown:
		return " "
	case s == Flagged:
		return "*"
	case 0 <= s && s <= 8:
		return strconv.Itoa(int(s))
	case s == CorrectlyFlagged:
		return "F"
	case s == ExplodedMine:
		return "X"
	case s == FalselyFlagged:
		return "x"
	case s == UnflaggedMine:
		return "M"
	default:
		return "!"
	}
}

type Grid []CellState

func (g Grid) ToString(width int) string {
	var b strings.Builder
	for y := range len(g) / width {
		for x := range width {
			fmt.Fprint(&b, g[y*width+x].String()+" ")
		}
		fmt.Fprint(&b, "\n")
	}
	return b.String()
}

func (b *Board) state(i int) CellState {
	c := b.cells[i]
	switch {
	case !c.revealed && c.flagged:
		return Flagged
	case !c.revealed:
		return Unknown
	case i == b.exploded:
		return ExplodedMine
	case c.flagged && c.mine:
		return CorrectlyFlagged
	case c.flagged:
		return FalselyFlagged
	case c.mine:
		return UnflaggedMine
	default:
		return CellState(c.adjacent)
	}
}

// Grid renders the board as player knowledge in row-major order.
func (b *Board) Grid() Grid {
	g := make(Grid, len(b.cells))
	for i := range b.cells {
		g[i] = b.state(i)
	}
	return g
}

func (b *Board) String() string {
	return b.Grid().ToString(b.params.Cols)
}
