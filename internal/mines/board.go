package mines

import (
	"fmt"
	"hash/maphash"
	"iter"
	"math/rand/v2"
)

type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Cell is a read-only snapshot of one square of a [Board].
type Cell struct {
	Row      int
	Col      int
	Mine     bool
	Flagged  bool
	Revealed bool
	Adjacent int
}

type cell struct {
	mine     bool
	flagged  bool
	revealed bool
	adjacent int8
}

// Board is a single game of mines. Cells live in a flat row-major arena.
//
// A Board is not safe for concurrent use; callers driving it from several
// goroutines must serialize access themselves.
type Board struct {
	params       Params
	cells        []cell
	gameOver     bool
	won          bool
	revealedSafe int
	exploded     int
}

// NewRand returns a PCG source seeded from the runtime's random hash seed.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func newBoard(p Params) *Board {
	return &Board{
		params:   p,
		cells:    make([]cell, p.Cells()),
		exploded: -1,
	}
}

// New builds a board with mines placed uniformly at random. If rnd is nil a
// fresh source from [NewRand] is used.
func New(rows, cols, mines int, rnd *rand.Rand) (*Board, error) {
	p := Params{Rows: rows, Cols: cols, Mines: mines}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = NewRand()
	}

	b := newBoard(p)
	for placed := 0; placed < mines; {
		i := rnd.IntN(len(b.cells))
		if b.cells[i].mine {
			continue
		}
		b.cells[i].mine = true
		placed++
	}
	b.computeAdjacency()
	return b, nil
}

// NewWithLayout builds a board whose mines are exactly the given points.
func NewWithLayout(rows, cols int, mines []Point) (*Board, error) {
	p := Params{Rows: rows, Cols: cols, Mines: len(mines)}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b := newBoard(p)
	for _, m := range mines {
		if !p.InBounds(m.Row, m.Col) {
			return nil, &PointError{Point: m, Err: ErrOutOfBounds}
		}
		i := b.idx(m.Row, m.Col)
		if b.cells[i].mine {
			return nil, &PointError{Point: m, Err: ErrDuplicateMine}
		}
		b.cells[i].mine = true
	}
	b.computeAdjacency()
	return b, nil
}

func (b *Board) computeAdjacency() {
	for i := range b.cells {
		if b.cells[i].mine {
			continue
		}
		var n int8
		for j := range b.neighbours(i) {
			if b.cells[j].mine {
				n++
			}
		}
		b.cells[i].adjacent = n
	}
}

func (b *Board) idx(r, c int) int {
	return r*b.params.Cols + c
}

func (b *Board) index(r, c int) (int, error) {
	if !b.params.InBounds(r, c) {
		return -1, &PointError{Point: Point{r, c}, Err: ErrOutOfBounds}
	}
	return b.idx(r, c), nil
}

// neighbours yields the arena indices of the up to 8 in-bounds cells around i.
func (b *Board) neighbours(i int) iter.Seq[int] {
	r, c := i/b.params.Cols, i%b.params.Cols
	return func(yield func(int) bool) {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				rr, cc := r+dr, c+dc
				if !b.params.InBounds(rr, cc) {
					continue
				}
				if !yield(b.idx(rr, cc)) {
					return
				}
			}
		}
	}
}

func (b *Board) view(i int) Cell {
	c := b.cells[i]
	return Cell{
		Row:      i / b.params.Cols,
		Col:      i % b.params.Cols,
		Mine:     c.mine,
		Flagged:  c.flagged,
		Revealed: c.revealed,
		Adjacent: int(c.adjacent),
	}
}

func (b *Board) Params() Params { return b.params }
func (b *Board) Rows() int      { return b.params.Rows }
func (b *Board) Cols() int      { return b.params.Cols }
func (b *Board) Mines() int     { return b.params.Mines }

func (b *Board) InBounds(r, c int) bool {
	return b.params.InBounds(r, c)
}

func (b *Board) Cell(r, c int) (Cell, error) {
	i, err := b.index(r, c)
	if err != nil {
		return Cell{}, err
	}
	return b.view(i), nil
}

// Cells yields every cell in row-major order.
func (b *Board) Cells() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for i := range b.cells {
			if !yield(b.view(i)) {
				return
			}
		}
	}
}

func (b *Board) GameOver() bool {
	return b.gameOver
}

// Won is only meaningful once [Board.GameOver] reports true.
func (b *Board) Won() bool {
	return b.won
}

func (b *Board) Status() Status {
	switch {
	case !b.gameOver:
		return Playing
	case b.won:
		return Won
	default:
		return Lost
	}
}

// Flags counts the currently flagged cells.
func (b *Board) Flags() (n int) {
	for _, c := range b.cells {
		if c.flagged {
			n++
		}
	}
	return
}

type Status uint8

const (
	Playing Status = iota
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "playing":
		*s = Playing
	case "won":
		*s = Won
	case "lost":
		*s = Lost
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}
