package mines

import "github.com/gammazero/deque"

// Result tells the caller whether an action mutated the board. NoChange is
// not an error: it is the answer to acting on a flagged or revealed cell, or
// to acting after the game has ended.
type Result bool

const (
	NoChange Result = false
	Changed  Result = true
)

func (r Result) String() string {
	if r {
		return "changed"
	}
	return "no change"
}

// Reveal opens the cell at r, c. Opening a mine ends the game. Opening a cell
// with no adjacent mines cascades through the surrounding zero region and
// stops at its numbered border.
func (b *Board) Reveal(r, c int) (Result, error) {
	i, err := b.index(r, c)
	if err != nil {
		return NoChange, err
	}
	if b.gameOver {
		return NoChange, nil
	}
	cell := &b.cells[i]
	if cell.flagged || cell.revealed {
		return NoChange, nil
	}

	cell.revealed = true
	if cell.mine {
		b.gameOver, b.won = true, false
		b.exploded = i
		return Changed, nil
	}

	b.revealedSafe++
	if cell.adjacent == 0 {
		b.floodFill(i)
	}

	if b.revealedSafe == b.params.SafeCells() {
		b.gameOver, b.won = true, true
	}
	return Changed, nil
}

// floodFill reveals the zero region around start breadth-first. seen is local
// to one call so that a revealed cell reached from two directions is examined
// once; numbered cells are revealed but never expanded.
func (b *Board) floodFill(start int) {
	seen := make([]bool, len(b.cells))
	seen[start] = true
	var queue deque.Deque[int]
	queue.PushBack(start)

	for queue.Len() != 0 {
		i := queue.PopFront()
		for j := range b.neighbours(i) {
			if seen[j] {
				continue
			}
			seen[j] = true

			n := &b.cells[j]
			if n.mine || n.flagged || n.revealed {
				continue
			}
			n.revealed = true
			b.revealedSafe++
			if n.adjacent == 0 {
				queue.PushBack(j)
			}
		}
	}
}

// ToggleFlag marks or unmarks an unrevealed cell as a suspected mine.
func (b *Board) ToggleFlag(r, c int) (Result, error) {
	i, err := b.index(r, c)
	if err != nil {
		return NoChange, err
	}
	if b.gameOver || b.cells[i].revealed {
		return NoChange, nil
	}
	b.cells[i].flagged = !b.cells[i].flagged
	return Changed, nil
}

// Chord opens every unflagged neighbour of a revealed numbered cell once the
// player has placed as many flags around it as it has adjacent mines. A wrong
// flag means a mine gets opened and the game is lost.
func (b *Board) Chord(r, c int) (Result, error) {
	i, err := b.index(r, c)
	if err != nil {
		return NoChange, err
	}
	if b.gameOver {
		return NoChange, nil
	}
	cell := b.cells[i]
	if !cell.revealed || cell.mine || cell.adjacent == 0 {
		return NoChange, nil
	}

	var flags int8
	todo := make([]int, 0, 8)
	for j := range b.neighbours(i) {
		switch n := b.cells[j]; {
		case n.flagged:
			flags++
		case !n.revealed:
			todo = append(todo, j)
		}
	}
	if flags != cell.adjacent {
		return NoChange, nil
	}

	res := NoChange
	for _, j := range todo {
		// an earlier cascade may already have opened j
		if changed, _ := b.Reveal(j/b.params.Cols, j%b.params.Cols); changed {
			res = Changed
		}
		if b.gameOver {
			break
		}
	}
	return res, nil
}

// RevealAll discloses the whole layout. It is meant to be called once the
// game is over and leaves the game outcome untouched.
func (b *Board) RevealAll() {
	for i := range b.cells {
		b.cells[i].revealed = true
	}
}
