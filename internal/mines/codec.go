package mines

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

type snapshot struct {
	Params       Params
	Mine         []bool
	Flagged      []bool
	Revealed     []bool
	Adjacent     []int8
	GameOver     bool
	Won          bool
	RevealedSafe int
	Exploded     int
}

// [*Board] implements [encoding.BinaryMarshaler]
func (b *Board) MarshalBinary() ([]byte, error) {
	s := snapshot{
		Params:       b.params,
		Mine:         make([]bool, len(b.cells)),
		Flagged:      make([]bool, len(b.cells)),
		Revealed:     make([]bool, len(b.cells)),
		Adjacent:     make([]int8, len(b.cells)),
		GameOver:     b.gameOver,
		Won:          b.won,
		RevealedSafe: b.revealedSafe,
		Exploded:     b.exploded,
	}
	for i, c := range b.cells {
		s.Mine[i], s.Flagged[i], s.Revealed[i], s.Adjacent[i] =
			c.mine, c.flagged, c.revealed, c.adjacent
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// [*Board] implements [encoding.BinaryUnmarshaler]
func (b *Board) UnmarshalBinary(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if err := s.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	n := s.Params.Cells()
	if len(s.Mine) != n || len(s.Flagged) != n ||
		len(s.Revealed) != n || len(s.Adjacent) != n {
		return fmt.Errorf("%w: expected %d cells", ErrCorruptState, n)
	}
	if s.Exploded < -1 || s.Exploded >= n {
		return fmt.Errorf("%w: exploded cell %d", ErrCorruptState, s.Exploded)
	}

	*b = Board{
		params:       s.Params,
		cells:        make([]cell, n),
		gameOver:     s.GameOver,
		won:          s.Won,
		revealedSafe: s.RevealedSafe,
		exploded:     s.Exploded,
	}
	for i := range b.cells {
		b.cells[i] = cell{
			mine:     s.Mine[i],
			flagged:  s.Flagged[i],
			revealed: s.Revealed[i],
			adjacent: s.Adjacent[i],
		}
	}
	return nil
}

func DecodeBoard(data []byte) (*Board, error) {
	var b Board
	if err := b.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &b, nil
}
