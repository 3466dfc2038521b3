package mines

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidDimensions = errors.New("rows and cols must be positive and their product must fit in an int")
	ErrNegativeMines     = errors.New("mine count must not be negative")
	ErrTooManyMines      = errors.New("mine count must be less than the number of cells")
)

// Params describes the shape of a board: its dimensions and the number of
// mines hidden in it.
type Params struct {
	Rows  int `json:"rows"`
	Cols  int `json:"cols"`
	Mines int `json:"mines"`
}

func (p Params) Unpack() (rows, cols, mines int) {
	return p.Rows, p.Cols, p.Mines
}

func (p Params) Cells() int {
	return p.Rows * p.Cols
}

// SafeCells is the number of cells a player has to reveal to win.
func (p Params) SafeCells() int {
	return p.Cells() - p.Mines
}

// Validate reports a [*ParamsError] if a board cannot be built with p.
func (p Params) Validate() error {
	var err error
	switch {
	case p.Rows <= 0 || p.Cols <= 0, p.Rows > math.MaxInt/p.Cols:
		err = ErrInvalidDimensions
	case p.Mines < 0:
		err = ErrNegativeMines
	case p.Mines >= p.Cells():
		err = ErrTooManyMines
	}
	if err != nil {
		return &ParamsError{Params: p, Err: err}
	}
	return nil
}

func (p Params) InBounds(r, c int) bool {
	return 0 <= r && r < p.Rows && 0 <= c && c < p.Cols
}

// Seed returns the textual form of p, "rows:cols:mines".
func (p Params) Seed() string {
	return fmt.Sprintf("%d:%d:%d", p.Rows, p.Cols, p.Mines)
}

func (p Params) String() string {
	return fmt.Sprintf("%dx%d(%d)", p.Rows, p.Cols, p.Mines)
}

// ParseParams is the inverse of [Params.Seed]. The result is validated.
func ParseParams(seed string) (Params, error) {
	var p Params
	sseed := strings.ReplaceAll(strings.TrimSpace(seed), ":", " ")
	n, err := fmt.Sscanf(sseed, "%d %d %d", &p.Rows, &p.Cols, &p.Mines)
	if n != 3 || err != nil {
		return Params{}, fmt.Errorf(
			`invalid board params seed (seed = "%s", n = %d, err = %w)`,
			seed, n, err,
		)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}
