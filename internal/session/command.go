package session

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

type Move uint8

const (
	Noop Move = iota
	Open
	Flag
	Chord
	Forfeit
	LAST_MOVE
)

var moveNames = [...]string{"noop", "open", "flag", "chord", "forfeit"}

func (m Move) String() string {
	if m < LAST_MOVE {
		return moveNames[m]
	}
	return "Move(" + strconv.Itoa(int(m)) + ")"
}

var ErrBadMove error

func init() {
	var allowedMoves []string
	for i := Open; i < LAST_MOVE; i++ {
		allowedMoves = append(allowedMoves, "'"+i.String()+"'")
	}
	ErrBadMove = fmt.Errorf("move must be one of %s", strings.Join(allowedMoves, ", "))
}

// ParseMove decodes the move names used by the HTTP API.
func ParseMove(s string) (Move, error) {
	switch strings.ToLower(s) {
	case "open":
		return Open, nil
	case "flag":
		return Flag, nil
	case "chord":
		return Chord, nil
	case "forfeit":
		return Forfeit, nil
	default:
		return Noop, ErrBadMove
	}
}

// Command is one player action. Row and Col are ignored by moves that
// don't target a cell.
type Command struct {
	Move Move
	Row  int
	Col  int
}

func (c Command) String() string {
	switch c.Move {
	case Open, Flag, Chord:
		return fmt.Sprintf("%s %d %d", commandLetters[c.Move], c.Row, c.Col)
	default:
		return commandLetters[c.Move]
	}
}

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrArgCount       = errors.New("invalid number of arguments")
)

var commandLetters = map[Move]string{
	Noop:    "g",
	Open:    "o",
	Flag:    "f",
	Chord:   "c",
	Forfeit: "r",
}

// Maps known commands to their move and number of arguments
var commandNargs = map[string]struct {
	move  Move
	nargs int
}{
	"g": {Noop, 0},
	"o": {Open, 2},
	"f": {Flag, 2},
	"c": {Chord, 2},
	"r": {Forfeit, 0},
}

func parseRowCol(twoStrings []string) (r int, c int, err error) {
	if r, err = strconv.Atoi(twoStrings[0]); err != nil {
		err = errors.New("row must be an int")
		return
	}
	if c, err = strconv.Atoi(twoStrings[1]); err != nil {
		err = errors.New("col must be an int")
		return
	}
	return
}

// ParseCommand reads one line of the text protocol:
//
//	g      // no-op, just report the state
//	o r c  // open the cell at row r, column c
//	f r c  // toggle a flag
//	c r c  // chord
//	r      // forfeit and reveal the board
func ParseCommand(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, ErrUnknownCommand
	}
	known, ok := commandNargs[parts[0]]
	if !ok {
		return Command{}, ErrUnknownCommand
	}
	if known.nargs != len(parts)-1 {
		return Command{}, ErrArgCount
	}
	cmd := Command{Move: known.move}
	if known.nargs == 2 {
		r, c, err := parseRowCol(parts[1:])
		if err != nil {
			return Command{}, err
		}
		cmd.Row, cmd.Col = r, c
	}
	return cmd, nil
}

type BatchError struct {
	Line int
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func byPiece(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

// ParseBatch parses newline-separated commands. Blank lines are skipped. A
// malformed line fails the whole batch with a [*BatchError].
func ParseBatch(text string) ([]Command, error) {
	var cmds []Command
	for i, line := range byPiece(strings.TrimSpace(text), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := ParseCommand(line)
		if err != nil {
			return nil, &BatchError{Line: i, Err: err}
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
