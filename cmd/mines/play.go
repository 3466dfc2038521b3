package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/session"
)

const help = `commands:
  o ROW COL   open a cell
  f ROW COL   toggle a flag
  c ROW COL   open the neighbours of a satisfied number
  r           give up and show the board
  g           redraw
  q           quit
`

type game struct {
	session *session.Session
	in      io.Reader
	out     io.Writer
	now     func() time.Time
}

func (g *game) render() {
	b := g.session.Board
	grid := b.Grid()

	var sb strings.Builder
	sb.WriteString("    ")
	for c := range b.Cols() {
		fmt.Fprintf(&sb, "%d ", c%10)
	}
	sb.WriteString("\n")
	for r := range b.Rows() {
		fmt.Fprintf(&sb, "%3d ", r)
		for c := range b.Cols() {
			sb.WriteString(grid[r*b.Cols()+c].String())
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "mines left: %d   time: %s\n",
		g.session.MinesRemaining(),
		g.session.Elapsed(g.now()).Truncate(time.Second))

	io.WriteString(g.out, sb.String())
}

func (g *game) announce() {
	elapsed := g.session.Elapsed(g.now()).Truncate(time.Millisecond)
	switch g.session.Status() {
	case mines.Won:
		fmt.Fprintf(g.out, "cleared in %s\n", elapsed)
	case mines.Lost:
		fmt.Fprintf(g.out, "game over after %s\n", elapsed)
	}
	log.WithFields(logrus.Fields{
		"status":  g.session.Status().String(),
		"elapsed": elapsed.String(),
	}).Info("game ended")
}

// play reads commands until the game ends, the input runs out or the player
// quits.
func (g *game) play() error {
	io.WriteString(g.out, help)
	g.render()

	scanner := bufio.NewScanner(g.in)
	for !g.session.Ended() {
		io.WriteString(g.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "q", "quit":
			log.Info("player quit")
			return nil
		case "h", "help", "?":
			io.WriteString(g.out, help)
			continue
		}

		cmd, err := session.ParseCommand(line)
		if err != nil {
			fmt.Fprintf(g.out, "%v, type h for help\n", err)
			continue
		}
		res, err := g.session.Apply(cmd, g.now())
		if err != nil {
			fmt.Fprintln(g.out, err)
			continue
		}
		log.WithFields(logrus.Fields{
			"command": cmd.String(),
			"result":  res.String(),
		}).Debug("command applied")

		if res == mines.NoChange && cmd.Move != session.Noop {
			io.WriteString(g.out, "nothing to do there\n")
			continue
		}
		g.render()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if g.session.Ended() {
		g.announce()
	}
	return nil
}
