package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
	flag "github.com/spf13/pflag"

	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/session"
)

var log = logrus.New()

var (
	rows    = flag.IntP("rows", "r", 9, "number of rows")
	cols    = flag.IntP("cols", "c", 9, "number of columns")
	count   = flag.IntP("mines", "m", 10, "number of mines")
	board   = flag.StringP("board", "b", "", `board as "rows:cols:mines", overrides --rows, --cols and --mines`)
	seed    = flag.Uint64("seed", 0, "seed for the mine layout, 0 picks one at random")
	logFile = flag.String("log-file", "", "write a rotating debug log to this file")
	verbose = flag.BoolP("verbose", "v", false, "log at debug level")
)

func setupLogging() error {
	log.SetOutput(io.Discard)
	level := logrus.InfoLevel
	if *verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	if *logFile == "" {
		return nil
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   *logFile,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      level,
		Formatter:  &logrus.JSONFormatter{TimestampFormat: time.RFC3339},
	})
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	log.AddHook(hook)
	return nil
}

func params() (mines.Params, error) {
	if *board != "" {
		return mines.ParseParams(*board)
	}
	p := mines.Params{Rows: *rows, Cols: *cols, Mines: *count}
	return p, p.Validate()
}

func newRand() *rand.Rand {
	if *seed == 0 {
		return mines.NewRand()
	}
	return rand.New(rand.NewPCG(*seed, *seed))
}

func main() {
	flag.Parse()

	if err := setupLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p, err := params()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	b, err := mines.New(p.Rows, p.Cols, p.Mines, newRand())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.WithFields(logrus.Fields{"params": p.Seed(), "seed": *seed}).Info("new game")

	g := &game{
		session: session.New(b, nil, time.Now()),
		in:      os.Stdin,
		out:     os.Stdout,
		now:     time.Now,
	}
	if err := g.play(); err != nil {
		log.WithError(err).Error("game aborted")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
