package handlers

import (
	"fmt"
	"strconv"

	"github.com/gorilla/schema"

	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/session"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec
}

type NewGameDTO struct {
	Rows  int `schema:"rows,required"`
	Cols  int `schema:"cols,required"`
	Mines int `schema:"mines,required"`
}

// MaxCells caps the boards clients may ask for.
const MaxCells = 1 << 16

var ErrBoardTooLarge = fmt.Errorf("board must have at most %d cells", MaxCells)

func ParseNewGameDTO(src map[string][]string) (mines.Params, error) {
	var dto NewGameDTO
	if err := decoder.Decode(&dto, src); err != nil {
		return mines.Params{}, err
	}
	p := mines.Params(dto)
	if err := p.Validate(); err != nil {
		return p, err
	}
	if p.Cells() > MaxCells {
		return p, &mines.ParamsError{Params: p, Err: ErrBoardTooLarge}
	}
	return p, nil
}

type PositionDTO struct {
	Row int `schema:"row,required"`
	Col int `schema:"col,required"`
}

func ParsePosition(src map[string][]string) (PositionDTO, error) {
	var dto PositionDTO
	err := decoder.Decode(&dto, src)
	return dto, err
}

type GameSessionDTO struct {
	GameSessionID  string       `json:"game_session_id"`
	Grid           mines.Grid   `json:"grid"`
	Rows           int          `json:"rows"`
	Cols           int          `json:"cols"`
	Mines          int          `json:"mines"`
	MinesRemaining int          `json:"mines_remaining"`
	Status         mines.Status `json:"status"`
	Dead           bool         `json:"dead"`
	Won            bool         `json:"won"`
	StartedAt      int64        `json:"started_at"`
	EndedAt        *int64       `json:"ended_at,omitempty"`
	Changed        bool         `json:"changed"`
}

func NewGameSessionDTO(s *session.Session, res mines.Result) *GameSessionDTO {
	var endedAt *int64
	if s.EndedAt != nil {
		e := s.EndedAt.UnixMilli()
		endedAt = &e
	}
	status := s.Status()
	return &GameSessionDTO{
		GameSessionID:  strconv.FormatInt(s.ID, 10),
		Grid:           s.Board.Grid(),
		Rows:           s.Board.Rows(),
		Cols:           s.Board.Cols(),
		Mines:          s.Board.Mines(),
		MinesRemaining: s.MinesRemaining(),
		Status:         status,
		Dead:           status == mines.Lost,
		Won:            status == mines.Won,
		StartedAt:      s.StartedAt.UnixMilli(),
		EndedAt:        endedAt,
		Changed:        res == mines.Changed,
	}
}
