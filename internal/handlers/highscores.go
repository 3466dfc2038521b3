package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vancomm/gridsweeper/internal/mines"
	"github.com/vancomm/gridsweeper/internal/repository"
)

type HighscoreSource interface {
	Highscores(ctx context.Context, filter repository.HighscoreFilter) ([]repository.Highscore, error)
}

type HighscoresDTO struct {
	Username string `schema:"username"`
	Rows     int    `schema:"rows"`
	Cols     int    `schema:"cols"`
	Mines    int    `schema:"mines"`
	Limit    int    `schema:"limit"`
}

// Filter turns the query into a repository filter. Board params only apply
// when all three are given.
func (dto HighscoresDTO) Filter() (repository.HighscoreFilter, error) {
	filter := repository.HighscoreFilter{Limit: dto.Limit}
	if dto.Username != "" {
		filter.Username = &dto.Username
	}
	if dto.Rows != 0 || dto.Cols != 0 || dto.Mines != 0 {
		p := mines.Params{Rows: dto.Rows, Cols: dto.Cols, Mines: dto.Mines}
		if err := p.Validate(); err != nil {
			return filter, err
		}
		filter.Params = &p
	}
	return filter, nil
}

func Highscores(logger *slog.Logger, source HighscoreSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var dto HighscoresDTO
		if err := decoder.Decode(&dto, r.URL.Query()); err != nil {
			sendErrorOrLog(w, logger, http.StatusBadRequest, err)
			return
		}
		filter, err := dto.Filter()
		if err != nil {
			sendErrorOrLog(w, logger, http.StatusBadRequest, err)
			return
		}

		highscores, err := source.Highscores(r.Context(), filter)
		if err != nil {
			internalError(w, logger, "unable to fetch highscores", err)
			return
		}
		sendJSONOrLog(w, logger, highscores)
	}
}
