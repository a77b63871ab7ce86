package httpapi

import (
	"net/http"

	"github.com/gridpool/pickem-league/internal/usecase"
)

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	season, err := queryInt(r, "season")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	week, err := optionalQueryInt(r, "week")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.standingsService.Standings(ctx, usecase.StandingsQuery{
		Season:      season,
		Week:        week,
		SettledOnly: queryBool(r, "settled_only"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "standings read failed", "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, boardToDTO(board))
}

func (h *Handler) GetBestFinishStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetBestFinishStandings")
	defer span.End()

	season, err := queryInt(r, "season")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	lastWeeks, err := queryInt(r, "last_weeks")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	board, err := h.standingsService.BestFinish(ctx, season, lastWeeks, queryBool(r, "settled_only"))
	if err != nil {
		h.logger.WarnContext(ctx, "best finish read failed",
			"season", season,
			"last_weeks", lastWeeks,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, boardToDTO(board))
}

func (h *Handler) GetStandingsOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandingsOverview")
	defer span.End()

	season, err := queryInt(r, "season")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	week, err := queryInt(r, "week")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	lastWeeks, err := queryInt(r, "last_weeks")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	overview, err := h.standingsService.Overview(ctx, season, week, lastWeeks)
	if err != nil {
		h.logger.WarnContext(ctx, "standings overview failed", "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]standingsBoardDTO{
		"season":      boardToDTO(overview.Season),
		"week":        boardToDTO(overview.Week),
		"best_finish": boardToDTO(overview.BestFinish),
	})
}
