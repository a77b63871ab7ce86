package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/usecase"
)

type submitGuestPicksRequest struct {
	DisplayName string              `json:"display_name" validate:"required,max=60"`
	Season      int                 `json:"season" validate:"required,min=2000"`
	Week        int                 `json:"week" validate:"required,min=1,max=30"`
	Picks       []submitPickRequest `json:"picks" validate:"required,min=1,dive"`
}

func (h *Handler) SubmitGuestPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitGuestPicks")
	defer span.End()

	var req submitGuestPicksRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.SubmitGuestPicksInput{
		DisplayName: req.DisplayName,
		Season:      req.Season,
		Week:        req.Week,
		Picks:       make([]usecase.SubmitPickInput, 0, len(req.Picks)),
	}
	for _, row := range req.Picks {
		input.Picks = append(input.Picks, usecase.SubmitPickInput{
			ContestID: row.ContestID,
			Side:      contest.NormalizeSide(row.Side),
			IsLock:    row.IsLock,
		})
	}

	setID, rows, err := h.guestService.SubmitGuestPicks(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "submit guest picks failed",
			"season", req.Season,
			"week", req.Week,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	items := make([]guestPickDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, guestPickToDTO(row))
	}
	writeSuccess(ctx, w, http.StatusCreated, map[string]any{
		"set_id": setID,
		"picks":  items,
	})
}
