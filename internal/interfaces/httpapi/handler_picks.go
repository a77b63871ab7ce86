package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/gridpool/pickem-league/internal/domain/contest"
	"github.com/gridpool/pickem-league/internal/usecase"
)

type submitPickRequest struct {
	ContestID string `json:"contest_id" validate:"required"`
	Side      string `json:"side" validate:"required,oneof=HOME AWAY home away"`
	IsLock    bool   `json:"is_lock"`
}

type submitWeekPicksRequest struct {
	Season int                 `json:"season" validate:"required,min=2000"`
	Week   int                 `json:"week" validate:"required,min=1,max=30"`
	Picks  []submitPickRequest `json:"picks" validate:"required,min=1,dive"`
}

func (h *Handler) SubmitWeekPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitWeekPicks")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req submitWeekPicksRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.SubmitWeekPicksInput{
		Season: req.Season,
		Week:   req.Week,
		Picks:  make([]usecase.SubmitPickInput, 0, len(req.Picks)),
	}
	for _, row := range req.Picks {
		input.Picks = append(input.Picks, usecase.SubmitPickInput{
			ContestID: row.ContestID,
			Side:      contest.NormalizeSide(row.Side),
			IsLock:    row.IsLock,
		})
	}

	rows, err := h.pickService.SubmitWeekPicks(ctx, principal, input)
	if err != nil {
		h.logger.WarnContext(ctx, "submit week picks failed",
			"user_id", principal.UserID,
			"season", req.Season,
			"week", req.Week,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	items := make([]pickDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, pickToDTO(row))
	}
	writeSuccess(ctx, w, http.StatusCreated, items)
}

func (h *Handler) ListWeekPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWeekPicks")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

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

	rows, err := h.pickService.WeekPicks(ctx, principal, season, week)
	if err != nil {
		h.logger.WarnContext(ctx, "list week picks failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]pickDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, pickToDTO(row))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RetractWeekPicks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RetractWeekPicks")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

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

	if err := h.pickService.RetractWeekPicks(ctx, principal, season, week); err != nil {
		h.logger.WarnContext(ctx, "retract week picks failed",
			"user_id", principal.UserID,
			"season", season,
			"week", week,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "retracted"})
}

func (h *Handler) ClaimGuestSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClaimGuestSet")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	setID := r.PathValue("setID")
	if setID == "" {
		writeError(ctx, w, fmt.Errorf("%w: set id is required", usecase.ErrInvalidInput))
		return
	}

	if err := h.precedenceService.ClaimGuestSet(ctx, setID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "claim guest set failed",
			"user_id", principal.UserID,
			"set_id", setID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{
		"set_id": setID,
		"status": "claimed",
	})
}
