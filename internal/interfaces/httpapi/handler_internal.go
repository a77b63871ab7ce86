package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridpool/pickem-league/internal/domain/precedence"
	"github.com/gridpool/pickem-league/internal/usecase"
)

type scoreUpdateRequest struct {
	HomeScore *int   `json:"home_score"`
	AwayScore *int   `json:"away_score"`
	Status    string `json:"status" validate:"required"`
	Clock     string `json:"clock"`
}

func (h *Handler) ApplyScoreUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyScoreUpdate")
	defer span.End()

	contestID := r.PathValue("contestID")
	if contestID == "" {
		writeError(ctx, w, fmt.Errorf("%w: contest id is required", usecase.ErrInvalidInput))
		return
	}

	var req scoreUpdateRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.ingestionService.ApplyScoreUpdate(ctx, usecase.ScoreUpdateInput{
		ContestID: contestID,
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
		Status:    req.Status,
		Clock:     req.Clock,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "score update failed", "contest_id", contestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ResolveContest(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveContest")
	defer span.End()

	contestID := r.PathValue("contestID")
	if contestID == "" {
		writeError(ctx, w, fmt.Errorf("%w: contest id is required", usecase.ErrInvalidInput))
		return
	}

	result, err := h.batchService.ResolveContest(ctx, contestID)
	if err != nil {
		h.logger.WarnContext(ctx, "contest resolution failed", "contest_id", contestID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ResolvePeriod(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolvePeriod")
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

	summary, err := h.batchService.ResolvePeriod(ctx, season, week)
	if err != nil {
		h.logger.ErrorContext(ctx, "period resolution failed",
			"season", season,
			"week", week,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}

type recomputeOutcomeRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	Actor  string `json:"actor" validate:"required"`
}

// RecomputeContestOutcome replaces a frozen outcome and regrades the contest.
// The reason and actor end up in the audit log, so both are required.
func (h *Handler) RecomputeContestOutcome(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecomputeContestOutcome")
	defer span.End()

	contestID := r.PathValue("contestID")
	if contestID == "" {
		writeError(ctx, w, fmt.Errorf("%w: contest id is required", usecase.ErrInvalidInput))
		return
	}

	var req recomputeOutcomeRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.batchService.RecomputeContest(ctx, contestID, req.Reason, req.Actor)
	if err != nil {
		h.logger.WarnContext(ctx, "contest outcome recompute failed",
			"contest_id", contestID,
			"actor", req.Actor,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

type precedenceOverrideRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Season  int    `json:"season" validate:"required,min=2000"`
	Week    int    `json:"week" validate:"required,min=1,max=30"`
	Channel string `json:"channel" validate:"required,oneof=IDENTIFIED GUEST identified guest"`
	Reason  string `json:"reason" validate:"required,max=500"`
	Actor   string `json:"actor" validate:"required"`
}

func (h *Handler) OverridePrecedence(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OverridePrecedence")
	defer span.End()

	var req precedenceOverrideRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	err := h.precedenceService.OverridePrecedence(ctx, usecase.OverrideInput{
		UserID:  req.UserID,
		Season:  req.Season,
		Week:    req.Week,
		Channel: precedence.Channel(strings.ToUpper(req.Channel)),
		Reason:  req.Reason,
		Actor:   req.Actor,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "precedence override failed",
			"user_id", req.UserID,
			"season", req.Season,
			"week", req.Week,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "override applied"})
}

func (h *Handler) ClearPrecedenceOverride(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearPrecedenceOverride")
	defer span.End()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(ctx, w, fmt.Errorf("%w: user_id query parameter is required", usecase.ErrInvalidInput))
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

	if err := h.precedenceService.ClearOverride(ctx, userID, season, week); err != nil {
		h.logger.WarnContext(ctx, "clear precedence override failed",
			"user_id", userID,
			"season", season,
			"week", week,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "override cleared"})
}

type guestVisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

func (h *Handler) SetGuestSetVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetGuestSetVisibility")
	defer span.End()

	setID := r.PathValue("setID")
	if setID == "" {
		writeError(ctx, w, fmt.Errorf("%w: set id is required", usecase.ErrInvalidInput))
		return
	}

	var req guestVisibilityRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.precedenceService.SetGuestSetVisibility(ctx, setID, *req.Visible); err != nil {
		h.logger.WarnContext(ctx, "set guest visibility failed",
			"set_id", setID,
			"visible", *req.Visible,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"set_id":  setID,
		"visible": *req.Visible,
	})
}
