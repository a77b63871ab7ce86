package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/domain/standings"
	"github.com/gridpool/pickem-league/internal/platform/logging"
	"github.com/gridpool/pickem-league/internal/usecase"
)

type Handler struct {
	pickService       *usecase.PickService
	guestService      *usecase.GuestService
	standingsService  *usecase.StandingsService
	precedenceService *usecase.PrecedenceService
	ingestionService  *usecase.IngestionService
	batchService      *usecase.BatchService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	pickService *usecase.PickService,
	guestService *usecase.GuestService,
	standingsService *usecase.StandingsService,
	precedenceService *usecase.PrecedenceService,
	ingestionService *usecase.IngestionService,
	batchService *usecase.BatchService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		pickService:       pickService,
		guestService:      guestService,
		standingsService:  standingsService,
		precedenceService: precedenceService,
		ingestionService:  ingestionService,
		batchService:      batchService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s query parameter is required", usecase.ErrInvalidInput, name)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return value, nil
}

func optionalQueryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return &value, nil
}

func queryBool(r *http.Request, name string) bool {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	value, err := strconv.ParseBool(raw)
	return err == nil && value
}

type pickDTO struct {
	ID        string `json:"id"`
	ContestID string `json:"contest_id"`
	Season    int    `json:"season"`
	Week      int    `json:"week"`
	Side      string `json:"side"`
	IsLock    bool   `json:"is_lock"`
	Visible   bool   `json:"visible"`
	Active    bool   `json:"active"`
	Result    string `json:"result"`
	Points    int    `json:"points"`
	CreatedAt string `json:"created_at"`
}

type guestPickDTO struct {
	ID          string `json:"id"`
	SetID       string `json:"set_id"`
	DisplayName string `json:"display_name"`
	ContestID   string `json:"contest_id"`
	Season      int    `json:"season"`
	Week        int    `json:"week"`
	Side        string `json:"side"`
	IsLock      bool   `json:"is_lock"`
	Visible     bool   `json:"visible"`
	Active      bool   `json:"active"`
	Validation  string `json:"validation"`
	Claimed     bool   `json:"claimed"`
	Result      string `json:"result"`
	Points      int    `json:"points"`
	CreatedAt   string `json:"created_at"`
}

type standingsEntryDTO struct {
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	Guest       bool   `json:"guest"`
	Rank        int    `json:"rank"`
	Submissions int    `json:"submissions"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Pushes      int    `json:"pushes"`
	LockWins    int    `json:"lock_wins"`
	LockLosses  int    `json:"lock_losses"`
	TotalPoints int    `json:"total_points"`
	Settlement  string `json:"settlement,omitempty"`
}

type standingsBoardDTO struct {
	Season            int                 `json:"season"`
	Week              *int                `json:"week,omitempty"`
	LastWeeks         int                 `json:"last_weeks,omitempty"`
	SettlementApplied bool                `json:"settlement_applied"`
	GeneratedAt       string              `json:"generated_at"`
	Entries           []standingsEntryDTO `json:"entries"`
}

func pickToDTO(v pick.Pick) pickDTO {
	return pickDTO{
		ID:        v.ID,
		ContestID: v.ContestID,
		Season:    v.Season,
		Week:      v.Week,
		Side:      string(v.Side),
		IsLock:    v.IsLock,
		Visible:   v.Visible,
		Active:    v.Active,
		Result:    string(v.Result),
		Points:    v.Points,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func guestPickToDTO(v guestpick.GuestPick) guestPickDTO {
	return guestPickDTO{
		ID:          v.ID,
		SetID:       v.SetID,
		DisplayName: v.DisplayName,
		ContestID:   v.ContestID,
		Season:      v.Season,
		Week:        v.Week,
		Side:        string(v.Side),
		IsLock:      v.IsLock,
		Visible:     v.Visible,
		Active:      v.Active,
		Validation:  string(v.Validation),
		Claimed:     v.Claimed(),
		Result:      string(v.Result),
		Points:      v.Points,
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func boardToDTO(board standings.Board) standingsBoardDTO {
	entries := make([]standingsEntryDTO, 0, len(board.Entries))
	for _, entry := range board.Entries {
		entries = append(entries, standingsEntryDTO{
			IdentityID:  entry.IdentityID,
			DisplayName: entry.DisplayName,
			Guest:       entry.Guest,
			Rank:        entry.Rank,
			Submissions: entry.Submissions,
			Wins:        entry.Wins,
			Losses:      entry.Losses,
			Pushes:      entry.Pushes,
			LockWins:    entry.LockWins,
			LockLosses:  entry.LockLosses,
			TotalPoints: entry.TotalPoints,
			Settlement:  string(entry.Settlement),
		})
	}

	return standingsBoardDTO{
		Season:            board.Season,
		Week:              board.Week,
		LastWeeks:         board.LastWeeks,
		SettlementApplied: board.SettlementApplied,
		GeneratedAt:       board.GeneratedAt.UTC().Format(time.RFC3339),
		Entries:           entries,
	}
}
