package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/gridpool/pickem-league/internal/domain/guestpick"
	"github.com/gridpool/pickem-league/internal/domain/pick"
	"github.com/gridpool/pickem-league/internal/domain/settlement"
	"github.com/gridpool/pickem-league/internal/domain/standings"
	"github.com/gridpool/pickem-league/internal/platform/cache"
	"github.com/gridpool/pickem-league/internal/platform/logging"
)

// StandingsService derives leaderboards from the submission ledger at read
// time. Nothing here is stored back; a board is a pure function of the active,
// visible, resolved rows it reads.
type StandingsService struct {
	pickRepo   pick.Repository
	guestRepo  guestpick.Repository
	settlement settlement.Provider
	cache      *cache.Store
	logger     *logging.Logger
	now        func() time.Time
}

func NewStandingsService(
	pickRepo pick.Repository,
	guestRepo guestpick.Repository,
	settlementProvider settlement.Provider,
	cacheStore *cache.Store,
	logger *logging.Logger,
) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StandingsService{
		pickRepo:   pickRepo,
		guestRepo:  guestRepo,
		settlement: settlementProvider,
		cache:      cacheStore,
		logger:     logger,
		now:        time.Now,
	}
}

type StandingsQuery struct {
	Season      int
	Week        *int
	SettledOnly bool
}

type StandingsOverview struct {
	Season     standings.Board
	Week       standings.Board
	BestFinish standings.Board
}

// countedRow is one ledger row that counts toward standings, normalized
// across both channels.
type countedRow struct {
	identityID  string
	displayName string
	guest       bool
	week        int
	result      pick.Result
	points      int
	isLock      bool
}

// Standings builds the season or single-week board.
func (s *StandingsService) Standings(ctx context.Context, query StandingsQuery) (standings.Board, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.Standings")
	defer span.End()

	key := standingsCacheKey(query)
	board, err := s.loadBoard(ctx, key, func(ctx context.Context) (standings.Board, error) {
		rows, err := s.countedRows(ctx, query.Season, query.Week)
		if err != nil {
			return standings.Board{}, err
		}
		entries := aggregateEntries(rows)
		rankEntries(entries, false)

		board := standings.Board{
			Season:      query.Season,
			Week:        query.Week,
			Entries:     entries,
			GeneratedAt: s.now().UTC(),
		}
		return s.applySettlement(ctx, board, query.SettledOnly), nil
	})
	if err != nil {
		return standings.Board{}, err
	}
	return board, nil
}

// BestFinish ranks over the final lastWeeks distinct weeks of the season,
// adding win percentage tie-breaks so short samples still order well.
func (s *StandingsService) BestFinish(ctx context.Context, season, lastWeeks int, settledOnly bool) (standings.Board, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.BestFinish")
	defer span.End()

	if lastWeeks <= 0 {
		return standings.Board{}, fmt.Errorf("%w: last weeks must be greater than zero", ErrInvalidInput)
	}

	key := fmt.Sprintf("standings:%d:best:%d:settled=%t", season, lastWeeks, settledOnly)
	board, err := s.loadBoard(ctx, key, func(ctx context.Context) (standings.Board, error) {
		rows, err := s.countedRows(ctx, season, nil)
		if err != nil {
			return standings.Board{}, err
		}
		rows = filterFinalWeeks(rows, lastWeeks)
		entries := aggregateEntries(rows)
		rankEntries(entries, true)

		board := standings.Board{
			Season:      season,
			LastWeeks:   lastWeeks,
			Entries:     entries,
			GeneratedAt: s.now().UTC(),
		}
		return s.applySettlement(ctx, board, settledOnly), nil
	})
	if err != nil {
		return standings.Board{}, err
	}
	return board, nil
}

// Overview assembles the season, current-week, and best-finish boards in one
// call, computing the three concurrently.
func (s *StandingsService) Overview(ctx context.Context, season, week, lastWeeks int) (StandingsOverview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.Overview")
	defer span.End()

	var out StandingsOverview
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		board, err := s.Standings(ctx, StandingsQuery{Season: season})
		out.Season = board
		return err
	})
	p.Go(func(ctx context.Context) error {
		board, err := s.Standings(ctx, StandingsQuery{Season: season, Week: &week})
		out.Week = board
		return err
	})
	p.Go(func(ctx context.Context) error {
		board, err := s.BestFinish(ctx, season, lastWeeks, false)
		out.BestFinish = board
		return err
	})
	if err := p.Wait(); err != nil {
		return StandingsOverview{}, err
	}
	return out, nil
}

// InvalidateSeason drops every cached board for the season.
func (s *StandingsService) InvalidateSeason(season int) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePrefix(context.Background(), fmt.Sprintf("standings:%d:", season))
}

func (s *StandingsService) loadBoard(ctx context.Context, key string, build func(context.Context) (standings.Board, error)) (standings.Board, error) {
	if s.cache == nil {
		return build(ctx)
	}
	value, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return build(ctx)
	})
	if err != nil {
		return standings.Board{}, err
	}
	board, ok := value.(standings.Board)
	if !ok {
		return build(ctx)
	}
	return board, nil
}

func (s *StandingsService) countedRows(ctx context.Context, season int, week *int) ([]countedRow, error) {
	picks, err := s.pickRepo.ListBySeason(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("list picks by season: %w", err)
	}
	guests, err := s.guestRepo.ListBySeason(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("list guest picks by season: %w", err)
	}

	out := make([]countedRow, 0, len(picks)+len(guests))
	for _, row := range picks {
		if !row.Active || !row.Visible || !resolvedResult(row.Result) {
			continue
		}
		if week != nil && row.Week != *week {
			continue
		}
		out = append(out, countedRow{
			identityID:  row.UserID,
			displayName: row.DisplayName,
			week:        row.Week,
			result:      row.Result,
			points:      row.Points,
			isLock:      row.IsLock,
		})
	}
	for _, row := range guests {
		if !row.Active || !row.Visible || !resolvedResult(row.Result) {
			continue
		}
		if week != nil && row.Week != *week {
			continue
		}
		counted := countedRow{
			displayName: row.DisplayName,
			week:        row.Week,
			result:      row.Result,
			points:      row.Points,
			isLock:      row.IsLock,
		}
		if row.Claimed() {
			counted.identityID = *row.ClaimedByUserID
		} else {
			counted.identityID = "guest:" + row.SetID
			counted.guest = true
		}
		out = append(out, counted)
	}
	return out, nil
}

func (s *StandingsService) applySettlement(ctx context.Context, board standings.Board, settledOnly bool) standings.Board {
	for i := range board.Entries {
		board.Entries[i].Settlement = settlement.StatusUnknown
	}
	if s.settlement == nil {
		return board
	}

	statuses, err := s.settlement.StatusesBySeason(ctx, board.Season)
	if err != nil {
		// Standings stay readable when the payment side is down; the filter
		// is simply not applied.
		s.logger.WarnContext(ctx, "settlement provider unavailable, serving unfiltered standings",
			"season", board.Season,
			"error", err,
		)
		return board
	}

	for i := range board.Entries {
		if status, ok := statuses[board.Entries[i].IdentityID]; ok {
			board.Entries[i].Settlement = status
		}
	}
	board.SettlementApplied = true

	if settledOnly {
		filtered := make([]standings.Entry, 0, len(board.Entries))
		for _, entry := range board.Entries {
			if entry.Settlement == settlement.StatusPaid {
				filtered = append(filtered, entry)
			}
		}
		board.Entries = filtered
		reassignRanks(board.Entries)
	}
	return board
}

func resolvedResult(result pick.Result) bool {
	switch result {
	case pick.ResultWin, pick.ResultLoss, pick.ResultPush:
		return true
	default:
		return false
	}
}

func aggregateEntries(rows []countedRow) []standings.Entry {
	byIdentity := make(map[string]*standings.Entry)
	for _, row := range rows {
		entry, ok := byIdentity[row.identityID]
		if !ok {
			entry = &standings.Entry{
				IdentityID:  row.identityID,
				DisplayName: row.displayName,
				Guest:       row.guest,
			}
			byIdentity[row.identityID] = entry
		}
		entry.Submissions++
		entry.TotalPoints += row.points
		switch row.result {
		case pick.ResultWin:
			entry.Wins++
			if row.isLock {
				entry.LockWins++
			}
		case pick.ResultLoss:
			entry.Losses++
			if row.isLock {
				entry.LockLosses++
			}
		case pick.ResultPush:
			entry.Pushes++
		}
	}

	out := make([]standings.Entry, 0, len(byIdentity))
	for _, entry := range byIdentity {
		out = append(out, *entry)
	}
	return out
}

// rankEntries orders and dense-ranks entries. Best-finish boards extend the
// (points, wins) key with win percentages so small samples break ties.
func rankEntries(entries []standings.Entry, withPctTieBreaks bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		if withPctTieBreaks {
			if entries[i].WinPct() != entries[j].WinPct() {
				return entries[i].WinPct() > entries[j].WinPct()
			}
			if entries[i].LockWinPct() != entries[j].LockWinPct() {
				return entries[i].LockWinPct() > entries[j].LockWinPct()
			}
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	rank := 0
	for i := range entries {
		if i == 0 || !sameRankKey(entries[i-1], entries[i], withPctTieBreaks) {
			rank++
		}
		entries[i].Rank = rank
	}
}

func sameRankKey(a, b standings.Entry, withPctTieBreaks bool) bool {
	if a.TotalPoints != b.TotalPoints || a.Wins != b.Wins {
		return false
	}
	if !withPctTieBreaks {
		return true
	}
	return a.WinPct() == b.WinPct() && a.LockWinPct() == b.LockWinPct()
}

// reassignRanks re-densifies ranks after a filter removed entries. Ordering
// is already established.
func reassignRanks(entries []standings.Entry) {
	rank := 0
	lastRank := -1
	for i := range entries {
		if entries[i].Rank != lastRank {
			rank++
			lastRank = entries[i].Rank
		}
		entries[i].Rank = rank
	}
}

// filterFinalWeeks keeps rows from the last n distinct weeks that have any
// counted row.
func filterFinalWeeks(rows []countedRow, n int) []countedRow {
	weekSet := make(map[int]struct{})
	for _, row := range rows {
		weekSet[row.week] = struct{}{}
	}
	weeks := make([]int, 0, len(weekSet))
	for week := range weekSet {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)
	if len(weeks) > n {
		weeks = weeks[len(weeks)-n:]
	}

	keep := make(map[int]struct{}, len(weeks))
	for _, week := range weeks {
		keep[week] = struct{}{}
	}
	out := make([]countedRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := keep[row.week]; ok {
			out = append(out, row)
		}
	}
	return out
}

func standingsCacheKey(query StandingsQuery) string {
	if query.Week != nil {
		return fmt.Sprintf("standings:%d:week:%d:settled=%t", query.Season, *query.Week, query.SettledOnly)
	}
	return fmt.Sprintf("standings:%d:season:settled=%t", query.Season, query.SettledOnly)
}
