// Package service ties the Riot API, the store and the impact scoring
// together: read-through caching of Riot payloads, per-match analysis and
// per-player aggregation of impact categories.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"leagueback/internal/impact"
	"leagueback/internal/riot"
	"leagueback/internal/store"
)

// DefaultRecent is the number of matches in the recent category tally.
const DefaultRecent = 10

// fetchTimeout bounds a shared match or timeline load, which runs detached
// from the caller that started it.
const fetchTimeout = 45 * time.Second

// RiotAPI is the subset of riot.Client used by the service.
type RiotAPI interface {
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error)
	GetMatchHistory(ctx context.Context, puuid string, count, start int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.MatchResponse, error)
	GetTimeline(ctx context.Context, matchID string) (*riot.TimelineResponse, error)
}

// Service answers every player-facing query.
type Service struct {
	api   RiotAPI
	store store.Store
	log   *zap.Logger
	group singleflight.Group
}

// New creates a Service.
func New(api RiotAPI, st store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: api, store: st, log: log.Named("service")}
}

// Analysis is the result of analyzing one match for one player.
type Analysis struct {
	Summary  *impact.MatchSummary `json:"matchSummary"`
	Category impact.Category      `json:"category"`
}

// Page selects a window of stored matches, newest first. A zero Limit
// selects every stored match.
type Page struct {
	Limit  int
	Offset int
}

// StoredMatches is the reconstruction of the analyzed matches of a player.
// StoredCount counts every stored match, not just the returned page.
type StoredMatches struct {
	Matches      []*impact.MatchSummary `json:"matches"`
	StoredCount  int                    `json:"storedCount"`
	HasMoreInAPI bool                   `json:"hasMoreInApi"`
}

// CategoryReport tallies a player's categories over all and recent matches.
type CategoryReport struct {
	Categories []impact.Category `json:"categories"`
	Lifetime   impact.Counts     `json:"lifetime"`
	Recent     impact.Counts     `json:"recent"`
}

// Account resolves a Riot ID, caching the account.
func (s *Service) Account(ctx context.Context, gameName, tagLine string) (*riot.AccountResponse, error) {
	acc, err := s.store.GetAccount(ctx, gameName, tagLine)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.log.Warn("account cache lookup failed", zap.String("game_name", gameName), zap.Error(err))
	}

	acc, err = s.api.GetAccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := s.store.UpsertAccount(ctx, acc); err != nil {
		s.log.Warn("failed to cache account", zap.String("puuid", acc.PUUID), zap.Error(err))
	}
	return acc, nil
}

// MatchHistory returns ranked match ids, always fresh from the API.
func (s *Service) MatchHistory(ctx context.Context, puuid string, count, start int) ([]string, error) {
	ids, err := s.api.GetMatchHistory(ctx, puuid, count, start)
	if err != nil {
		return nil, fmt.Errorf("failed to get match history: %w", err)
	}
	return ids, nil
}

// Match returns match details from the cache or the API.
func (s *Service) Match(ctx context.Context, matchID string) (*riot.MatchResponse, error) {
	v, err := s.shared(ctx, "match:"+matchID, func(ctx context.Context) (interface{}, error) {
		if m, err := s.store.GetMatch(ctx, matchID); err == nil {
			return m, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("match cache lookup failed", zap.String("match_id", matchID), zap.Error(err))
		}

		m, err := s.api.GetMatch(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to get match details: %w", err)
		}
		if err := s.store.PutMatch(ctx, matchID, m); err != nil {
			s.log.Warn("failed to cache match", zap.String("match_id", matchID), zap.Error(err))
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*riot.MatchResponse), nil
}

// Timeline returns a match timeline from the cache or the API.
func (s *Service) Timeline(ctx context.Context, matchID string) (*riot.TimelineResponse, error) {
	v, err := s.shared(ctx, "timeline:"+matchID, func(ctx context.Context) (interface{}, error) {
		if t, err := s.store.GetTimeline(ctx, matchID); err == nil {
			return t, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("timeline cache lookup failed", zap.String("match_id", matchID), zap.Error(err))
		}

		t, err := s.api.GetTimeline(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to get match timeline: %w", err)
		}
		if err := s.store.PutTimeline(ctx, matchID, t); err != nil {
			s.log.Warn("failed to cache timeline", zap.String("match_id", matchID), zap.Error(err))
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*riot.TimelineResponse), nil
}

// shared runs load once per key across concurrent callers. Each caller
// stops waiting when its own ctx is done; the load itself keeps running
// under a detached context bounded by fetchTimeout.
func (s *Service) shared(ctx context.Context, key string, load func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return load(loadCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AnalyzeMatch scores one match for puuid and records its category.
func (s *Service) AnalyzeMatch(ctx context.Context, matchID, puuid string) (*Analysis, error) {
	var (
		match    *riot.MatchResponse
		timeline *riot.TimelineResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		match, err = s.Match(gctx, matchID)
		return err
	})
	g.Go(func() error {
		var err error
		timeline, err = s.Timeline(gctx, matchID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, err := impact.Reconstruct(matchID, puuid, match, timeline)
	if err != nil {
		return nil, err
	}
	category := summary.Category()

	if err := s.store.UpsertCategory(ctx, matchID, puuid, category); err != nil {
		s.log.Error("failed to store impact category",
			zap.String("match_id", matchID),
			zap.String("puuid", puuid),
			zap.Error(err))
	}

	return &Analysis{Summary: summary, Category: category}, nil
}

// StoredMatches rebuilds the analyzed matches of puuid in page from the
// cache. Matches that cannot be rebuilt are logged and skipped.
func (s *Service) StoredMatches(ctx context.Context, puuid string, page Page) (*StoredMatches, error) {
	var (
		ids   []string
		total int
		err   error
	)
	if page.Limit > 0 {
		ids, total, err = s.store.PaginatedMatchIDs(ctx, puuid, page.Limit, page.Offset)
	} else {
		ids, err = s.store.StoredMatchIDs(ctx, puuid)
		total = len(ids)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list stored matches: %w", err)
	}

	if total == 0 {
		latest, err := s.api.GetMatchHistory(ctx, puuid, 1, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to get match history: %w", err)
		}
		return &StoredMatches{Matches: []*impact.MatchSummary{}, HasMoreInAPI: len(latest) > 0}, nil
	}

	var (
		matches   map[string]*riot.MatchResponse
		timelines map[string]*riot.TimelineResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.store.GetMatches(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		timelines, err = s.store.GetTimelines(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load stored matches: %w", err)
	}

	summaries := make([]*impact.MatchSummary, 0, len(ids))
	for _, id := range ids {
		m, t := matches[id], timelines[id]
		if m == nil || t == nil {
			continue
		}
		summary, err := impact.Reconstruct(id, puuid, m, t)
		if err != nil {
			s.log.Warn("skipping stored match", zap.String("match_id", id), zap.Error(err))
			continue
		}
		summaries = append(summaries, summary)
	}

	// the API is compared against everything stored, not just this page
	known := ids
	if page.Limit > 0 {
		if known, err = s.store.StoredMatchIDs(ctx, puuid); err != nil {
			return nil, fmt.Errorf("failed to list stored matches: %w", err)
		}
	}

	hasMore, err := s.hasMoreInAPI(ctx, puuid, known)
	if err != nil {
		return nil, err
	}

	return &StoredMatches{
		Matches:      summaries,
		StoredCount:  total,
		HasMoreInAPI: hasMore,
	}, nil
}

// hasMoreInAPI asks for a history page larger than the stored set: any id
// not yet stored, or a full page, means more matches remain.
func (s *Service) hasMoreInAPI(ctx context.Context, puuid string, stored []string) (bool, error) {
	checkSize := len(stored) + 5
	if checkSize < 20 {
		checkSize = 20
	}

	apiIDs, err := s.api.GetMatchHistory(ctx, puuid, checkSize, 0)
	if err != nil {
		return false, fmt.Errorf("failed to get match history: %w", err)
	}

	known := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		known[id] = struct{}{}
	}
	for _, id := range apiIDs {
		if _, ok := known[id]; !ok {
			return true, nil
		}
	}
	return len(apiIDs) >= checkSize, nil
}

// ImpactCategories tallies puuid's categories over all and the latest
// recent matches.
func (s *Service) ImpactCategories(ctx context.Context, puuid string, recent int) (*CategoryReport, error) {
	if recent <= 0 {
		recent = DefaultRecent
	}

	all, err := s.store.Categories(ctx, puuid)
	if err != nil {
		return nil, fmt.Errorf("failed to load impact categories: %w", err)
	}
	latest, err := s.store.RecentCategories(ctx, puuid, recent)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent impact categories: %w", err)
	}

	if all == nil {
		all = []impact.Category{}
	}
	return &CategoryReport{
		Categories: all,
		Lifetime:   impact.CountCategories(all),
		Recent:     impact.CountCategories(latest),
	}, nil
}
