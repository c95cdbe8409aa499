// Package collector backfills impact analysis for a player's ranked history.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"go.uber.org/zap"

	"leagueback/internal/impact"
	"leagueback/internal/service"
	"leagueback/internal/storage"
)

const (
	// Worker pool configuration
	DefaultWorkerCount = 4
	DefaultPageSize    = 20
	DefaultPages       = 5
	MatchChannelBuffer = 100

	// Riot caps a history page at 100 ids
	maxPageSize = 100
)

// Analyzer is the part of the service the backfiller drives.
type Analyzer interface {
	MatchHistory(ctx context.Context, puuid string, count, start int) ([]string, error)
	AnalyzeMatch(ctx context.Context, matchID, puuid string) (*service.Analysis, error)
}

// Archive receives one record per analyzed match.
type Archive interface {
	Append(record interface{}) error
}

// Config holds configuration for the backfiller
type Config struct {
	PageSize    int
	Pages       int
	WorkerCount int
}

// MatchJob represents a match to be analyzed by workers
type MatchJob struct {
	MatchID string
	PUUID   string
}

// MatchResult holds the outcome of analyzing one match
type MatchResult struct {
	MatchID  string
	PUUID    string
	Analysis *service.Analysis
	Error    error
}

// Stats counts what a backfill run did. Every dispatched match ends up in
// exactly one of Analyzed, Skipped, Failed or Cancelled.
type Stats struct {
	Dispatched int64 `json:"dispatched"`
	Analyzed   int64 `json:"analyzed"`
	Skipped    int64 `json:"skipped"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
	Duplicates int64 `json:"duplicates"`
}

// Backfiller pages match history and analyzes every unseen match with a
// worker pool, archiving the results.
type Backfiller struct {
	svc     Analyzer
	archive Archive
	log     *zap.Logger
	now     func() time.Time

	pageSize    int
	pages       int
	workerCount int

	// Matches analyzed or skipped by any run. Failed and cancelled matches
	// stay out so a later run retries them.
	visited   *bloom.BloomFilter
	visitedMu sync.Mutex

	dispatched int64
	analyzed   int64
	skipped    int64
	failed     int64
	cancelled  int64
	duplicates int64
}

// NewBackfiller creates a backfiller. A nil archive discards results.
func NewBackfiller(svc Analyzer, archive Archive, log *zap.Logger, cfg Config) *Backfiller {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	if cfg.Pages <= 0 {
		cfg.Pages = DefaultPages
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Backfiller{
		svc:         svc,
		archive:     archive,
		log:         log.Named("backfill"),
		now:         time.Now,
		pageSize:    cfg.PageSize,
		pages:       cfg.Pages,
		workerCount: cfg.WorkerCount,
		visited:     bloom.NewWithEstimates(500000, 0.001),
	}
}

// Run backfills puuid. It returns the stats of this run; a cancelled context
// stops dispatching, drains the in-flight matches and returns ctx.Err().
func (b *Backfiller) Run(ctx context.Context, puuid string) (Stats, error) {
	before := b.Stats()
	start := b.now()

	jobs := make(chan MatchJob, MatchChannelBuffer)
	results := make(chan *MatchResult, MatchChannelBuffer)

	var workers sync.WaitGroup
	for i := 0; i < b.workerCount; i++ {
		workers.Add(1)
		go b.worker(ctx, &workers, jobs, results)
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		b.processResults(results)
	}()

	err := b.produce(ctx, puuid, jobs)

	close(jobs)
	workers.Wait()
	close(results)
	<-writerDone

	stats := b.Stats().sub(before)
	b.log.Info("backfill finished",
		zap.String("puuid", puuid),
		zap.Int64("dispatched", stats.Dispatched),
		zap.Int64("analyzed", stats.Analyzed),
		zap.Int64("skipped", stats.Skipped),
		zap.Int64("failed", stats.Failed),
		zap.Int64("cancelled", stats.Cancelled),
		zap.Int64("duplicates", stats.Duplicates),
		zap.Duration("elapsed", b.now().Sub(start)))

	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}

// produce pages the history of puuid and dispatches unseen match ids.
func (b *Backfiller) produce(ctx context.Context, puuid string, jobs chan<- MatchJob) error {
	dispatched := make(map[string]struct{})

	for page := 0; page < b.pages; page++ {
		if ctx.Err() != nil {
			return nil
		}

		ids, err := b.svc.MatchHistory(ctx, puuid, b.pageSize, page*b.pageSize)
		if err != nil {
			if page == 0 {
				return fmt.Errorf("failed to fetch match history: %w", err)
			}
			b.log.Warn("stopping at failed history page", zap.Int("page", page), zap.Error(err))
			return nil
		}

		b.log.Debug("fetched history page", zap.Int("page", page), zap.Int("matches", len(ids)))

		for _, matchID := range ids {
			if _, ok := dispatched[matchID]; ok || b.hasVisited(matchID) {
				atomic.AddInt64(&b.duplicates, 1)
				continue
			}
			dispatched[matchID] = struct{}{}

			select {
			case jobs <- MatchJob{MatchID: matchID, PUUID: puuid}:
				atomic.AddInt64(&b.dispatched, 1)
			case <-ctx.Done():
				return nil
			}
		}

		if len(ids) < b.pageSize {
			return nil
		}
	}
	return nil
}

func (b *Backfiller) hasVisited(matchID string) bool {
	b.visitedMu.Lock()
	defer b.visitedMu.Unlock()
	return b.visited.TestString(matchID)
}

func (b *Backfiller) markVisited(matchID string) {
	b.visitedMu.Lock()
	defer b.visitedMu.Unlock()
	b.visited.AddString(matchID)
}

// worker is a consumer that analyzes matches until jobs is closed
func (b *Backfiller) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan MatchJob, results chan<- *MatchResult) {
	defer wg.Done()

	for job := range jobs {
		result := &MatchResult{MatchID: job.MatchID, PUUID: job.PUUID}
		if err := ctx.Err(); err != nil {
			result.Error = err
		} else {
			result.Analysis, result.Error = b.svc.AnalyzeMatch(ctx, job.MatchID, job.PUUID)
		}
		results <- result
	}
}

// processResults archives analyzed matches and counts the rest.
func (b *Backfiller) processResults(results <-chan *MatchResult) {
	for result := range results {
		switch {
		case errors.Is(result.Error, impact.ErrParticipantNotFound):
			b.log.Info("player not in match, skipping", zap.String("match_id", result.MatchID))
			b.markVisited(result.MatchID)
			atomic.AddInt64(&b.skipped, 1)
			continue
		case errors.Is(result.Error, context.Canceled), errors.Is(result.Error, context.DeadlineExceeded):
			atomic.AddInt64(&b.cancelled, 1)
			continue
		case result.Error != nil:
			b.log.Warn("failed to analyze match", zap.String("match_id", result.MatchID), zap.Error(result.Error))
			atomic.AddInt64(&b.failed, 1)
			continue
		}

		b.markVisited(result.MatchID)
		atomic.AddInt64(&b.analyzed, 1)
		if b.archive == nil {
			continue
		}

		record := &storage.ImpactRecord{
			MatchID:    result.MatchID,
			PUUID:      result.PUUID,
			Category:   result.Analysis.Category,
			Summary:    result.Analysis.Summary,
			AnalyzedAt: b.now().UTC(),
		}
		if err := b.archive.Append(record); err != nil {
			b.log.Error("failed to archive match", zap.String("match_id", result.MatchID), zap.Error(err))
		}
	}
}

// Stats returns the totals over every run.
func (b *Backfiller) Stats() Stats {
	return Stats{
		Dispatched: atomic.LoadInt64(&b.dispatched),
		Analyzed:   atomic.LoadInt64(&b.analyzed),
		Skipped:    atomic.LoadInt64(&b.skipped),
		Failed:     atomic.LoadInt64(&b.failed),
		Cancelled:  atomic.LoadInt64(&b.cancelled),
		Duplicates: atomic.LoadInt64(&b.duplicates),
	}
}

func (s Stats) sub(o Stats) Stats {
	return Stats{
		Dispatched: s.Dispatched - o.Dispatched,
		Analyzed:   s.Analyzed - o.Analyzed,
		Skipped:    s.Skipped - o.Skipped,
		Failed:     s.Failed - o.Failed,
		Cancelled:  s.Cancelled - o.Cancelled,
		Duplicates: s.Duplicates - o.Duplicates,
	}
}
