package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"leagueback/internal/collector"
	"leagueback/internal/config"
	"leagueback/internal/logger"
	"leagueback/internal/notify"
	"leagueback/internal/riot"
	"leagueback/internal/service"
	"leagueback/internal/storage"
	"leagueback/internal/store"
)

func main() {
	riotID := flag.String("riot-id", "", "Riot ID to backfill (e.g., 'Player#NA1')")
	puuid := flag.String("puuid", "", "PUUID to backfill")
	count := flag.Int("count", collector.DefaultPageSize, "Matches per history page (max 100)")
	pages := flag.Int("pages", collector.DefaultPages, "Number of history pages to walk")
	workers := flag.Int("workers", 0, "Analysis workers (default BACKFILL_WORKERS)")
	compress := flag.Bool("compress", true, "Compress warm archive files to cold/ when done")
	flag.Parse()

	if *riotID == "" && *puuid == "" {
		fmt.Println("Usage:")
		fmt.Println("  backfill --riot-id='Player#NA1' [--count=20] [--pages=5] [--workers=4]")
		fmt.Println("  backfill --puuid=PUUID [--count=20] [--pages=5] [--workers=4]")
		fmt.Println()
		fmt.Println("Every analyzed match is cached in the database. When ARCHIVE_PATH is set,")
		fmt.Println("results are also written to rotating JSONL files in:")
		fmt.Println("  hot/   - Active writes")
		fmt.Println("  warm/  - Closed files")
		fmt.Println("  cold/  - Compressed archives")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.Must(cfg.LogLevel, cfg.Env)
	defer log.Sync()

	if *workers <= 0 {
		*workers = cfg.BackfillWorkers
	}

	opts := options{
		riotID:   *riotID,
		puuid:    *puuid,
		compress: *compress,
		backfill: collector.Config{PageSize: *count, Pages: *pages, WorkerCount: *workers},
	}
	if err := run(cfg, log, opts); err != nil {
		log.Error("backfill failed", zap.Error(err))
		os.Exit(1)
	}
}

type options struct {
	riotID   string
	puuid    string
	compress bool
	backfill collector.Config
}

func run(cfg *config.Config, log *zap.Logger, opts options) error {
	ctx := collector.SetupSignalHandler(log, nil)

	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.TursoAuthToken)
	if err != nil {
		return err
	}
	defer st.Close()

	clientOpts := []riot.ClientOption{riot.WithLogger(log), riot.WithAPIKey(cfg.RiotAPIKey)}
	if cfg.RiotProxyURL != "" {
		clientOpts = append(clientOpts, riot.WithProxyURL(cfg.RiotProxyURL))
	} else {
		clientOpts = append(clientOpts, riot.WithRegionalURL(cfg.RiotBaseURL))
	}
	client, err := riot.NewClient(clientOpts...)
	if err != nil {
		return err
	}

	svc := service.New(client, st, log)

	puuid := opts.puuid
	if opts.riotID != "" {
		gameName, tagLine, ok := strings.Cut(opts.riotID, "#")
		if !ok {
			return fmt.Errorf("invalid Riot ID format '%s', expected 'GameName#TagLine'", opts.riotID)
		}
		account, err := svc.Account(ctx, strings.TrimSpace(gameName), strings.TrimSpace(tagLine))
		if err != nil {
			return fmt.Errorf("failed to lookup %s: %w", opts.riotID, err)
		}
		log.Info("resolved riot id", zap.String("riot_id", opts.riotID), zap.String("puuid", account.PUUID))
		puuid = account.PUUID
	}

	var rotator *storage.FileRotator
	var archive collector.Archive
	if cfg.ArchivePath != "" {
		rotator, err = storage.NewFileRotator(cfg.ArchivePath, storage.WithRotatorLogger(log))
		if err != nil {
			return err
		}
		archive = rotator
		log.Info("archiving results", zap.String("path", cfg.ArchivePath))
	}

	b := collector.NewBackfiller(svc, archive, log, opts.backfill)
	start := time.Now()
	stats, runErr := b.Run(ctx, puuid)

	if rotator != nil {
		if err := rotator.Close(); err != nil {
			log.Error("error closing rotator", zap.Error(err))
		}
		if opts.compress {
			if n, err := rotator.CompressWarm(); err != nil {
				log.Error("failed to compress archive", zap.Error(err))
			} else {
				log.Info("compressed archive files", zap.Int("files", n))
			}
		}
	}

	if cfg.DiscordWebhookURL != "" && !errors.Is(runErr, context.Canceled) {
		player := opts.riotID
		if player == "" {
			player = puuid
		}
		report := notify.BackfillReport{
			Player:   player,
			Analyzed: stats.Analyzed,
			Skipped:  stats.Skipped,
			Failed:   stats.Failed,
			Elapsed:  time.Since(start),
			Stopped:  runErr != nil,
		}
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := notify.NewWebhookClient(cfg.DiscordWebhookURL).SendBackfillReport(sendCtx, report); err != nil {
			log.Warn("failed to send backfill report", zap.Error(err))
		}
		cancel()
	}

	if errors.Is(runErr, context.Canceled) {
		log.Info("backfill interrupted", zap.Int64("analyzed", stats.Analyzed))
		return nil
	}
	return runErr
}
