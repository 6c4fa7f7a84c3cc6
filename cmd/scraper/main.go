package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"bds-sync/internal/app"
	"bds-sync/internal/config"
	"bds-sync/internal/intent"
)

// The scraper binary runs one collection sweep: collect from every
// source, validate and ingest the batch, then expire listings that no
// sweep has seen for a week. It is meant for cron, not for a daemon.
func main() {
	keyword := flag.String("keyword", "", "free-text keyword passed to the platforms")
	district := flag.String("district", "", "district to sweep, e.g. 'Cầu Giấy'")
	staleAfter := flag.Duration("stale-after", 7*24*time.Hour, "mark listings stale when unseen this long")
	timeout := flag.Duration("timeout", 10*time.Minute, "whole-sweep timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var filters intent.Filters
	if d := strings.TrimSpace(*district); d != "" {
		filters.District = &d
	}

	raw, sources, errs := c.Collector.Collect(ctx, filters, strings.TrimSpace(*keyword))
	for _, e := range errs {
		logger.Printf("[Sweep] source error | %s", e)
	}
	if len(raw) == 0 {
		logger.Printf("[Sweep] nothing collected | sources=%v", sources)
		return
	}

	report, err := c.IngestUC.IngestBatch(ctx, raw)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	logger.Printf("[Sweep] ingest done | received=%d accepted=%d rejected=%d inserted=%d updated=%d flagged=%d",
		report.Received, report.Accepted, report.Rejected, report.Inserted, report.Updated, report.Flagged)

	expired, err := c.ListingUC.ExpireStale(ctx, *staleAfter)
	if err != nil {
		logger.Printf("[Sweep] expire stale failed | err=%v", err)
		return
	}
	logger.Printf("[Sweep] stale listings expired | count=%d", expired)
}
