package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"calltracker/config"
	"calltracker/internal/alert"
	"calltracker/internal/feed"
	"calltracker/internal/report"
	"calltracker/internal/store"
	"calltracker/internal/watch"
	"calltracker/metrics"
)

func main() {
	watchMode := flag.Bool("watch", false, "stay resident and re-evaluate on snapshot updates")
	flag.Parse()
	os.Exit(run(*watchMode))
}

func run(watchMode bool) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	report.Init(cfg.SentryDSN)
	defer report.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	notifier := alert.NewNotifier(cfg.DiscordWebhookURL, cfg.MaxAlertsPerRun)
	notifier.OnDelivered = func(rule string) { metrics.AlertsDelivered.WithLabelValues(rule).Inc() }
	notifier.OnFailure = metrics.AlertDeliveryFailures.Inc

	rules := alert.Rules{
		VolumeThreshold:  cfg.HighVolumeThreshold,
		WatchedCallTypes: cfg.AlertCallTypes,
		WatchedAddresses: cfg.AlertAddresses,
	}
	snapshots := store.NewSnapshotStore(cfg.SnapshotPath())

	evaluate := func(ctx context.Context) {
		snap, err := snapshots.Load()
		if err != nil {
			report.CaptureError(err, map[string]string{"stage": "snapshot"})
			log.Printf("load snapshot: %v", err)
			return
		}
		metrics.ActiveCalls.Set(float64(len(snap.Calls)))
		metrics.SnapshotsObserved.Inc()

		newCalls := latestNewCalls(ctx, cfg, snap.Calls)
		alerts := alert.Evaluate(len(snap.Calls), newCalls, rules)
		if len(alerts) == 0 {
			log.Printf("no alert conditions met (%d active)", len(snap.Calls))
			return
		}
		delivered := notifier.Deliver(ctx, alerts)
		log.Printf("delivered %d of %d alerts", delivered, len(alerts))
	}

	if !watchMode {
		evaluate(ctx)
		return 0
	}

	metrics.Serve(cfg.MetricsAddr)
	log.Printf("metrics on %s/metrics", cfg.MetricsAddr)

	w := watch.New(cfg.SnapshotPath(), evaluate)
	if err := w.Start(ctx); err != nil {
		report.CaptureError(err, map[string]string{"stage": "watch"})
		log.Printf("watch: %v", err)
		return 1
	}
	log.Printf("watching %s", cfg.SnapshotPath())
	<-ctx.Done()
	return 0
}

// latestNewCalls returns the genuinely-new records from the most recent
// tracker cycle. Only before any cycle has ever been recorded is the
// whole snapshot treated as new; a read error skips the per-record
// rules for this round rather than re-firing on every existing call.
func latestNewCalls(ctx context.Context, cfg config.Config, snapshot []feed.Call) []feed.Call {
	events, err := store.OpenEvents(cfg.EventsDBPath())
	if err != nil {
		log.Printf("open event index: %v (skipping per-record rules)", err)
		return nil
	}
	defer events.Close()

	calls, ok, err := events.LatestNewCalls(ctx)
	if err != nil {
		log.Printf("read event index: %v (skipping per-record rules)", err)
		return nil
	}
	if !ok {
		return snapshot
	}
	return calls
}
