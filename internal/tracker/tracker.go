package tracker

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"calltracker/config"
	"calltracker/internal/diff"
	"calltracker/internal/feed"
	"calltracker/internal/stats"
	"calltracker/internal/store"
)

// Pipeline wires one poll cycle together: fetch, diff against the
// previous snapshot, then persist the log, snapshot, archive, stats,
// and event index.
type Pipeline struct {
	cfg       config.Config
	client    *feed.Client
	snapshots *store.SnapshotStore
	history   *store.HistoryLog
	archive   *store.Archiver
	stats     *stats.Store
	events    *store.EventStore
}

// Result summarizes a completed cycle.
type Result struct {
	TotalActive int
	New         []feed.Call
	Resolved    []feed.Call
	Stats       stats.Stats
}

func New(cfg config.Config) (*Pipeline, error) {
	for _, dir := range []string{cfg.DataDir, cfg.ArchiveDir(), cfg.AnalysisDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	events, err := store.OpenEvents(cfg.EventsDBPath())
	if err != nil {
		return nil, fmt.Errorf("open event index: %w", err)
	}
	return &Pipeline{
		cfg:       cfg,
		client:    feed.NewClient(cfg.APIURL, cfg.FetchTimeout()),
		snapshots: store.NewSnapshotStore(cfg.SnapshotPath()),
		history:   store.NewHistoryLog(cfg.HistoryPath(), cfg.Location),
		archive:   store.NewArchiver(cfg.ArchiveDir(), cfg.Location),
		stats:     stats.NewStore(cfg.StatsPath()),
		events:    events,
	}, nil
}

func (p *Pipeline) Close() error { return p.events.Close() }

// Run executes one cycle. A fetch failure returns before any file is
// touched, leaving all prior state intact.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	calls, err := p.client.ActiveCalls(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch active calls: %w", err)
	}
	now := time.Now()

	if err := p.history.Init(now); err != nil {
		return Result{}, fmt.Errorf("init history log: %w", err)
	}

	previous, err := p.snapshots.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load previous snapshot: %w", err)
	}

	changes := diff.Compute(previous.Calls, calls)
	if changes.HasChanges() {
		log.Printf("cycle: %d active, %d new, %d resolved", len(calls), len(changes.New), len(changes.Resolved))
	} else {
		log.Printf("cycle: %d active, no changes", len(calls))
	}

	if err := p.history.Append(now, changes, len(calls)); err != nil {
		return Result{}, fmt.Errorf("append history log: %w", err)
	}
	if err := p.archive.Append(calls, now, now); err != nil {
		return Result{}, fmt.Errorf("append daily archive: %w", err)
	}

	st, err := p.stats.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load stats: %w", err)
	}
	st.Apply(changes.New, changes.Resolved, len(calls), now, p.cfg.Location)
	if err := p.stats.Save(st); err != nil {
		return Result{}, fmt.Errorf("save stats: %w", err)
	}

	if err := p.events.RecordCycle(ctx, now, changes, len(calls)); err != nil {
		return Result{}, fmt.Errorf("record cycle events: %w", err)
	}

	// The snapshot rename is what wakes watch-mode evaluators, so it
	// must be the last write: by then this cycle's events are committed.
	if err := p.snapshots.Save(calls, now); err != nil {
		return Result{}, fmt.Errorf("save snapshot: %w", err)
	}

	return Result{
		TotalActive: len(calls),
		New:         changes.New,
		Resolved:    changes.Resolved,
		Stats:       st,
	}, nil
}
