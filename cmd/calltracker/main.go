package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"calltracker/config"
	"calltracker/internal/ci"
	"calltracker/internal/lock"
	"calltracker/internal/report"
	"calltracker/internal/stats"
	"calltracker/internal/tracker"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	report.Init(cfg.SentryDSN)
	defer report.Flush()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Printf("create data dir: %v", err)
		return 1
	}
	release, err := lock.Acquire(cfg.LockPath())
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			log.Printf("another run holds %s, exiting", cfg.LockPath())
			return 1
		}
		log.Printf("lock: %v", err)
		return 1
	}
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	p, err := tracker.New(cfg)
	if err != nil {
		report.CaptureError(err, map[string]string{"stage": "init"})
		log.Printf("init: %v", err)
		return 1
	}
	defer p.Close()

	res, err := p.Run(ctx)
	if err != nil {
		report.CaptureError(err, map[string]string{"stage": "cycle"})
		log.Printf("cycle: %v", err)
		return 1
	}

	fmt.Println(stats.RenderSummary(res.Stats))

	if err := ci.Write(ci.Outputs{
		TotalActive:   res.TotalActive,
		NewCalls:      len(res.New),
		ResolvedCalls: len(res.Resolved),
	}); err != nil {
		log.Printf("ci outputs: %v", err)
	}
	return 0
}
