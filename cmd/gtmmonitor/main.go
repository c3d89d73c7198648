package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"GTMMonitor/internal/app"
	"GTMMonitor/internal/config"
	"GTMMonitor/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single pipeline pass and exit instead of serving HTTP")
	dryRun := flag.Bool("dry-run", false, "with -once: classify and enrich but skip storage and notifications")
	flag.Parse()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	if *once {
		summary, err := application.RunOnce(ctx, *dryRun)
		if err != nil {
			logger.Error("pipeline run failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("total_posts: %d\nnew_posts: %d\nprocessed: %d\nrelevant_posts: %d\nhigh_priority: %d\n",
			summary.TotalPosts, summary.NewPosts, summary.Processed, summary.RelevantPosts, summary.HighPriority)
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
