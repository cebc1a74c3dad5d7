package main

import (
	"context"
	"time"

	"github.com/convgate/convgate/config"
	"github.com/convgate/convgate/converters"
	"github.com/convgate/convgate/routes"
	"github.com/convgate/convgate/storage"
	"github.com/convgate/convgate/utils"
	"github.com/convgate/convgate/workers"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	store, err := storage.NewTempStore(cfg.ScratchDir)
	if err != nil {
		utils.Sugar.Fatalf("scratch directory init failed: %v", err)
	}
	// Best-effort background retention for scratch files and finished jobs
	store.StartSweeper(cfg.SweepInterval(), cfg.RetentionTTL())

	tracker := workers.NewTracker()
	go func() {
		for {
			time.Sleep(cfg.SweepInterval())
			tracker.PruneOlderThan(2 * cfg.RetentionTTL())
		}
	}()

	pool := workers.NewPool(cfg.WorkerCount, cfg.QueueSize)
	pool.Start(context.Background())
	runner := workers.NewRunner(tracker, pool, converters.Options{
		Store:         store,
		EngineTimeout: cfg.EngineTimeout(),
		PhoneRegion:   cfg.PhoneRegion,
	})

	r := routes.SetupRouter(cfg, store, tracker, runner)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
