package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/timeledger/timeledger-backend/config"
	"github.com/timeledger/timeledger-backend/internal/bootstrap"
	projectsrepo "github.com/timeledger/timeledger-backend/internal/projects/repository"
	spendingrepo "github.com/timeledger/timeledger-backend/internal/spending/repository"
	"github.com/timeledger/timeledger-backend/internal/spending/service"
	"github.com/timeledger/timeledger-backend/internal/storage/postgres"
	entriesrepo "github.com/timeledger/timeledger-backend/internal/timeentries/repository"
	usersrepo "github.com/timeledger/timeledger-backend/internal/users/repository"
)

// RunRecompute rebuilds budget snapshots: one project when an ID is given,
// every project otherwise. A single snapshot is printed to stdout as JSON.
func RunRecompute(args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("postgres (database/sql): %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	var cache service.ReportCache
	if redisClient != nil {
		defer redisClient.Close()
		cache = spendingrepo.NewReportCache(redisClient)
	}

	svc := service.New(
		projectsrepo.NewRepo(pool),
		entriesrepo.NewTimeEntryRepository(sqlDB),
		usersrepo.NewRepo(pool),
		spendingrepo.NewSnapshotRepo(pool),
		cache,
	)

	if len(args) > 0 {
		snap, err := svc.RecomputeBudget(ctx, args[0])
		if err != nil {
			log.Fatalf("recompute %s: %v", args[0], err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			log.Fatalf("encode snapshot: %v", err)
		}
		return
	}

	n, failures := svc.RecomputeAll(ctx)
	for _, f := range failures {
		if f.ProjectID == "" {
			log.Fatalf("recompute: %v", f.Err)
		}
		log.Printf("recompute %s: %v", f.ProjectID, f.Err)
	}
	log.Printf("recomputed %d projects, %d failed", n, len(failures))
}
