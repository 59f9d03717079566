package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/timeledger/timeledger-backend/config"
	"github.com/timeledger/timeledger-backend/internal/bootstrap"
	projectsrepo "github.com/timeledger/timeledger-backend/internal/projects/repository"
	cronjob "github.com/timeledger/timeledger-backend/internal/spending/cron"
	spendingrepo "github.com/timeledger/timeledger-backend/internal/spending/repository"
	"github.com/timeledger/timeledger-backend/internal/spending/service"
	"github.com/timeledger/timeledger-backend/internal/storage/postgres"
	entriesrepo "github.com/timeledger/timeledger-backend/internal/timeentries/repository"
	usersrepo "github.com/timeledger/timeledger-backend/internal/users/repository"
)

const serviceName = "timeledger-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := postgres.DSN(&cfg.Database)

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: dsn})
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
	if redisClient == nil {
		log.Println("report cache disabled (REDIS_ADDR not set)")
	} else {
		defer redisClient.Close()
	}

	userRepo := usersrepo.NewRepo(pool)
	projectRepo := projectsrepo.NewRepo(pool)
	entryRepo := entriesrepo.NewTimeEntryRepository(sqlDB)
	snapshotRepo := spendingrepo.NewSnapshotRepo(pool)

	var cache service.ReportCache
	if redisClient != nil {
		cache = spendingrepo.NewReportCache(redisClient)
	}

	svc := service.New(projectRepo, entryRepo, userRepo, snapshotRepo, cache)

	scheduler := cronjob.NewScheduler(cfg.Cron.RecomputeSpec, svc)
	scheduler.Start()
	defer scheduler.Stop()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		DB:             pool,
		SQLDB:          sqlDB,
		Redis:          redisClient,
		Spending:       svc,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
