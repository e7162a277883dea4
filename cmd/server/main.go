package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	goredis "github.com/hollowbyte/subtext-backend/internal/clients/redis"
	"github.com/hollowbyte/subtext-backend/internal/db"
	"github.com/hollowbyte/subtext-backend/internal/handlers"
	"github.com/hollowbyte/subtext-backend/internal/observability"
	"github.com/hollowbyte/subtext-backend/internal/persona"
	"github.com/hollowbyte/subtext-backend/internal/platform/envutil"
	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/platform/model"
	"github.com/hollowbyte/subtext-backend/internal/prompt"
	"github.com/hollowbyte/subtext-backend/internal/repos"
	"github.com/hollowbyte/subtext-backend/internal/server"
	"github.com/hollowbyte/subtext-backend/internal/services"
	"github.com/hollowbyte/subtext-backend/internal/sse"
)

func main() {
	log, err := logger.New(envutil.Str("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "subtext",
		Environment: envutil.Str("DEPLOY_ENV", "local"),
		Version:     envutil.Str("SERVICE_VERSION", "dev"),
	})

	// Progress store
	dbService, err := db.New(log)
	if err != nil {
		log.Fatal("progress store init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Fatal("progress store migration failed", "error", err)
	}
	progressRepo := repos.NewProgressRepo(dbService.DB(), log)

	// Read-only lookup data, built once
	catalog, err := persona.LoadCatalog(envutil.Str("PERSONA_CATALOG_PATH", ""))
	if err != nil {
		log.Fatal("persona catalog load failed", "error", err)
	}
	builder := prompt.NewBuilder(catalog)

	// Model client
	modelCfg, err := model.ConfigFromEnv()
	if err != nil {
		log.Fatal("model config invalid", "error", err)
	}
	modelClient, err := model.NewClient(log, modelCfg)
	if err != nil {
		log.Fatal("model client init failed", "error", err)
	}

	// Streaming
	hub := sse.NewHub(log)
	var bus goredis.ChunkBus
	if envutil.Str("REDIS_ADDR", "") != "" {
		bus, err = goredis.NewChunkBus(log)
		if err != nil {
			log.Warn("chunk bus unavailable, running single-instance", "error", err)
			bus = nil
		} else {
			if err := bus.StartForwarder(ctx, func(m sse.Message) { hub.Broadcast(m) }); err != nil {
				log.Warn("chunk bus forwarder failed, running single-instance", "error", err)
				bus = nil
			}
		}
	}

	// Services
	analysisService := services.NewAnalysisService(log, builder, modelClient)
	mentorService := services.NewMentorService(log, builder, catalog, modelClient)
	progressService := services.NewProgressService(log, progressRepo)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AnalyzeHandler:  handlers.NewAnalyzeHandler(log, analysisService, progressService),
		MentorHandler:   handlers.NewMentorHandler(log, mentorService, progressService, hub, bus),
		ProgressHandler: handlers.NewProgressHandler(log, progressService),
		SSEHandler:      handlers.NewSSEHandler(log, hub),
	})

	srv := &http.Server{
		Addr:    ":" + envutil.Str("PORT", "8080"),
		Handler: router,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if bus != nil {
			_ = bus.Close()
		}
		_ = shutdownOtel(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
