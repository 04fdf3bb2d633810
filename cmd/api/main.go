package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callpulse/internal/agents"
	"callpulse/internal/analytics"
	"callpulse/internal/audit"
	"callpulse/internal/auth"
	"callpulse/internal/calls"
	"callpulse/internal/config"
	"callpulse/internal/httpapi"
	"callpulse/internal/provider"
	syncsvc "callpulse/internal/sync"
	"callpulse/internal/users"
	"callpulse/pkg/logger"
	"callpulse/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const analyticsCacheTTL = 30 * time.Second

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis is optional: without it analytics reads hit Postgres every time.
	var cache *utils.Cache
	if cfg.CacheEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		cache = utils.NewCache(rdb)
	} else {
		log.Info("analytics cache disabled, REDIS_HOST not set")
	}

	agentRepo := agents.NewPostgresRepo(db)
	callRepo := calls.NewPostgresRepo(db)
	userRepo := users.NewPostgresRepo(db)

	userSvc := users.NewService(userRepo, tokens)
	if err := userSvc.EnsureBootstrapAdmin(rootCtx, log, cfg.Bootstrap); err != nil {
		log.Error("bootstrap admin failed", "err", err)
		os.Exit(1)
	}

	source := provider.NewClient(cfg.Provider)

	handlers := &httpapi.Handlers{
		Users:      userSvc,
		Agents:     agentRepo,
		Calls:      callRepo,
		Sync:       syncsvc.NewService(source, agentRepo, callRepo, log),
		Analytics:  analytics.NewService(callRepo, agentRepo, cache, analyticsCacheTTL),
		Audit:      audit.NewService(audit.NewPostgresRepo(db), log),
		Log:        log,
		Production: cfg.IsProduction(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(cors.New(corsConfig(cfg)))

	httpapi.RegisterRoutes(r, handlers, tokens)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

func corsConfig(cfg config.Config) cors.Config {
	out := cors.DefaultConfig()
	out.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	out.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-API-Key"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		out.AllowAllOrigins = true
		return out
	}
	out.AllowOrigins = cfg.CORS.AllowedOrigins
	out.AllowCredentials = true
	return out
}
